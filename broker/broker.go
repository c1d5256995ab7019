package broker

import (
	"time"

	"github.com/google/wire"
	"github.com/rs/zerolog/log"

	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/coordinator"
	"github.com/newscred/task-broker/queue"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
	"github.com/newscred/task-broker/sweeper"
)

const (
	panicString           = "parameters null"
	enqueueDedupKeyPrefix = "dk-"
)

var (
	// BrokerInjector is the injector for the Broker module
	BrokerInjector = wire.NewSet(NewBroker,
		wire.Struct(new(Configuration), "EntryRepo", "KVRepo", "HeartbeatRepo", "Poller", "Registry", "Coordinator", "Sweeper", "DedupConfig", "WorkerConfig", "EventBus"))
)

// Options carries the optional enqueue parameters
type Options struct {
	// Delay defers first visibility of the entry
	Delay time.Duration
	// DedupKey suppresses re-enqueueing the same logical job while a previous entry
	// with the key is still remembered; a best effort guard, not a uniqueness constraint
	DedupKey string
}

// Stats is a point in time snapshot of the queue
type Stats struct {
	Pending       int64  `json:"pending"`
	Processing    int64  `json:"processing"`
	Completed     int64  `json:"completed"`
	Dead          int64  `json:"dead"`
	ActiveWorkers int    `json:"activeWorkers"`
	IsCoordinator bool   `json:"isCoordinator"`
	WorkerID      string `json:"workerId"`
}

// Broker is the single facade of the job queue engine for embedding applications
type Broker struct {
	entryRepo   storage.QueueEntryRepository
	kvRepo      storage.KeyValueRepository
	hbRepo      storage.HeartbeatRepository
	poller      *queue.EntryPoller
	registry    *queue.HandlerRegistry
	coordinator *coordinator.Coordinator
	sweeper     *sweeper.RecoverySweeper
	dedupConfig config.DeduplicationConfig
	workerID    string
	events      *queue.EventBus
	started     bool
}

// Enqueue persists a new pending entry and returns its id. A non-zero Delay defers
// visibility; a DedupKey returns the previously enqueued entry's id when the key is
// still remembered.
func (broker *Broker) Enqueue(jobType string, payload string, options *Options) (string, error) {
	entry, err := data.NewQueueEntry(jobType, payload)
	if err != nil {
		return "", err
	}
	if options != nil {
		if options.Delay > 0 {
			entry.VisibleAt = time.Now().Add(options.Delay)
		}
		entry.DedupKey = options.DedupKey
	}
	if len(entry.DedupKey) > 0 {
		if existingID, getErr := broker.kvRepo.Get(enqueueDedupKeyPrefix + entry.DedupKey); getErr == nil {
			return existingID, nil
		}
	}
	if err = broker.entryRepo.Enqueue(entry); err != nil {
		return "", err
	}
	if len(entry.DedupKey) > 0 {
		if putErr := broker.kvRepo.Put(enqueueDedupKeyPrefix+entry.DedupKey, entry.ID.String(), broker.dedupConfig.GetMarkerTTL()); putErr != nil {
			log.Error().Err(putErr).Msg("could not remember dedup key for entry " + entry.ID.String())
		}
	}
	broker.events.Notify(queue.Event{Type: queue.EntryEnqueued, EntryID: entry.ID.String(), JobType: entry.JobType})
	broker.poller.Dispatch(entry)
	return entry.ID.String(), nil
}

// RegisterHandler registers the handler for the job type; must be called before Start
// for entries of that type to be processed on this node
func (broker *Broker) RegisterHandler(jobType string, handler queue.Handler) error {
	return broker.registry.Register(jobType, handler)
}

// Start begins polling, coordination and recovery sweeps
func (broker *Broker) Start() {
	if broker.started {
		return
	}
	broker.started = true
	broker.poller.Start()
	broker.coordinator.Start()
	broker.sweeper.Start()
	log.Print("broker started", broker.workerID)
}

// Stop halts the loops and waits for in-flight workers within the configured stop
// timeout
func (broker *Broker) Stop() {
	if !broker.started {
		return
	}
	broker.sweeper.Stop()
	broker.coordinator.Stop()
	broker.poller.Stop()
	broker.started = false
	log.Print("broker stopped", broker.workerID)
}

// GetStats retrieves current entry counts per status along with fleet liveness
func (broker *Broker) GetStats() (*Stats, error) {
	counts, err := broker.entryRepo.GetStatusCounts()
	if err != nil {
		return nil, err
	}
	liveWorkers, err := broker.hbRepo.GetLiveWorkers()
	if err != nil {
		return nil, err
	}
	return &Stats{
		Pending:       counts[data.EntryPending],
		Processing:    counts[data.EntryProcessing],
		Completed:     counts[data.EntryCompleted],
		Dead:          counts[data.EntryDead],
		ActiveWorkers: len(liveWorkers),
		IsCoordinator: broker.coordinator.IsLeader(),
		WorkerID:      broker.workerID,
	}, nil
}

// Events retrieves the lifecycle event stream of this process
func (broker *Broker) Events() <-chan queue.Event {
	return broker.events.Listen()
}

// Configuration represents the configuration for a broker facade
type Configuration struct {
	EntryRepo     storage.QueueEntryRepository
	KVRepo        storage.KeyValueRepository
	HeartbeatRepo storage.HeartbeatRepository
	Poller        *queue.EntryPoller
	Registry      *queue.HandlerRegistry
	Coordinator   *coordinator.Coordinator
	Sweeper       *sweeper.RecoverySweeper
	DedupConfig   config.DeduplicationConfig
	WorkerConfig  config.WorkerConfig
	EventBus      *queue.EventBus
}

// NewBroker retrieves a new instance of Broker; Start must be called to begin
// processing
func NewBroker(configuration *Configuration) *Broker {
	if configuration.EntryRepo == nil || configuration.KVRepo == nil || configuration.HeartbeatRepo == nil || configuration.Poller == nil || configuration.Registry == nil {
		panic(panicString)
	}
	if configuration.Coordinator == nil || configuration.Sweeper == nil || configuration.DedupConfig == nil || configuration.WorkerConfig == nil || configuration.EventBus == nil {
		panic(panicString)
	}
	return &Broker{
		entryRepo:   configuration.EntryRepo,
		kvRepo:      configuration.KVRepo,
		hbRepo:      configuration.HeartbeatRepo,
		poller:      configuration.Poller,
		registry:    configuration.Registry,
		coordinator: configuration.Coordinator,
		sweeper:     configuration.Sweeper,
		dedupConfig: configuration.DedupConfig,
		workerID:    configuration.WorkerConfig.GetWorkerID(),
		events:      configuration.EventBus}
}
