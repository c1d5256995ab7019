package sweeper

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/google/wire"
	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/queue"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
)

const (
	panicString     = "parameters null"
	sweeperLockName = "recovery-sweeper"
)

var (
	// SweeperInjector is the injector for the Sweeper module
	SweeperInjector = wire.NewSet(NewRecoverySweeper,
		wire.Struct(new(Configuration), "EntryRepo", "LockRepo", "KVRepo", "TicketRepo", "HeartbeatRepo", "SweeperConfig", "WorkerConfig", "EventBus", "MetricsContainer"))
)

type sweeperLockable struct{}

func (sweeperLockable) GetLockID() string {
	return sweeperLockName
}

// RecoverySweeper returns processing entries whose visibility timeout lapsed back to
// pending and garbage collects expired TTL rows. One sweep runs fleet wide per cycle
// behind the sweeper lock.
type RecoverySweeper struct {
	entryRepo     storage.QueueEntryRepository
	lockRepo      storage.LockRepository
	kvRepo        storage.KeyValueRepository
	ticketRepo    storage.TicketRepository
	hbRepo        storage.HeartbeatRepository
	sweeperConfig config.SweeperConfig
	workerID      string
	sweeperStop   chan bool
	running       bool
	events        *queue.EventBus
	metrics       *queue.MetricsContainer
}

var (
	recoverTimedOutEntries = func(sweeper *RecoverySweeper) int {
		entries, err := sweeper.entryRepo.GetTimedOutEntries(sweeper.sweeperConfig.GetSweepBatchSize())
		if err != nil {
			log.Error().Err(err).Msg("error - could not scan timed out entries")
			return 0
		}
		recovered := 0
		for _, entry := range entries {
			err = sweeper.entryRepo.Recover(entry)
			if err == storage.ErrClaimConflict {
				// the owner finished or another sweep won; either way the entry moved on
				continue
			}
			if err != nil {
				log.Error().Err(err).Msg("error - could not recover entry " + entry.ID.String())
				continue
			}
			recovered++
		}
		return recovered
	}

	purgeExpiredRows = func(sweeper *RecoverySweeper) {
		if err := sweeper.lockRepo.TimeoutLocks(sweeper.sweeperConfig.GetSweepInterval()); err != nil {
			log.Error().Err(err).Msg("error - could not timeout locks")
		}
		if err := sweeper.kvRepo.PurgeExpired(); err != nil {
			log.Error().Err(err).Msg("error - could not purge expired markers")
		}
		if err := sweeper.ticketRepo.PurgeExpired(); err != nil {
			log.Error().Err(err).Msg("error - could not purge expired tickets")
		}
		if err := sweeper.hbRepo.PurgeExpired(); err != nil {
			log.Error().Err(err).Msg("error - could not purge expired heartbeats")
		}
	}

	sweepOnce = func(sweeper *RecoverySweeper) {
		defer func() {
			if r := recover(); r != nil {
				log.Print("error - had to recover from panic", r)
			}
		}()
		lock, err := data.NewLock(sweeperLockable{}, sweeper.workerID, sweeper.sweeperConfig.GetSweepInterval())
		if err == nil {
			err = sweeper.lockRepo.TryLock(lock)
		}
		if err == storage.ErrLockUnavailable {
			// another node sweeps this cycle
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("error - could not attain sweeper lock")
			return
		}
		defer sweeper.lockRepo.ReleaseLock(lock)
		recovered := recoverTimedOutEntries(sweeper)
		purgeExpiredRows(sweeper)
		if recovered > 0 {
			log.Print("recovered timed out entries", recovered)
			sweeper.metrics.RecoveredCount.Add(float64(recovered))
		}
		sweeper.events.Notify(queue.Event{Type: queue.RecoveryRun, WorkerID: sweeper.workerID, RecoveredCount: recovered})
	}
)

func (sweeper *RecoverySweeper) sweep() {
	for {
		timer := time.After(sweeper.sweeperConfig.GetSweepInterval())
		select {
		case <-sweeper.sweeperStop:
			return
		case <-timer:
			sweepOnce(sweeper)
		}
	}
}

// Start begins the periodic sweep loop
func (sweeper *RecoverySweeper) Start() {
	if sweeper.running {
		return
	}
	sweeper.running = true
	go sweeper.sweep()
}

// Stop halts the sweep loop
func (sweeper *RecoverySweeper) Stop() {
	if !sweeper.running {
		return
	}
	sweeper.sweeperStop <- true
	sweeper.running = false
}

// Configuration represents the configuration for a recovery sweeper
type Configuration struct {
	EntryRepo        storage.QueueEntryRepository
	LockRepo         storage.LockRepository
	KVRepo           storage.KeyValueRepository
	TicketRepo       storage.TicketRepository
	HeartbeatRepo    storage.HeartbeatRepository
	SweeperConfig    config.SweeperConfig
	WorkerConfig     config.WorkerConfig
	EventBus         *queue.EventBus
	MetricsContainer *queue.MetricsContainer
}

// NewRecoverySweeper retrieves a new instance of RecoverySweeper
func NewRecoverySweeper(configuration *Configuration) *RecoverySweeper {
	if configuration.EntryRepo == nil || configuration.LockRepo == nil || configuration.KVRepo == nil || configuration.TicketRepo == nil || configuration.HeartbeatRepo == nil {
		panic(panicString)
	}
	if configuration.SweeperConfig == nil || configuration.WorkerConfig == nil || configuration.EventBus == nil || configuration.MetricsContainer == nil {
		panic(panicString)
	}
	return &RecoverySweeper{
		entryRepo:     configuration.EntryRepo,
		lockRepo:      configuration.LockRepo,
		kvRepo:        configuration.KVRepo,
		ticketRepo:    configuration.TicketRepo,
		hbRepo:        configuration.HeartbeatRepo,
		sweeperConfig: configuration.SweeperConfig,
		workerID:      configuration.WorkerConfig.GetWorkerID(),
		sweeperStop:   make(chan bool),
		events:        configuration.EventBus,
		metrics:       configuration.MetricsContainer}
}
