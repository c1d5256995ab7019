package coordinator

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/queue"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
)

const (
	panicString = "parameters null"
)

// State represents where this process stands in the election lifecycle
type State int

const (
	// StateObserving is the cold start state; no election is attempted until the
	// observation window lapses so existing leadership can be discovered first
	StateObserving State = iota + 100
	// StateCandidate is the transient state while an election is in progress
	StateCandidate
	// StateLeader means this process holds the live epoch and publishes tickets
	StateLeader
	// StateFollower means another process leads; entries arrive via tickets
	StateFollower
)

// Coordinator runs the time based leader election and, while leading, publishes
// advisory tickets for pending entries. Losing leadership is never an error
// condition; followers and leaderless fleets fall back to direct polling.
type Coordinator struct {
	hbRepo            storage.HeartbeatRepository
	ticketRepo        storage.TicketRepository
	entryRepo         storage.QueueEntryRepository
	coordinatorConfig config.CoordinatorConfig
	workerID          string
	enabled           bool
	state             State
	epoch             *data.CoordinatorEpoch
	lastLeaderSeen    time.Time
	startedAt         time.Time
	coordinatorStop   chan bool
	running           bool
	events            *queue.EventBus
	mu                sync.RWMutex
}

// IsLeader retrieves whether this process currently holds a live epoch
func (coordinator *Coordinator) IsLeader() bool {
	coordinator.mu.RLock()
	defer coordinator.mu.RUnlock()
	return coordinator.state == StateLeader && coordinator.epoch != nil && !coordinator.epoch.IsExpired()
}

// IsTicketFlowActive retrieves whether the poller should source entries from tickets.
// It degrades to false when no coordinator heartbeat has been seen within the
// configured threshold so pollers never stall on a silent leader.
func (coordinator *Coordinator) IsTicketFlowActive() bool {
	if !coordinator.enabled {
		return false
	}
	if coordinator.IsLeader() {
		return true
	}
	coordinator.mu.RLock()
	defer coordinator.mu.RUnlock()
	if coordinator.lastLeaderSeen.IsZero() {
		return false
	}
	return time.Since(coordinator.lastLeaderSeen) < coordinator.coordinatorConfig.GetDegradeThreshold()
}

// CurrentState retrieves the current election state
func (coordinator *Coordinator) CurrentState() State {
	coordinator.mu.RLock()
	defer coordinator.mu.RUnlock()
	return coordinator.state
}

var (
	publishHeartbeat = func(coordinator *Coordinator) {
		role := data.RoleWorker
		var epochNumber uint64
		coordinator.mu.RLock()
		if coordinator.state == StateLeader {
			role = data.RoleCoordinator
		}
		if coordinator.epoch != nil {
			epochNumber = coordinator.epoch.Epoch
		}
		coordinator.mu.RUnlock()
		heartbeat, err := data.NewWorkerHeartbeat(coordinator.workerID, role, epochNumber, coordinator.coordinatorConfig.GetHeartbeatTTL())
		if err == nil {
			err = coordinator.hbRepo.Beat(heartbeat)
		}
		if err != nil {
			log.Error().Err(err).Msg("error - could not publish heartbeat for " + coordinator.workerID)
		}
	}

	observeLeader = func(coordinator *Coordinator) {
		liveWorkers, err := coordinator.hbRepo.GetLiveWorkers()
		if err != nil {
			log.Error().Err(err).Msg("error - could not list live workers")
			return
		}
		for _, worker := range liveWorkers {
			if worker.Role == data.RoleCoordinator {
				coordinator.mu.Lock()
				coordinator.lastLeaderSeen = worker.LastSeen
				coordinator.mu.Unlock()
				return
			}
		}
	}

	// lowestLiveWorkerID relies on GetLiveWorkers returning rows ordered by worker id
	lowestLiveWorkerID = func(coordinator *Coordinator) (string, error) {
		liveWorkers, err := coordinator.hbRepo.GetLiveWorkers()
		if err != nil {
			return "", err
		}
		if len(liveWorkers) == 0 {
			// our own heartbeat has not landed yet; treat ourselves as the only voter
			return coordinator.workerID, nil
		}
		return liveWorkers[0].WorkerID, nil
	}

	electLeader = func(coordinator *Coordinator) {
		coordinator.setState(StateCandidate)
		lowestID, err := lowestLiveWorkerID(coordinator)
		if err != nil {
			log.Error().Err(err).Msg("error - could not evaluate election candidates")
			coordinator.setState(StateFollower)
			return
		}
		if lowestID != coordinator.workerID {
			coordinator.setState(StateFollower)
			return
		}
		var nextEpochNumber uint64 = 1
		currentEpoch, err := coordinator.hbRepo.GetCurrentEpoch()
		if err == nil {
			nextEpochNumber = currentEpoch.Epoch + 1
		} else if err != storage.ErrNoEpoch {
			log.Error().Err(err).Msg("error - could not read current epoch")
			coordinator.setState(StateFollower)
			return
		}
		newEpoch, err := data.NewCoordinatorEpoch(nextEpochNumber, coordinator.workerID, coordinator.coordinatorConfig.GetEpochTTL())
		if err == nil {
			err = coordinator.hbRepo.StartEpoch(newEpoch)
		}
		if err == storage.ErrEpochTaken {
			// exactly one winner per epoch number; we were not it
			coordinator.setState(StateFollower)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("error - could not start epoch")
			coordinator.setState(StateFollower)
			return
		}
		coordinator.mu.Lock()
		coordinator.epoch = newEpoch
		coordinator.state = StateLeader
		coordinator.mu.Unlock()
		log.Print("elected coordinator", coordinator.workerID, newEpoch.Epoch)
		coordinator.events.Notify(queue.Event{Type: queue.CoordinatorElected, WorkerID: coordinator.workerID, Epoch: newEpoch.Epoch})
	}

	refreshLeadership = func(coordinator *Coordinator) {
		coordinator.mu.RLock()
		epoch := coordinator.epoch
		coordinator.mu.RUnlock()
		err := coordinator.hbRepo.RefreshEpoch(epoch, coordinator.coordinatorConfig.GetEpochTTL())
		if err != nil {
			if err != storage.ErrEpochTaken {
				log.Error().Err(err).Msg("error - could not refresh epoch")
			}
			coordinator.demote()
		}
	}

	publishTickets = func(coordinator *Coordinator) {
		entries, err := coordinator.entryRepo.Poll(coordinator.coordinatorConfig.GetTicketBatchSize())
		if err != nil {
			log.Error().Err(err).Msg("error - could not scan pending entries for tickets")
			return
		}
		tickets := make([]*data.Ticket, 0, len(entries))
		for _, entry := range entries {
			ticket, ticketErr := data.NewTicket(entry, coordinator.coordinatorConfig.GetTicketTTL())
			if ticketErr == nil {
				tickets = append(tickets, ticket)
			}
		}
		if len(tickets) == 0 {
			return
		}
		if err = coordinator.ticketRepo.Publish(tickets); err != nil {
			log.Error().Err(err).Msg("error - could not publish tickets")
		}
	}

	coordinateOnce = func(coordinator *Coordinator) {
		defer func() {
			if r := recover(); r != nil {
				log.Print("error - had to recover from panic", r)
			}
		}()
		publishHeartbeat(coordinator)
		observeLeader(coordinator)
		switch coordinator.CurrentState() {
		case StateObserving:
			if time.Since(coordinator.startedAt) < coordinator.coordinatorConfig.GetObservationWindow() {
				return
			}
			electLeader(coordinator)
		case StateLeader:
			refreshLeadership(coordinator)
			if coordinator.IsLeader() {
				publishTickets(coordinator)
			}
		case StateFollower:
			currentEpoch, err := coordinator.hbRepo.GetCurrentEpoch()
			if err == storage.ErrNoEpoch || (err == nil && currentEpoch.IsExpired()) {
				electLeader(coordinator)
			} else if err != nil {
				log.Error().Err(err).Msg("error - could not read current epoch")
			}
		}
	}
)

func (coordinator *Coordinator) setState(state State) {
	coordinator.mu.Lock()
	coordinator.state = state
	coordinator.mu.Unlock()
}

func (coordinator *Coordinator) demote() {
	coordinator.mu.Lock()
	wasLeader := coordinator.state == StateLeader
	coordinator.state = StateFollower
	coordinator.epoch = nil
	coordinator.mu.Unlock()
	if wasLeader {
		log.Print("demoted coordinator", coordinator.workerID)
		coordinator.events.Notify(queue.Event{Type: queue.CoordinatorDemoted, WorkerID: coordinator.workerID})
	}
}

func (coordinator *Coordinator) coordinate() {
	for {
		timer := time.After(coordinator.coordinatorConfig.GetHeartbeatInterval())
		select {
		case <-coordinator.coordinatorStop:
			return
		case <-timer:
			coordinateOnce(coordinator)
		}
	}
}

// Start begins heartbeat publishing and the election loop; a no-op when coordination
// is disabled by configuration
func (coordinator *Coordinator) Start() {
	if !coordinator.enabled || coordinator.running {
		return
	}
	coordinator.running = true
	coordinator.startedAt = time.Now()
	go coordinator.coordinate()
}

// Stop halts the election loop and cedes leadership if held
func (coordinator *Coordinator) Stop() {
	if !coordinator.running {
		return
	}
	coordinator.coordinatorStop <- true
	coordinator.running = false
	if coordinator.IsLeader() {
		coordinator.demote()
	}
}

// Configuration represents the configuration for a coordinator
type Configuration struct {
	HeartbeatRepo     storage.HeartbeatRepository
	TicketRepo        storage.TicketRepository
	EntryRepo         storage.QueueEntryRepository
	CoordinatorConfig config.CoordinatorConfig
	WorkerConfig      config.WorkerConfig
	EventBus          *queue.EventBus
}

// NewCoordinator retrieves a new instance of Coordinator in the observing state
func NewCoordinator(configuration *Configuration) *Coordinator {
	if configuration.HeartbeatRepo == nil || configuration.TicketRepo == nil || configuration.EntryRepo == nil {
		panic(panicString)
	}
	if configuration.CoordinatorConfig == nil || configuration.WorkerConfig == nil || configuration.EventBus == nil {
		panic(panicString)
	}
	return &Coordinator{
		hbRepo:            configuration.HeartbeatRepo,
		ticketRepo:        configuration.TicketRepo,
		entryRepo:         configuration.EntryRepo,
		coordinatorConfig: configuration.CoordinatorConfig,
		workerID:          configuration.WorkerConfig.GetWorkerID(),
		enabled:           configuration.CoordinatorConfig.IsCoordinatorEnabled(),
		state:             StateObserving,
		coordinatorStop:   make(chan bool),
		events:            configuration.EventBus}
}
