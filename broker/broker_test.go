package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/newscred/task-broker/coordinator"
	"github.com/newscred/task-broker/queue"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
	storagemocks "github.com/newscred/task-broker/storage/mocks"
	"github.com/newscred/task-broker/sweeper"
)

type queueConfigMock struct{}

func (m *queueConfigMock) GetMaxAttempts() uint                  { return 3 }
func (m *queueConfigMock) GetVisibilityTimeout() time.Duration   { return 2 * time.Second }
func (m *queueConfigMock) GetPollBatchSize() int                 { return 10 }
func (m *queueConfigMock) GetPollInterval() time.Duration        { return 10 * time.Millisecond }
func (m *queueConfigMock) GetPollIntervalCeiling() time.Duration { return 100 * time.Millisecond }
func (m *queueConfigMock) GetRetryBackoffBase() time.Duration    { return 5 * time.Second }
func (m *queueConfigMock) GetRetryBackoffCap() time.Duration     { return 300 * time.Second }

type workerConfigMock struct{}

func (m *workerConfigMock) GetWorkerID() string           { return "test-worker-1" }
func (m *workerConfigMock) GetMaxWorkers() uint           { return 2 }
func (m *workerConfigMock) GetJobQueueSize() uint         { return 10 }
func (m *workerConfigMock) GetStopTimeout() time.Duration { return 5 * time.Second }

type coordinatorConfigMock struct{}

func (m *coordinatorConfigMock) IsCoordinatorEnabled() bool          { return false }
func (m *coordinatorConfigMock) GetHeartbeatInterval() time.Duration { return 5 * time.Second }
func (m *coordinatorConfigMock) GetHeartbeatTTL() time.Duration      { return 15 * time.Second }
func (m *coordinatorConfigMock) GetObservationWindow() time.Duration { return 15 * time.Second }
func (m *coordinatorConfigMock) GetEpochTTL() time.Duration          { return 15 * time.Second }
func (m *coordinatorConfigMock) GetTicketTTL() time.Duration         { return 30 * time.Second }
func (m *coordinatorConfigMock) GetTicketBatchSize() int             { return 100 }
func (m *coordinatorConfigMock) GetDegradeThreshold() time.Duration  { return 20 * time.Second }

type dedupConfigMock struct{}

func (m *dedupConfigMock) IsDeduplicationEnabled() bool    { return false }
func (m *dedupConfigMock) GetGateLockTTL() time.Duration   { return 5 * time.Second }
func (m *dedupConfigMock) GetMarkerTTL() time.Duration     { return 10 * time.Minute }
func (m *dedupConfigMock) GetLocalCacheTTL() time.Duration { return time.Minute }

type sweeperConfigMock struct{}

func (m *sweeperConfigMock) GetSweepInterval() time.Duration { return 30 * time.Second }
func (m *sweeperConfigMock) GetSweepBatchSize() int          { return 100 }

type brokerTestMocks struct {
	entryRepo  *storagemocks.QueueEntryRepository
	kvRepo     *storagemocks.KeyValueRepository
	hbRepo     *storagemocks.HeartbeatRepository
	ticketRepo *storagemocks.TicketRepository
	lockRepo   *storagemocks.LockRepository
}

type routerMock struct {
	mock.Mock
}

func (m *routerMock) Route(entry *data.QueueEntry, cause string) error {
	ret := m.Called(entry, cause)
	return ret.Error(0)
}

func getBrokerTestConfiguration() (*Configuration, *brokerTestMocks) {
	mocked := &brokerTestMocks{entryRepo: new(storagemocks.QueueEntryRepository), kvRepo: new(storagemocks.KeyValueRepository),
		hbRepo: new(storagemocks.HeartbeatRepository), ticketRepo: new(storagemocks.TicketRepository), lockRepo: new(storagemocks.LockRepository)}
	registry := queue.NewHandlerRegistry()
	events := queue.NewEventBus(&workerConfigMock{})
	gate := queue.NewDeduplicationGate(&dedupConfigMock{}, &workerConfigMock{}, mocked.lockRepo, mocked.kvRepo)
	coord := coordinator.NewCoordinator(&coordinator.Configuration{
		HeartbeatRepo: mocked.hbRepo, TicketRepo: mocked.ticketRepo, EntryRepo: mocked.entryRepo,
		CoordinatorConfig: &coordinatorConfigMock{}, WorkerConfig: &workerConfigMock{}, EventBus: events})
	poller := queue.NewEntryPoller(&queue.Configuration{
		EntryRepo: mocked.entryRepo, TicketRepo: mocked.ticketRepo, QueueConfig: &queueConfigMock{},
		WorkerConfig: &workerConfigMock{}, CoordinatorConfig: &coordinatorConfigMock{}, Registry: registry,
		Gate: gate, Router: new(routerMock), TicketSource: coord, EventBus: events, MetricsContainer: queue.NewMetricsContainer()})
	recoverySweeper := sweeper.NewRecoverySweeper(&sweeper.Configuration{
		EntryRepo: mocked.entryRepo, LockRepo: mocked.lockRepo, KVRepo: mocked.kvRepo, TicketRepo: mocked.ticketRepo,
		HeartbeatRepo: mocked.hbRepo, SweeperConfig: &sweeperConfigMock{}, WorkerConfig: &workerConfigMock{},
		EventBus: events, MetricsContainer: queue.NewMetricsContainer()})
	return &Configuration{
		EntryRepo:     mocked.entryRepo,
		KVRepo:        mocked.kvRepo,
		HeartbeatRepo: mocked.hbRepo,
		Poller:        poller,
		Registry:      registry,
		Coordinator:   coord,
		Sweeper:       recoverySweeper,
		DedupConfig:   &dedupConfigMock{},
		WorkerConfig:  &workerConfigMock{},
		EventBus:      events,
	}, mocked
}

func TestNewBroker(t *testing.T) {
	deferFunc := func() {
		if r := recover(); r != panicString {
			t.Fail()
		}
	}
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		configuration, _ := getBrokerTestConfiguration()
		assert.NotNil(t, NewBroker(configuration))
	})
	t.Run("EntryRepoNil", func(t *testing.T) {
		t.Parallel()
		defer deferFunc()
		configuration, _ := getBrokerTestConfiguration()
		configuration.EntryRepo = nil
		NewBroker(configuration)
	})
	t.Run("SweeperNil", func(t *testing.T) {
		t.Parallel()
		defer deferFunc()
		configuration, _ := getBrokerTestConfiguration()
		configuration.Sweeper = nil
		NewBroker(configuration)
	})
}

func TestBrokerEnqueue(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	mocked.entryRepo.On("Enqueue", mock.MatchedBy(func(entry *data.QueueEntry) bool {
		return entry.JobType == "send-email" && entry.Status == data.EntryPending
	})).Return(nil)
	// local dispatch races the claim; losing is fine
	mocked.entryRepo.On("Claim", mock.AnythingOfType("*data.QueueEntry"), "test-worker-1", mock.AnythingOfType("time.Duration")).Return(storage.ErrClaimConflict)
	entryID, err := broker.Enqueue("send-email", `{"to": "someone@example.com"}`, nil)
	assert.Nil(t, err)
	assert.NotEmpty(t, entryID)
	event := <-broker.Events()
	assert.Equal(t, queue.EntryEnqueued, event.Type)
	assert.Equal(t, entryID, event.EntryID)
}

func TestBrokerEnqueueValidation(t *testing.T) {
	t.Parallel()
	configuration, _ := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	entryID, err := broker.Enqueue("", "", nil)
	assert.Equal(t, data.ErrInsufficientInformationForCreating, err)
	assert.Empty(t, entryID)
}

func TestBrokerEnqueueDelay(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	before := time.Now()
	mocked.entryRepo.On("Enqueue", mock.MatchedBy(func(entry *data.QueueEntry) bool {
		return entry.VisibleAt.Sub(before) >= time.Hour-time.Second
	})).Return(nil)
	entryID, err := broker.Enqueue("send-email", "payload", &Options{Delay: time.Hour})
	assert.Nil(t, err)
	assert.NotEmpty(t, entryID)
	// delayed entries are not dispatched locally
	mocked.entryRepo.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything, mock.Anything)
}

func TestBrokerEnqueueDedupKey(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	t.Run("FirstSeen", func(t *testing.T) {
		mocked.kvRepo.On("Get", "dk-order-42").Return("", storage.ErrKeyAbsent).Once()
		mocked.entryRepo.On("Enqueue", mock.AnythingOfType("*data.QueueEntry")).Return(nil).Once()
		mocked.kvRepo.On("Put", "dk-order-42", mock.AnythingOfType("string"), 10*time.Minute).Return(nil).Once()
		mocked.entryRepo.On("Claim", mock.AnythingOfType("*data.QueueEntry"), "test-worker-1", mock.AnythingOfType("time.Duration")).Return(storage.ErrClaimConflict)
		entryID, err := broker.Enqueue("send-email", "payload", &Options{DedupKey: "order-42"})
		assert.Nil(t, err)
		assert.NotEmpty(t, entryID)
		mocked.kvRepo.AssertExpectations(t)
	})
	t.Run("AlreadyRemembered", func(t *testing.T) {
		mocked.kvRepo.On("Get", "dk-order-42").Return("existing-entry-id", nil).Once()
		entryID, err := broker.Enqueue("send-email", "payload", &Options{DedupKey: "order-42"})
		assert.Nil(t, err)
		assert.Equal(t, "existing-entry-id", entryID)
	})
}

func TestBrokerEnqueueStoreError(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	expectedErr := errors.New("db gone")
	mocked.entryRepo.On("Enqueue", mock.AnythingOfType("*data.QueueEntry")).Return(expectedErr)
	entryID, err := broker.Enqueue("send-email", "payload", nil)
	assert.Equal(t, expectedErr, err)
	assert.Empty(t, entryID)
}

func TestBrokerRegisterHandler(t *testing.T) {
	t.Parallel()
	configuration, _ := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	assert.Nil(t, broker.RegisterHandler("send-email", queue.HandlerFunc(func(ctx context.Context, job *queue.Job) error {
		return nil
	})))
	assert.Equal(t, queue.ErrHandlerNil, broker.RegisterHandler("send-email", nil))
}

func TestBrokerGetStats(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	mocked.entryRepo.On("GetStatusCounts").Return(map[data.EntryStatus]int64{
		data.EntryPending: 4, data.EntryProcessing: 2, data.EntryCompleted: 10, data.EntryDead: 1}, nil)
	heartbeat, _ := data.NewWorkerHeartbeat("test-worker-1", data.RoleWorker, 0, time.Minute)
	mocked.hbRepo.On("GetLiveWorkers").Return([]*data.WorkerHeartbeat{heartbeat}, nil)
	stats, err := broker.GetStats()
	assert.Nil(t, err)
	assert.Equal(t, int64(4), stats.Pending)
	assert.Equal(t, int64(2), stats.Processing)
	assert.Equal(t, int64(10), stats.Completed)
	assert.Equal(t, int64(1), stats.Dead)
	assert.Equal(t, 1, stats.ActiveWorkers)
	assert.False(t, stats.IsCoordinator)
	assert.Equal(t, "test-worker-1", stats.WorkerID)
}

func TestBrokerGetStatsError(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	mocked.entryRepo.On("GetStatusCounts").Return(nil, errors.New("db gone"))
	stats, err := broker.GetStats()
	assert.Nil(t, stats)
	assert.NotNil(t, err)
}

func TestBrokerStartStop(t *testing.T) {
	t.Parallel()
	configuration, mocked := getBrokerTestConfiguration()
	broker := NewBroker(configuration)
	mocked.entryRepo.On("Poll", 10).Return([]*data.QueueEntry{}, nil)
	mocked.lockRepo.On("TryLock", mock.AnythingOfType("*data.Lock")).Return(storage.ErrLockUnavailable)
	broker.Start()
	// idempotent
	broker.Start()
	broker.Stop()
	broker.Stop()
}
