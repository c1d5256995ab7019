package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
	storagemocks "github.com/newscred/task-broker/storage/mocks"
)

func getPollerTestConfiguration(entryRepo *storagemocks.QueueEntryRepository, ticketRepo *storagemocks.TicketRepository, source TicketSource) *Configuration {
	return &Configuration{
		EntryRepo:         entryRepo,
		TicketRepo:        ticketRepo,
		QueueConfig:       getQueueConfigMock(),
		WorkerConfig:      getWorkerConfigMock(),
		CoordinatorConfig: getCoordinatorConfigMock(),
		Registry:          NewHandlerRegistry(),
		Gate:              NewDeduplicationGate(getDedupConfigMock(false), getWorkerConfigMock(), new(storagemocks.LockRepository), new(storagemocks.KeyValueRepository)),
		Router:            new(routerMock),
		TicketSource:      source,
		EventBus:          NewEventBus(getWorkerConfigMock()),
		MetricsContainer:  NewMetricsContainer(),
	}
}

func TestNewEntryPoller(t *testing.T) {
	deferFunc := func() {
		if r := recover(); r != panicString {
			t.Fail()
		}
	}
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		configuration := getPollerTestConfiguration(new(storagemocks.QueueEntryRepository), new(storagemocks.TicketRepository), &ticketSourceMock{})
		poller := NewEntryPoller(configuration)
		assert.NotNil(t, poller)
		poller.Stop()
	})
	t.Run("EntryRepoNil", func(t *testing.T) {
		t.Parallel()
		defer deferFunc()
		configuration := getPollerTestConfiguration(new(storagemocks.QueueEntryRepository), new(storagemocks.TicketRepository), &ticketSourceMock{})
		configuration.EntryRepo = nil
		NewEntryPoller(configuration)
	})
	t.Run("RegistryNil", func(t *testing.T) {
		t.Parallel()
		defer deferFunc()
		configuration := getPollerTestConfiguration(new(storagemocks.QueueEntryRepository), new(storagemocks.TicketRepository), &ticketSourceMock{})
		configuration.Registry = nil
		NewEntryPoller(configuration)
	})
	t.Run("QueueConfigNil", func(t *testing.T) {
		t.Parallel()
		defer deferFunc()
		configuration := getPollerTestConfiguration(new(storagemocks.QueueEntryRepository), new(storagemocks.TicketRepository), &ticketSourceMock{})
		configuration.QueueConfig = nil
		NewEntryPoller(configuration)
	})
}

func TestPollOnceDirect(t *testing.T) {
	t.Parallel()
	entryRepo := new(storagemocks.QueueEntryRepository)
	ticketRepo := new(storagemocks.TicketRepository)
	configuration := getPollerTestConfiguration(entryRepo, ticketRepo, &ticketSourceMock{active: false})
	poller := NewEntryPoller(configuration)
	defer poller.Stop()
	first, _ := data.NewQueueEntry("send-email", "payload-1")
	second, _ := data.NewQueueEntry("send-email", "payload-2")
	entryRepo.On("Poll", 10).Return([]*data.QueueEntry{first, second}, nil)
	// losers of the conditional claim leave no trace
	entryRepo.On("Claim", mock.AnythingOfType("*data.QueueEntry"), "test-worker-1", mock.AnythingOfType("time.Duration")).Return(storage.ErrClaimConflict)
	assert.Equal(t, 2, pollOnce(poller))
	ticketRepo.AssertNotCalled(t, "ListOpen", mock.Anything)
}

func TestPollOnceTickets(t *testing.T) {
	t.Parallel()
	entryRepo := new(storagemocks.QueueEntryRepository)
	ticketRepo := new(storagemocks.TicketRepository)
	configuration := getPollerTestConfiguration(entryRepo, ticketRepo, &ticketSourceMock{active: true})
	poller := NewEntryPoller(configuration)
	defer poller.Stop()
	first, _ := data.NewQueueEntry("send-email", "payload-1")
	second, _ := data.NewQueueEntry("send-email", "payload-2")
	firstTicket, _ := data.NewTicket(first, time.Minute)
	secondTicket, _ := data.NewTicket(second, time.Minute)
	ticketRepo.On("ListOpen", 100).Return([]*data.Ticket{firstTicket, secondTicket}, nil)
	ticketRepo.On("Claim", firstTicket, "test-worker-1").Return(nil)
	ticketRepo.On("Claim", secondTicket, "test-worker-1").Return(storage.ErrTicketClaimed)
	entryRepo.On("GetByID", first.ID.String()).Return(first, nil)
	entryRepo.On("Claim", mock.AnythingOfType("*data.QueueEntry"), "test-worker-1", mock.AnythingOfType("time.Duration")).Return(storage.ErrClaimConflict)
	assert.Equal(t, 1, pollOnce(poller))
	entryRepo.AssertNotCalled(t, "Poll", mock.Anything)
	entryRepo.AssertNotCalled(t, "GetByID", second.ID.String())
}

func TestPollOncePollError(t *testing.T) {
	t.Parallel()
	entryRepo := new(storagemocks.QueueEntryRepository)
	ticketRepo := new(storagemocks.TicketRepository)
	configuration := getPollerTestConfiguration(entryRepo, ticketRepo, &ticketSourceMock{active: false})
	poller := NewEntryPoller(configuration)
	defer poller.Stop()
	entryRepo.On("Poll", 10).Return(nil, errors.New("db gone"))
	assert.Equal(t, 0, pollOnce(poller))
}

func TestEntryPollerDispatch(t *testing.T) {
	t.Parallel()
	entryRepo := new(storagemocks.QueueEntryRepository)
	ticketRepo := new(storagemocks.TicketRepository)
	configuration := getPollerTestConfiguration(entryRepo, ticketRepo, &ticketSourceMock{})
	poller := NewEntryPoller(configuration)
	defer poller.Stop()
	poller.Dispatch(nil)
	delayed, _ := data.NewQueueEntry("send-email", "payload")
	delayed.VisibleAt = time.Now().Add(time.Hour)
	poller.Dispatch(delayed)
	entry, _ := data.NewQueueEntry("send-email", "payload")
	claimed := make(chan bool, 1)
	entryRepo.On("Claim", entry, "test-worker-1", mock.AnythingOfType("time.Duration")).Run(func(args mock.Arguments) {
		claimed <- true
	}).Return(storage.ErrClaimConflict)
	poller.Dispatch(entry)
	select {
	case <-claimed:
	case <-time.After(time.Second):
		t.Fatal("dispatched entry never reached a worker")
	}
	entryRepo.AssertNumberOfCalls(t, "Claim", 1)
}

func TestEntryPollerStartStop(t *testing.T) {
	t.Parallel()
	entryRepo := new(storagemocks.QueueEntryRepository)
	ticketRepo := new(storagemocks.TicketRepository)
	configuration := getPollerTestConfiguration(entryRepo, ticketRepo, &ticketSourceMock{})
	poller := NewEntryPoller(configuration)
	polled := make(chan bool, 100)
	entryRepo.On("Poll", 10).Run(func(args mock.Arguments) {
		polled <- true
	}).Return([]*data.QueueEntry{}, nil)
	poller.Start()
	// idempotent
	poller.Start()
	select {
	case <-polled:
	case <-time.After(time.Second):
		t.Fatal("poll loop never ran")
	}
	poller.Stop()
}
