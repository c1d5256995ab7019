package queue

import (
	"time"

	"github.com/google/wire"
	"github.com/newscred/task-broker/storage/data"
)

var (
	// PollerInjector is the injector for the queue module
	PollerInjector = wire.NewSet(NewEntryPoller, NewHandlerRegistry, NewDeduplicationGate, NewEventBus,
		wire.Struct(new(Configuration), "EntryRepo", "TicketRepo", "QueueConfig", "WorkerConfig", "CoordinatorConfig", "Registry", "Gate", "Router", "TicketSource", "EventBus", "MetricsContainer"))
)

// Job represents a claimed-or-claimable queue entry travelling through the worker pool
type Job struct {
	Data      *data.QueueEntry
	ClaimedAt time.Time
}

// NewJob returns a new instance of Job. Only call this method if entry.IsInValidState() is true, else can result a panic
func NewJob(entry *data.QueueEntry) *Job {
	return &Job{Data: entry}
}

// DeadLetterRouter is the contract for routing an exhausted entry out of the queue
type DeadLetterRouter interface {
	Route(entry *data.QueueEntry, cause string) error
}

// TicketSource is the contract the poller uses to decide between ticket driven and
// direct polling
type TicketSource interface {
	IsTicketFlowActive() bool
}
