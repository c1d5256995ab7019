package queue

import (
	"time"

	"github.com/newscred/task-broker/config"
)

// EventType represents the kind of lifecycle event emitted by the broker
type EventType int

const (
	// EntryEnqueued is emitted when a new entry is accepted
	EntryEnqueued EventType = iota + 2000
	// EntryClaimed is emitted when a worker wins the conditional claim
	EntryClaimed
	// EntryProcessing is emitted when the handler starts executing
	EntryProcessing
	// EntryCompleted is emitted on handler success; carries the processing duration
	EntryCompleted
	// EntryRetry is emitted when a failed entry is returned to pending with backoff
	EntryRetry
	// EntryDead is emitted when an entry is routed to the dead letter collection
	EntryDead
	// CoordinatorElected is emitted when this process wins a leadership election
	CoordinatorElected
	// CoordinatorDemoted is emitted when this process loses or cedes leadership
	CoordinatorDemoted
	// RecoveryRun is emitted after a sweep cycle; carries how many entries were recovered
	RecoveryRun
)

// Event is a single lifecycle notification. Only the fields relevant to the type are set.
type Event struct {
	Type           EventType
	EntryID        string
	JobType        string
	WorkerID       string
	Attempt        uint
	NextVisibleAt  time.Time
	Duration       time.Duration
	RecoveredCount int
	Epoch          uint64
	OccurredAt     time.Time
}

// EventBus fans lifecycle events out to a single buffered listener channel. Emission
// never blocks; events are dropped when the buffer is full since no consumer may be
// listening at all.
type EventBus struct {
	events chan Event
}

// Notify emits the event without blocking
func (bus *EventBus) Notify(event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	select {
	case bus.events <- event:
	default:
	}
}

// Listen retrieves the receive side of the event buffer
func (bus *EventBus) Listen() <-chan Event {
	return bus.events
}

// NewEventBus initializes an event bus buffering up to the worker configuration's job
// queue size
func NewEventBus(workerConfig config.WorkerConfig) *EventBus {
	return &EventBus{events: make(chan Event, workerConfig.GetJobQueueSize())}
}
