package queue

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNoSuchHandler represents the error when no handler is registered for a job type
	ErrNoSuchHandler = errors.New("no handler registered for job type")
	// ErrHandlerNil represents the error when a nil handler is being registered
	ErrHandlerNil = errors.New("handler can not be nil")
	// ErrJobTypeEmpty represents the error when the job type of a registration is empty
	ErrJobTypeEmpty = errors.New("job type can not be empty")
)

// Handler is the contract for processing a claimed queue entry. The context carries a
// deadline matching the visibility timeout; a handler overrunning it is abandoned.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc is an adapter to allow ordinary functions as handlers
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls f(ctx, job)
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// HandlerRegistry maps job types to their handlers; safe for concurrent use
type HandlerRegistry struct {
	handlers map[string]Handler
	mu       sync.RWMutex
}

// Register registers the handler against the job type replacing any previous handler
func (registry *HandlerRegistry) Register(jobType string, handler Handler) error {
	if len(jobType) <= 0 {
		return ErrJobTypeEmpty
	}
	if handler == nil {
		return ErrHandlerNil
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.handlers[jobType] = handler
	return nil
}

// Get retrieves the handler for the job type
func (registry *HandlerRegistry) Get(jobType string) (Handler, error) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	handler, ok := registry.handlers[jobType]
	if !ok {
		return nil, ErrNoSuchHandler
	}
	return handler, nil
}

// NewHandlerRegistry initializes an empty handler registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{handlers: make(map[string]Handler)}
}
