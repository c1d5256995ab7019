package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/storage"
)

const (
	outcomeCompleted = "completed"
	outcomeRetry     = "retry"
	outcomeDead      = "dead"
	outcomeAbandoned = "abandoned"
	outcomeConflict  = "conflict"
)

// Worker represents the worker that claims and processes entries
type Worker struct {
	workerPool  chan chan *Job
	jobChannel  chan *Job
	quit        chan bool
	working     bool
	entryRepo   storage.QueueEntryRepository
	registry    *HandlerRegistry
	router      DeadLetterRouter
	queueConfig config.QueueConfig
	workerID    string
	backoff     BackoffPolicy
	events      *EventBus
	metrics     *MetricsContainer
}

// NewWorker creates a Worker
func NewWorker(workerPool chan chan *Job, configuration *Configuration) Worker {
	return Worker{
		workerPool:  workerPool,
		jobChannel:  make(chan *Job, 1),
		quit:        make(chan bool, 1),
		working:     false,
		entryRepo:   configuration.EntryRepo,
		registry:    configuration.Registry,
		router:      configuration.Router,
		queueConfig: configuration.QueueConfig,
		workerID:    configuration.WorkerConfig.GetWorkerID(),
		backoff:     BackoffPolicy{Base: configuration.QueueConfig.GetRetryBackoffBase(), Cap: configuration.QueueConfig.GetRetryBackoffCap()},
		events:      configuration.EventBus,
		metrics:     configuration.MetricsContainer}
}

var processJob = func(w *Worker, job *Job) {
	log.Debug().Msg("processing entry in worker " + job.Data.ID.String())
	// Win the claim first; a conflict means another worker already owns this version
	// and the loser must leave no trace behind.
	err := w.entryRepo.Claim(job.Data, w.workerID, w.queueConfig.GetVisibilityTimeout())
	if err == storage.ErrClaimConflict {
		w.metrics.ClaimConflictCount.Inc()
		w.metrics.ProcessedJobCount.WithLabelValues(job.Data.JobType, outcomeConflict).Inc()
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("err - could not claim entry " + job.Data.ID.String())
		return
	}
	job.ClaimedAt = time.Now()
	w.events.Notify(Event{Type: EntryClaimed, EntryID: job.Data.ID.String(), JobType: job.Data.JobType, WorkerID: w.workerID, Attempt: job.Data.Attempts})
	if job.Data.Attempts > w.queueConfig.GetMaxAttempts() {
		// The retry budget is spent; this claim only moves the entry out of the queue
		// with the last recorded failure as the cause.
		if routeErr := w.router.Route(job.Data, job.Data.LastError); routeErr == nil {
			w.metrics.ProcessedJobCount.WithLabelValues(job.Data.JobType, outcomeDead).Inc()
			w.events.Notify(Event{Type: EntryDead, EntryID: job.Data.ID.String(), JobType: job.Data.JobType, WorkerID: w.workerID, Attempt: job.Data.Attempts})
		} else {
			log.Error().Err(routeErr).Msg("err - could not dead letter entry " + job.Data.ID.String())
		}
		return
	}
	err = w.executeJob(job)
	if err == errDeadlineExceeded {
		// The claim lapses on its own and the sweeper returns the entry to pending;
		// writing any state here would race the recovery.
		w.metrics.ProcessedJobCount.WithLabelValues(job.Data.JobType, outcomeAbandoned).Inc()
		return
	}
	if err == nil {
		duration := time.Since(job.ClaimedAt)
		log.Debug().Msg("completed entry " + job.Data.ID.String())
		if err = w.entryRepo.Complete(job.Data); err == nil {
			w.metrics.ProcessedJobCount.WithLabelValues(job.Data.JobType, outcomeCompleted).Inc()
			w.metrics.ProcessingDuration.Observe(duration.Seconds())
			w.events.Notify(Event{Type: EntryCompleted, EntryID: job.Data.ID.String(), JobType: job.Data.JobType, WorkerID: w.workerID, Duration: duration})
		} else {
			log.Error().Err(err).Msg("err - could not complete entry " + job.Data.ID.String())
		}
		return
	}
	failedAttempts := job.Data.Attempts
	if failedAttempts > 0 {
		failedAttempts--
	}
	nextVisibleAt := time.Now().Add(w.backoff.Delay(failedAttempts))
	log.Debug().Msg("schedule for retry entry " + job.Data.ID.String())
	if err = w.entryRepo.Retry(job.Data, err.Error(), nextVisibleAt); err == nil {
		w.metrics.ProcessedJobCount.WithLabelValues(job.Data.JobType, outcomeRetry).Inc()
		w.events.Notify(Event{Type: EntryRetry, EntryID: job.Data.ID.String(), JobType: job.Data.JobType, WorkerID: w.workerID, Attempt: job.Data.Attempts, NextVisibleAt: nextVisibleAt})
	} else {
		log.Error().Err(err).Msg("err - could not schedule retry for entry " + job.Data.ID.String())
	}
}

// Start method starts the run loop for the worker, listening for a quit channel in
// case we need to stop it
func (w *Worker) Start() {
	go func() {
		w.working = true
		for {
			// register the current worker into the worker queue.
			w.workerPool <- w.jobChannel

			select {
			case job := <-w.jobChannel:
				processJob(w, job)
			case <-w.quit:
				// we have received a signal to stop
				w.working = false
				return
			}
		}
	}()
}

var errDeadlineExceeded = context.DeadlineExceeded

func (w *Worker) executeJob(job *Job) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), w.queueConfig.GetVisibilityTimeout())
	defer cancel()
	var handler Handler
	handler, err = w.registry.Get(job.Data.JobType)
	if err != nil {
		return err
	}
	w.events.Notify(Event{Type: EntryProcessing, EntryID: job.Data.ID.String(), JobType: job.Data.JobType, WorkerID: w.workerID, Attempt: job.Data.Attempts})
	done := make(chan error, 1)
	go func() {
		// Do not let the worker crash due to any panic in a handler
		defer func() {
			if r := recover(); r != nil {
				log.Error().Msg(fmt.Sprint("error - panic in processing entry -", job.Data.ID, r))
				done <- fmt.Errorf("handler panic: %v", r)
			}
		}()
		done <- handler.Handle(ctx, job)
	}()
	select {
	case err = <-done:
	case <-ctx.Done():
		log.Error().Msg("error - handler overran visibility timeout for entry " + job.Data.ID.String())
		err = errDeadlineExceeded
	}
	if err != nil && err != errDeadlineExceeded {
		log.Error().Err(err).Msg("error - handler failed for entry " + job.Data.ID.String())
	}
	return err
}

// IsWorking retrieves whether the work is active
func (w *Worker) IsWorking() bool {
	return w.working
}

// Stop signals the worker to stop listening for work requests.
func (w *Worker) Stop() {
	go func() {
		w.quit <- true
	}()
}
