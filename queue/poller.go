package queue

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/storage/data"
)

const (
	panicString = "parameters null"
)

// EntryPoller drives the claim pipeline of a single process: it surfaces pollable
// entries, runs them through the dedup gate and hands them to the worker pool where the
// conditional claim decides ownership.
type EntryPoller struct {
	entryRepo         storage.QueueEntryRepository
	ticketRepo        storage.TicketRepository
	gate              *DeduplicationGate
	ticketSource      TicketSource
	workerPool        chan chan *Job
	workers           []*Worker
	jobQueue          chan *Job
	jobBuffer         *JobBuffer
	queueConfig       config.QueueConfig
	coordinatorConfig config.CoordinatorConfig
	workerID          string
	stopTimeout       time.Duration
	dispatcherStop    chan bool
	pollerStop        chan bool
	polling           bool
	events            *EventBus
	metrics           *MetricsContainer
}

// Dispatch queues the entry for immediate local processing; entries not currently
// pollable, such as delayed ones, are left for the poll loop to surface later
func (poller *EntryPoller) Dispatch(entry *data.QueueEntry) {
	if entry == nil || !entry.IsInValidState() {
		return
	}
	if entry.IsPollable() {
		queueJob(poller, NewJob(entry))
	}
}

func (poller *EntryPoller) startJobDispatcher() {
	for {
		select {
		case job := <-poller.jobQueue:
			poller.dispatchJob(job)
		case <-poller.dispatcherStop:
			return
		}
	}
}

var (
	queueJob = func(poller *EntryPoller, job *Job) {
		poller.jobQueue <- job
	}

	genericPanicRecoveryFunc = func() {
		if r := recover(); r != nil {
			log.Print("error - had to recover from panic", r)
		}
	}

	claimTicketedEntries = func(poller *EntryPoller) ([]*data.QueueEntry, error) {
		tickets, err := poller.ticketRepo.ListOpen(poller.coordinatorConfig.GetTicketBatchSize())
		if err != nil {
			return nil, err
		}
		entries := make([]*data.QueueEntry, 0, len(tickets))
		for _, ticket := range tickets {
			if claimErr := poller.ticketRepo.Claim(ticket, poller.workerID); claimErr != nil {
				// another worker took the ticket first; nothing lost
				continue
			}
			entry, getErr := poller.entryRepo.GetByID(ticket.EntryID.String())
			if getErr == nil && entry.IsPollable() {
				entries = append(entries, entry)
			}
		}
		return entries, nil
	}

	pollOnce = func(poller *EntryPoller) int {
		defer genericPanicRecoveryFunc()
		var entries []*data.QueueEntry
		var err error
		if poller.ticketSource != nil && poller.ticketSource.IsTicketFlowActive() {
			entries, err = claimTicketedEntries(poller)
		} else {
			entries, err = poller.entryRepo.Poll(poller.queueConfig.GetPollBatchSize())
		}
		if err != nil {
			log.Error().Err(err).Msg("error - could not poll for entries")
			return 0
		}
		count := 0
		for _, entry := range entries {
			if !poller.gate.FirstEncounter(entry) {
				continue
			}
			queueJob(poller, NewJob(entry))
			count++
		}
		return count
	}
)

func (poller *EntryPoller) pollContinuously() {
	interval := poller.queueConfig.GetPollInterval()
	ceiling := poller.queueConfig.GetPollIntervalCeiling()
	for {
		timer := time.After(interval)
		select {
		case <-poller.pollerStop:
			return
		case <-timer:
			if pollOnce(poller) > 0 {
				interval = poller.queueConfig.GetPollInterval()
			} else {
				// nothing to do; back off the poll pressure on the store
				interval *= 2
				if interval > ceiling {
					interval = ceiling
				}
			}
		}
	}
}

// Start begins the poll loop; handlers should be registered before calling it
func (poller *EntryPoller) Start() {
	if poller.polling {
		return
	}
	poller.polling = true
	go poller.pollContinuously()
}

// Stop stops the poll loop, the dispatcher and the workers of the poller
func (poller *EntryPoller) Stop() {
	timeoutContext, cancelFunc := context.WithTimeout(context.Background(), poller.stopTimeout)
	defer cancelFunc()
	select {
	case <-timeoutContext.Done():
		log.Print("warn - poller stop timedout")
		return
	default:
		wg := sync.WaitGroup{}
		wg.Add(1)
		go func() {
			poller.dispatcherStop <- true
			if poller.polling {
				poller.pollerStop <- true
				poller.polling = false
			}
			wg.Done()
		}()
		log.Print("stopping workers", len(poller.workers))
		anyRunning := true
		for i := 0; i < len(poller.workers); i++ {
			wg.Add(1)
			go func(index int) {
				poller.workers[index].Stop()
				wg.Done()
			}(i)
		}
		for anyRunning {
			localRun := false
			for i := 0; i < len(poller.workers); i++ {
				localRun = localRun || poller.workers[i].IsWorking()
			}
			anyRunning = localRun
		}
		wg.Wait()
	}
}

var asyncDequeueToWorker = func(poller *EntryPoller) {
	// try to obtain a worker job channel that is available.
	// this will block until a worker is idle
	jobChannel := <-poller.workerPool

	// dispatch the job to the worker job channel
	jobChannel <- poller.jobBuffer.Dequeue()
	poller.metrics.BufferedJobCount.Dec()
}

func (poller *EntryPoller) dispatchJob(job *Job) {
	poller.jobBuffer.Enqueue(job)
	poller.metrics.BufferedJobCount.Inc()
	// a job request has been received
	go asyncDequeueToWorker(poller)
}

// Configuration represents the configuration for an entry poller
type Configuration struct {
	EntryRepo         storage.QueueEntryRepository
	TicketRepo        storage.TicketRepository
	QueueConfig       config.QueueConfig
	WorkerConfig      config.WorkerConfig
	CoordinatorConfig config.CoordinatorConfig
	Registry          *HandlerRegistry
	Gate              *DeduplicationGate
	Router            DeadLetterRouter
	TicketSource      TicketSource
	EventBus          *EventBus
	MetricsContainer  *MetricsContainer
}

// NewEntryPoller retrieves a new instance of EntryPoller with its worker pool already
// idling; polling begins on Start
func NewEntryPoller(configuration *Configuration) *EntryPoller {
	if configuration.EntryRepo == nil || configuration.TicketRepo == nil || configuration.Registry == nil || configuration.Gate == nil || configuration.Router == nil {
		panic(panicString)
	}
	if configuration.QueueConfig == nil || configuration.WorkerConfig == nil || configuration.CoordinatorConfig == nil || configuration.EventBus == nil || configuration.MetricsContainer == nil {
		panic(panicString)
	}
	workerConfig := configuration.WorkerConfig
	poller := &EntryPoller{entryRepo: configuration.EntryRepo, ticketRepo: configuration.TicketRepo, gate: configuration.Gate,
		ticketSource: configuration.TicketSource, workerPool: make(chan chan *Job, workerConfig.GetMaxWorkers()),
		jobQueue: make(chan *Job, workerConfig.GetJobQueueSize()), jobBuffer: NewJobBuffer(), queueConfig: configuration.QueueConfig,
		coordinatorConfig: configuration.CoordinatorConfig, workerID: workerConfig.GetWorkerID(), dispatcherStop: make(chan bool),
		pollerStop: make(chan bool), events: configuration.EventBus, metrics: configuration.MetricsContainer}
	workers := make([]*Worker, workerConfig.GetMaxWorkers())
	for i := 0; i < len(workers); i++ {
		worker := NewWorker(poller.workerPool, configuration)
		worker.Start()
		workers[i] = &worker
	}
	poller.workers = workers
	poller.stopTimeout = workerConfig.GetStopTimeout()
	go poller.startJobDispatcher()
	return poller
}
