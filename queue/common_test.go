package queue

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/newscred/task-broker/storage/data"
)

type queueConfigMock struct {
	maxAttempts         uint
	visibilityTimeout   time.Duration
	pollBatchSize       int
	pollInterval        time.Duration
	pollIntervalCeiling time.Duration
	backoffBase         time.Duration
	backoffCap          time.Duration
}

func (m *queueConfigMock) GetMaxAttempts() uint                  { return m.maxAttempts }
func (m *queueConfigMock) GetVisibilityTimeout() time.Duration   { return m.visibilityTimeout }
func (m *queueConfigMock) GetPollBatchSize() int                 { return m.pollBatchSize }
func (m *queueConfigMock) GetPollInterval() time.Duration        { return m.pollInterval }
func (m *queueConfigMock) GetPollIntervalCeiling() time.Duration { return m.pollIntervalCeiling }
func (m *queueConfigMock) GetRetryBackoffBase() time.Duration    { return m.backoffBase }
func (m *queueConfigMock) GetRetryBackoffCap() time.Duration     { return m.backoffCap }

func getQueueConfigMock() *queueConfigMock {
	return &queueConfigMock{maxAttempts: 3, visibilityTimeout: 2 * time.Second, pollBatchSize: 10,
		pollInterval: 10 * time.Millisecond, pollIntervalCeiling: 100 * time.Millisecond,
		backoffBase: 5 * time.Second, backoffCap: 300 * time.Second}
}

type workerConfigMock struct {
	workerID     string
	maxWorkers   uint
	jobQueueSize uint
	stopTimeout  time.Duration
}

func (m *workerConfigMock) GetWorkerID() string           { return m.workerID }
func (m *workerConfigMock) GetMaxWorkers() uint           { return m.maxWorkers }
func (m *workerConfigMock) GetJobQueueSize() uint         { return m.jobQueueSize }
func (m *workerConfigMock) GetStopTimeout() time.Duration { return m.stopTimeout }

func getWorkerConfigMock() *workerConfigMock {
	return &workerConfigMock{workerID: "test-worker-1", maxWorkers: 2, jobQueueSize: 10, stopTimeout: 5 * time.Second}
}

type coordinatorConfigMock struct {
	enabled           bool
	heartbeatInterval time.Duration
	heartbeatTTL      time.Duration
	observationWindow time.Duration
	epochTTL          time.Duration
	ticketTTL         time.Duration
	ticketBatchSize   int
	degradeThreshold  time.Duration
}

func (m *coordinatorConfigMock) IsCoordinatorEnabled() bool          { return m.enabled }
func (m *coordinatorConfigMock) GetHeartbeatInterval() time.Duration { return m.heartbeatInterval }
func (m *coordinatorConfigMock) GetHeartbeatTTL() time.Duration      { return m.heartbeatTTL }
func (m *coordinatorConfigMock) GetObservationWindow() time.Duration { return m.observationWindow }
func (m *coordinatorConfigMock) GetEpochTTL() time.Duration          { return m.epochTTL }
func (m *coordinatorConfigMock) GetTicketTTL() time.Duration         { return m.ticketTTL }
func (m *coordinatorConfigMock) GetTicketBatchSize() int             { return m.ticketBatchSize }
func (m *coordinatorConfigMock) GetDegradeThreshold() time.Duration  { return m.degradeThreshold }

func getCoordinatorConfigMock() *coordinatorConfigMock {
	return &coordinatorConfigMock{enabled: true, heartbeatInterval: 5 * time.Second, heartbeatTTL: 15 * time.Second,
		observationWindow: 15 * time.Second, epochTTL: 15 * time.Second, ticketTTL: 30 * time.Second,
		ticketBatchSize: 100, degradeThreshold: 20 * time.Second}
}

type dedupConfigMock struct {
	enabled       bool
	gateLockTTL   time.Duration
	markerTTL     time.Duration
	localCacheTTL time.Duration
}

func (m *dedupConfigMock) IsDeduplicationEnabled() bool    { return m.enabled }
func (m *dedupConfigMock) GetGateLockTTL() time.Duration   { return m.gateLockTTL }
func (m *dedupConfigMock) GetMarkerTTL() time.Duration     { return m.markerTTL }
func (m *dedupConfigMock) GetLocalCacheTTL() time.Duration { return m.localCacheTTL }

func getDedupConfigMock(enabled bool) *dedupConfigMock {
	return &dedupConfigMock{enabled: enabled, gateLockTTL: 5 * time.Second, markerTTL: 10 * time.Minute, localCacheTTL: time.Minute}
}

type routerMock struct {
	mock.Mock
}

func (m *routerMock) Route(entry *data.QueueEntry, cause string) error {
	ret := m.Called(entry, cause)
	return ret.Error(0)
}

type ticketSourceMock struct {
	active bool
}

func (m *ticketSourceMock) IsTicketFlowActive() bool { return m.active }
