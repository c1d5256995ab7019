package config

import (
	"net/url"
	"time"
)

// DBDialect allows us to define constants for supported DB drivers
type DBDialect string

// LogLevel represents the log level logger should use
type LogLevel uint8

const (
	// MySQLDialect represents the DB Dialect for MySQL
	MySQLDialect DBDialect = "mysql"
	// SQLite3Dialect represents the DB Dialect for SQLite3
	SQLite3Dialect DBDialect = "sqlite3"
	// Debug is the lowest LogLevel
	Debug LogLevel = iota + 1
	// Info is the LogLevel just above Debug
	Info
	// Error is the highest LogLevel, only errors are logged
	Error
	// Fatal is a practically unused LogLevel
	Fatal
)

// RelationalDatabaseConfig represents DB configuration related behaviors
type RelationalDatabaseConfig interface {
	GetDBDialect() DBDialect
	GetDBConnectionURL() string
	GetDBConnectionMaxIdleTime() time.Duration
	GetDBConnectionMaxLifetime() time.Duration
	GetMaxIdleDBConnections() uint16
	GetMaxOpenDBConnections() uint16
}

// HTTPConfig represents the HTTP configuration related behaviors
type HTTPConfig interface {
	GetHTTPListeningAddr() string
	GetHTTPReadTimeout() time.Duration
	GetHTTPWriteTimeout() time.Duration
}

// LogConfig represents the interface for log related configuration
type LogConfig interface {
	GetLogLevel() LogLevel
	IsLoggerConfigAvailable() bool
	GetLogFilename() string
	GetMaxLogFileSize() uint
	GetMaxLogBackups() uint
	GetMaxAgeForALogFile() uint
	IsCompressionEnabledOnLogBackups() bool
}

// QueueConfig provides the entry lifecycle related configuration
type QueueConfig interface {
	// GetMaxAttempts returns the number of attempts after which an entry is dead lettered
	GetMaxAttempts() uint
	// GetVisibilityTimeout returns how long a claimed entry stays hidden from pollers
	GetVisibilityTimeout() time.Duration
	// GetPollBatchSize returns the max pending candidates fetched per poll
	GetPollBatchSize() int
	// GetPollInterval returns the base interval between polls
	GetPollInterval() time.Duration
	// GetPollIntervalCeiling returns the adaptive backoff ceiling for empty polls
	GetPollIntervalCeiling() time.Duration
	// GetRetryBackoffBase returns the base delay of the exponential retry backoff
	GetRetryBackoffBase() time.Duration
	// GetRetryBackoffCap returns the maximum delay of the exponential retry backoff
	GetRetryBackoffCap() time.Duration
}

// WorkerConfig provides worker process identity and concurrency configuration
type WorkerConfig interface {
	GetWorkerID() string
	GetMaxWorkers() uint
	GetJobQueueSize() uint
	GetStopTimeout() time.Duration
}

// DeduplicationConfig provides the pre-claim dedup gate configuration
type DeduplicationConfig interface {
	IsDeduplicationEnabled() bool
	GetGateLockTTL() time.Duration
	GetMarkerTTL() time.Duration
	GetLocalCacheTTL() time.Duration
}

// CoordinatorConfig provides election and ticket dispatch configuration
type CoordinatorConfig interface {
	IsCoordinatorEnabled() bool
	GetHeartbeatInterval() time.Duration
	GetHeartbeatTTL() time.Duration
	// GetObservationWindow returns the cold start window to wait before any election
	GetObservationWindow() time.Duration
	GetEpochTTL() time.Duration
	GetTicketTTL() time.Duration
	GetTicketBatchSize() int
	// GetDegradeThreshold returns how long without a live coordinator heartbeat before
	// workers fall back to direct polling
	GetDegradeThreshold() time.Duration
}

// SweeperConfig provides the recovery sweeper configuration
type SweeperConfig interface {
	GetSweepInterval() time.Duration
	GetSweepBatchSize() int
}

// DeadLetterConfig provides the interface for configuring dead letter archival
type DeadLetterConfig interface {
	// IsArchiveEnabled returns true if dead lettered entries should also be exported
	IsArchiveEnabled() bool
	// GetExportPath returns the local filesystem path where dead entries are exported
	GetExportPath() string
	// GetExportNodeName returns a prefix to be added to the exported file name
	GetExportNodeName() string
	// GetRemoteExportURL returns the root URL for the remote export destination if any
	GetRemoteExportURL() *url.URL
	// GetRemoteFilePrefix returns the prefix for the exported object name
	GetRemoteFilePrefix() string
	// GetMaxArchiveFileSizeInMB returns the max size of an export file before rotation
	GetMaxArchiveFileSizeInMB() uint
}
