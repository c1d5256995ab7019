package config

import (
	"net/url"
	"os"
	"os/user"
	"time"

	"github.com/go-ini/ini"
	"github.com/rs/xid"
)

// AppVersion is the version string type
type AppVersion string

// GetVersion provides the current version of the project
func GetVersion() AppVersion {
	return "0.1-dev"
}

const (
	// ConfigFilename is the default config file name
	ConfigFilename = "task-broker.cfg"
	// DefaultSystemConfigFilePath is the default system location of the configuration
	DefaultSystemConfigFilePath = "/etc/task-broker/" + ConfigFilename
	// DefaultCurrentDirConfigFilePath is the config file path based on current working dir
	DefaultCurrentDirConfigFilePath = ConfigFilename
)

var (
	// EmptyConfigurationForError Represents the configuration instance to be
	// used when there is a configuration error during load
	EmptyConfigurationForError = &Config{}

	defaultLoadFunc = func(configFilePath string) (*ini.File, error) {
		if len(configFilePath) > 0 {
			return ini.LooseLoad([]byte(DefaultConfiguration), DefaultSystemConfigFilePath, getUserHomeDirBasedDefaultConfigFileLocation(), DefaultCurrentDirConfigFilePath, configFilePath)
		}
		return ini.LooseLoad([]byte(DefaultConfiguration), DefaultSystemConfigFilePath, getUserHomeDirBasedDefaultConfigFileLocation(), DefaultCurrentDirConfigFilePath)
	}
	loadConfiguration = defaultLoadFunc

	getHostname = os.Hostname
)

var currentUser = user.Current

func getUserHomeDirBasedDefaultConfigFileLocation() string {
	user, err := currentUser()
	if err != nil {
		return DefaultCurrentDirConfigFilePath
	}
	return user.HomeDir + "/.task-broker/" + ConfigFilename
}

// Config represents the application configuration
type Config struct {
	dbDialect               DBDialect
	dbConnectionURL         string
	dbConnectionMaxIdleTime time.Duration
	dbConnectionMaxLifetime time.Duration
	dbMaxIdleConnections    uint16
	dbMaxOpenConnections    uint16
	httpListeningAddr       string
	httpReadTimeout         time.Duration
	httpWriteTimeout        time.Duration
	logFilename             string
	maxFileSize             uint
	maxBackups              uint
	maxAge                  uint
	compressBackupsEnabled  bool
	logLevel                LogLevel
	maxAttempts             uint
	visibilityTimeout       time.Duration
	pollBatchSize           int
	pollInterval            time.Duration
	pollIntervalCeiling     time.Duration
	retryBackoffBase        time.Duration
	retryBackoffCap         time.Duration
	workerID                string
	maxWorkers              uint
	jobQueueSize            uint
	stopTimeout             time.Duration
	dedupEnabled            bool
	gateLockTTL             time.Duration
	markerTTL               time.Duration
	localCacheTTL           time.Duration
	coordinatorEnabled      bool
	heartbeatInterval       time.Duration
	heartbeatTTL            time.Duration
	observationWindow       time.Duration
	epochTTL                time.Duration
	ticketTTL               time.Duration
	ticketBatchSize         int
	degradeThreshold        time.Duration
	sweepInterval           time.Duration
	sweepBatchSize          int
	archiveEnabled          bool
	exportPath              string
	exportNodeName          string
	remoteExportURL         *url.URL
	remoteFilePrefix        string
	maxArchiveFileSizeInMB  uint
}

// GetDBDialect returns the DB dialect of the configuration
func (config *Config) GetDBDialect() DBDialect {
	return config.dbDialect
}

// GetDBConnectionURL returns the DB Connection URL string
func (config *Config) GetDBConnectionURL() string {
	return config.dbConnectionURL
}

// GetDBConnectionMaxIdleTime returns the DB Connection max idle time
func (config *Config) GetDBConnectionMaxIdleTime() time.Duration {
	return config.dbConnectionMaxIdleTime
}

// GetDBConnectionMaxLifetime returns the DB Connection max lifetime
func (config *Config) GetDBConnectionMaxLifetime() time.Duration {
	return config.dbConnectionMaxLifetime
}

// GetMaxIdleDBConnections returns the maximum number of idle DB connections to retain in pool
func (config *Config) GetMaxIdleDBConnections() uint16 {
	return config.dbMaxIdleConnections
}

// GetMaxOpenDBConnections returns the maximum number of concurrent DB connections to keep open
func (config *Config) GetMaxOpenDBConnections() uint16 {
	return config.dbMaxOpenConnections
}

// GetHTTPListeningAddr retrieves the connection string to listen to
func (config *Config) GetHTTPListeningAddr() string {
	return config.httpListeningAddr
}

// GetHTTPReadTimeout retrieves the connection read timeout
func (config *Config) GetHTTPReadTimeout() time.Duration {
	return config.httpReadTimeout
}

// GetHTTPWriteTimeout retrieves the connection write timeout
func (config *Config) GetHTTPWriteTimeout() time.Duration {
	return config.httpWriteTimeout
}

// GetLogLevel retrieves the log level to use for logging
func (config *Config) GetLogLevel() LogLevel {
	return config.logLevel
}

// IsLoggerConfigAvailable checks is logger configuration is set since its optional
func (config *Config) IsLoggerConfigAvailable() bool {
	return len(config.logFilename) > 0
}

// GetLogFilename retrieves the file name of the log
func (config *Config) GetLogFilename() string {
	return config.logFilename
}

// GetMaxLogFileSize retrieves the max log file size before its rotated in MB
func (config *Config) GetMaxLogFileSize() uint {
	return config.maxFileSize
}

// GetMaxLogBackups retrieves max rotated logs to retain
func (config *Config) GetMaxLogBackups() uint {
	return config.maxBackups
}

// GetMaxAgeForALogFile retrieves maximum day to retain a rotated log file
func (config *Config) GetMaxAgeForALogFile() uint {
	return config.maxAge
}

// IsCompressionEnabledOnLogBackups checks if log backups are compressed
func (config *Config) IsCompressionEnabledOnLogBackups() bool {
	return config.compressBackupsEnabled
}

// GetMaxAttempts returns the number of attempts after which an entry is dead lettered
func (config *Config) GetMaxAttempts() uint {
	return config.maxAttempts
}

// GetVisibilityTimeout returns how long a claimed entry stays hidden from pollers
func (config *Config) GetVisibilityTimeout() time.Duration {
	return config.visibilityTimeout
}

// GetPollBatchSize returns the max pending candidates fetched per poll
func (config *Config) GetPollBatchSize() int {
	return config.pollBatchSize
}

// GetPollInterval returns the base interval between polls
func (config *Config) GetPollInterval() time.Duration {
	return config.pollInterval
}

// GetPollIntervalCeiling returns the adaptive backoff ceiling for empty polls
func (config *Config) GetPollIntervalCeiling() time.Duration {
	return config.pollIntervalCeiling
}

// GetRetryBackoffBase returns the base delay of the exponential retry backoff
func (config *Config) GetRetryBackoffBase() time.Duration {
	return config.retryBackoffBase
}

// GetRetryBackoffCap returns the maximum delay of the exponential retry backoff
func (config *Config) GetRetryBackoffCap() time.Duration {
	return config.retryBackoffCap
}

// GetWorkerID retrieves the unique identity of this worker process
func (config *Config) GetWorkerID() string {
	return config.workerID
}

// GetMaxWorkers retrieves the concurrency bound for in-flight handlers per process
func (config *Config) GetMaxWorkers() uint {
	return config.maxWorkers
}

// GetJobQueueSize retrieves the in-process job channel buffer size
func (config *Config) GetJobQueueSize() uint {
	return config.jobQueueSize
}

// GetStopTimeout retrieves the bounded wait for active handlers during shutdown
func (config *Config) GetStopTimeout() time.Duration {
	return config.stopTimeout
}

// IsDeduplicationEnabled checks whether the pre-claim dedup gate is on
func (config *Config) IsDeduplicationEnabled() bool {
	return config.dedupEnabled
}

// GetGateLockTTL retrieves the TTL of the short lived dedup gate lock
func (config *Config) GetGateLockTTL() time.Duration {
	return config.gateLockTTL
}

// GetMarkerTTL retrieves the TTL of the shared seen marker
func (config *Config) GetMarkerTTL() time.Duration {
	return config.markerTTL
}

// GetLocalCacheTTL retrieves the TTL of the local seen cache
func (config *Config) GetLocalCacheTTL() time.Duration {
	return config.localCacheTTL
}

// IsCoordinatorEnabled checks whether coordinator election and tickets are on
func (config *Config) IsCoordinatorEnabled() bool {
	return config.coordinatorEnabled
}

// GetHeartbeatInterval retrieves the interval between heartbeat publications
func (config *Config) GetHeartbeatInterval() time.Duration {
	return config.heartbeatInterval
}

// GetHeartbeatTTL retrieves the TTL of a published heartbeat
func (config *Config) GetHeartbeatTTL() time.Duration {
	return config.heartbeatTTL
}

// GetObservationWindow retrieves the cold start window to wait before any election
func (config *Config) GetObservationWindow() time.Duration {
	return config.observationWindow
}

// GetEpochTTL retrieves the TTL the leader must refresh its epoch within
func (config *Config) GetEpochTTL() time.Duration {
	return config.epochTTL
}

// GetTicketTTL retrieves the TTL of published tickets
func (config *Config) GetTicketTTL() time.Duration {
	return config.ticketTTL
}

// GetTicketBatchSize retrieves how many pending entries the leader scans per run
func (config *Config) GetTicketBatchSize() int {
	return config.ticketBatchSize
}

// GetDegradeThreshold retrieves how long without a live coordinator heartbeat before
// workers fall back to direct polling
func (config *Config) GetDegradeThreshold() time.Duration {
	return config.degradeThreshold
}

// GetSweepInterval retrieves the interval between recovery sweeps
func (config *Config) GetSweepInterval() time.Duration {
	return config.sweepInterval
}

// GetSweepBatchSize retrieves the bounded batch size of a recovery sweep
func (config *Config) GetSweepBatchSize() int {
	return config.sweepBatchSize
}

// IsArchiveEnabled returns true if dead lettered entries should also be exported
func (config *Config) IsArchiveEnabled() bool {
	return config.archiveEnabled
}

// GetExportPath returns the local filesystem path where dead entries are exported
func (config *Config) GetExportPath() string {
	return config.exportPath
}

// GetExportNodeName returns a prefix to be added to the exported file name
func (config *Config) GetExportNodeName() string {
	return config.exportNodeName
}

// GetRemoteExportURL returns the root URL for the remote export destination if any
func (config *Config) GetRemoteExportURL() *url.URL {
	return config.remoteExportURL
}

// GetRemoteFilePrefix returns the prefix for the exported object name
func (config *Config) GetRemoteFilePrefix() string {
	return config.remoteFilePrefix
}

// GetMaxArchiveFileSizeInMB returns the max size of an export file before rotation
func (config *Config) GetMaxArchiveFileSizeInMB() uint {
	return config.maxArchiveFileSizeInMB
}

// GetAutoConfiguration gets configuration from default config and system defined path chain of
// /etc/task-broker/task-broker.cfg, {USER_HOME}/.task-broker/task-broker.cfg, task-broker.cfg (current dir)
func GetAutoConfiguration() (*Config, error) {
	return GetConfiguration("")
}

// GetConfiguration gets the current state of application configuration
func GetConfiguration(configFilePath string) (*Config, error) {
	configuration := &Config{}
	cfg, err := loadConfiguration(configFilePath)
	if err != nil {
		return EmptyConfigurationForError, err
	}
	setupStorageConfiguration(cfg, configuration)
	setupHTTPConfiguration(cfg, configuration)
	setupLogConfiguration(cfg, configuration)
	setupQueueConfiguration(cfg, configuration)
	setupWorkerConfiguration(cfg, configuration)
	setupDedupConfiguration(cfg, configuration)
	setupCoordinatorConfiguration(cfg, configuration)
	setupSweeperConfiguration(cfg, configuration)
	setupDeadLetterConfiguration(cfg, configuration)
	return configuration, nil
}

func setupStorageConfiguration(cfg *ini.File, configuration *Config) {
	dbSection, _ := cfg.GetSection("rdbms")
	dbDialect, _ := dbSection.GetKey("dialect")
	dbConnection, _ := dbSection.GetKey("connection-url")
	dbMaxIdleTimeInSec, _ := dbSection.GetKey("connxn-max-idle-time-seconds")
	dbMaxLifetimeInSec, _ := dbSection.GetKey("connxn-max-lifetime-seconds")
	dbMaxIdleConnections, _ := dbSection.GetKey("max-idle-connxns")
	dbMaxOpenConnections, _ := dbSection.GetKey("max-open-connxns")
	configuration.dbDialect = DBDialect(dbDialect.String())
	configuration.dbConnectionURL = dbConnection.String()
	configuration.dbConnectionMaxIdleTime = time.Duration(dbMaxIdleTimeInSec.MustUint(0)) * time.Second
	configuration.dbConnectionMaxLifetime = time.Duration(dbMaxLifetimeInSec.MustUint(0)) * time.Second
	configuration.dbMaxIdleConnections = uint16(dbMaxIdleConnections.MustUint(10))
	configuration.dbMaxOpenConnections = uint16(dbMaxOpenConnections.MustUint(50))
}

func setupHTTPConfiguration(cfg *ini.File, configuration *Config) {
	httpSection, _ := cfg.GetSection("http")
	httpListener, _ := httpSection.GetKey("listener")
	httpReadTimeout, _ := httpSection.GetKey("read-timeout")
	httpWriteTimeout, _ := httpSection.GetKey("write-timeout")
	configuration.httpListeningAddr = httpListener.String()
	configuration.httpReadTimeout = time.Duration(httpReadTimeout.MustUint(180)) * time.Second
	configuration.httpWriteTimeout = time.Duration(httpWriteTimeout.MustUint(180)) * time.Second
}

func setupLogConfiguration(cfg *ini.File, configuration *Config) {
	logSection, _ := cfg.GetSection("log")
	logFilenameKey, _ := logSection.GetKey("filename")
	maxFileSizeKey, _ := logSection.GetKey("max-file-size-in-mb")
	maxBackupsKey, _ := logSection.GetKey("max-backups")
	maxAgeKey, _ := logSection.GetKey("max-age-in-days")
	compressEnabledKey, _ := logSection.GetKey("compress-backups")
	logLevelKey, _ := logSection.GetKey("log-level")
	configuration.logFilename = logFilenameKey.String()
	configuration.maxFileSize = maxFileSizeKey.MustUint(50)
	configuration.maxBackups = maxBackupsKey.MustUint(1)
	configuration.maxAge = maxAgeKey.MustUint(30)
	configuration.compressBackupsEnabled = compressEnabledKey.MustBool(false)
	switch logLevelKey.MustString("info") {
	case "debug":
		configuration.logLevel = Debug
	case "error":
		configuration.logLevel = Error
	case "fatal":
		configuration.logLevel = Fatal
	default:
		configuration.logLevel = Info
	}
}

func setupQueueConfiguration(cfg *ini.File, configuration *Config) {
	queueSection, _ := cfg.GetSection("queue")
	maxAttemptsKey, _ := queueSection.GetKey("max-attempts")
	visibilityTimeoutKey, _ := queueSection.GetKey("visibility-timeout-seconds")
	pollBatchSizeKey, _ := queueSection.GetKey("poll-batch-size")
	pollIntervalKey, _ := queueSection.GetKey("poll-interval-millis")
	pollCeilingKey, _ := queueSection.GetKey("poll-interval-ceiling-millis")
	backoffBaseKey, _ := queueSection.GetKey("retry-backoff-base-seconds")
	backoffCapKey, _ := queueSection.GetKey("retry-backoff-cap-seconds")
	configuration.maxAttempts = maxAttemptsKey.MustUint(5)
	configuration.visibilityTimeout = time.Duration(visibilityTimeoutKey.MustUint(300)) * time.Second
	configuration.pollBatchSize = int(pollBatchSizeKey.MustUint(25))
	configuration.pollInterval = time.Duration(pollIntervalKey.MustUint(500)) * time.Millisecond
	configuration.pollIntervalCeiling = time.Duration(pollCeilingKey.MustUint(10000)) * time.Millisecond
	configuration.retryBackoffBase = time.Duration(backoffBaseKey.MustUint(5)) * time.Second
	configuration.retryBackoffCap = time.Duration(backoffCapKey.MustUint(300)) * time.Second
}

func setupWorkerConfiguration(cfg *ini.File, configuration *Config) {
	workerSection, _ := cfg.GetSection("worker")
	workerIDKey, _ := workerSection.GetKey("worker-id")
	maxWorkersKey, _ := workerSection.GetKey("max-workers")
	jobQueueSizeKey, _ := workerSection.GetKey("job-queue-size")
	stopTimeoutKey, _ := workerSection.GetKey("stop-timeout-seconds")
	configuration.workerID = workerIDKey.String()
	if len(configuration.workerID) <= 0 {
		configuration.workerID = generateWorkerID()
	}
	configuration.maxWorkers = maxWorkersKey.MustUint(16)
	configuration.jobQueueSize = jobQueueSizeKey.MustUint(1000)
	configuration.stopTimeout = time.Duration(stopTimeoutKey.MustUint(30)) * time.Second
}

func setupDedupConfiguration(cfg *ini.File, configuration *Config) {
	dedupSection, _ := cfg.GetSection("dedup")
	enabledKey, _ := dedupSection.GetKey("enabled")
	gateLockTTLKey, _ := dedupSection.GetKey("gate-lock-ttl-seconds")
	markerTTLKey, _ := dedupSection.GetKey("marker-ttl-seconds")
	localCacheTTLKey, _ := dedupSection.GetKey("local-cache-ttl-seconds")
	configuration.dedupEnabled = enabledKey.MustBool(true)
	configuration.gateLockTTL = time.Duration(gateLockTTLKey.MustUint(5)) * time.Second
	configuration.markerTTL = time.Duration(markerTTLKey.MustUint(600)) * time.Second
	configuration.localCacheTTL = time.Duration(localCacheTTLKey.MustUint(60)) * time.Second
}

func setupCoordinatorConfiguration(cfg *ini.File, configuration *Config) {
	coordinatorSection, _ := cfg.GetSection("coordinator")
	enabledKey, _ := coordinatorSection.GetKey("enabled")
	heartbeatIntervalKey, _ := coordinatorSection.GetKey("heartbeat-interval-seconds")
	heartbeatTTLKey, _ := coordinatorSection.GetKey("heartbeat-ttl-seconds")
	observationWindowKey, _ := coordinatorSection.GetKey("observation-window-seconds")
	epochTTLKey, _ := coordinatorSection.GetKey("epoch-ttl-seconds")
	ticketTTLKey, _ := coordinatorSection.GetKey("ticket-ttl-seconds")
	ticketBatchSizeKey, _ := coordinatorSection.GetKey("ticket-batch-size")
	degradeThresholdKey, _ := coordinatorSection.GetKey("degrade-threshold-seconds")
	configuration.coordinatorEnabled = enabledKey.MustBool(true)
	configuration.heartbeatInterval = time.Duration(heartbeatIntervalKey.MustUint(5)) * time.Second
	configuration.heartbeatTTL = time.Duration(heartbeatTTLKey.MustUint(15)) * time.Second
	configuration.observationWindow = time.Duration(observationWindowKey.MustUint(15)) * time.Second
	configuration.epochTTL = time.Duration(epochTTLKey.MustUint(15)) * time.Second
	configuration.ticketTTL = time.Duration(ticketTTLKey.MustUint(30)) * time.Second
	configuration.ticketBatchSize = int(ticketBatchSizeKey.MustUint(100))
	configuration.degradeThreshold = time.Duration(degradeThresholdKey.MustUint(20)) * time.Second
}

func setupSweeperConfiguration(cfg *ini.File, configuration *Config) {
	sweeperSection, _ := cfg.GetSection("sweeper")
	intervalKey, _ := sweeperSection.GetKey("interval-seconds")
	batchSizeKey, _ := sweeperSection.GetKey("batch-size")
	configuration.sweepInterval = time.Duration(intervalKey.MustUint(30)) * time.Second
	configuration.sweepBatchSize = int(batchSizeKey.MustUint(100))
}

func setupDeadLetterConfiguration(cfg *ini.File, configuration *Config) {
	deadLetterSection, _ := cfg.GetSection("dead-letter")
	archiveEnabledKey, _ := deadLetterSection.GetKey("archive-enabled")
	exportPathKey, _ := deadLetterSection.GetKey("export-path")
	exportNodeNameKey, _ := deadLetterSection.GetKey("export-node-name")
	remoteExportURLKey, _ := deadLetterSection.GetKey("remote-export-url")
	remoteFilePrefixKey, _ := deadLetterSection.GetKey("remote-file-prefix")
	maxArchiveFileSizeKey, _ := deadLetterSection.GetKey("max-archive-file-size-in-mb")
	configuration.archiveEnabled = archiveEnabledKey.MustBool(false)
	configuration.exportPath = exportPathKey.String()
	configuration.exportNodeName = exportNodeNameKey.MustString("default")
	if remoteURL := remoteExportURLKey.String(); len(remoteURL) > 0 {
		parsedURL, err := url.Parse(remoteURL)
		if err == nil {
			configuration.remoteExportURL = parsedURL
		}
	}
	configuration.remoteFilePrefix = remoteFilePrefixKey.String()
	configuration.maxArchiveFileSizeInMB = maxArchiveFileSizeKey.MustUint(100)
}

func generateWorkerID() string {
	hostname, err := getHostname()
	if err != nil || len(hostname) <= 0 {
		hostname = "worker"
	}
	return hostname + "-" + xid.New().String()
}
