package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/newscred/task-broker/broker"
	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/storage"
)

// ServerLifecycleListenerImpl is a blocking implementation of the server lifecycle
// listener; it lets main wait until the HTTP server has been shut down
type ServerLifecycleListenerImpl struct {
	shutdownListener chan bool
}

// StartingServer No-Op implementation
func (impl *ServerLifecycleListenerImpl) StartingServer() {}

// ServerStartFailed unblocks the main loop when the server could not listen
func (impl *ServerLifecycleListenerImpl) ServerStartFailed(err error) {
	impl.ServerShutdownCompleted()
}

// ServerShutdownCompleted notifies the waiting channel that server has been shutdown
func (impl *ServerLifecycleListenerImpl) ServerShutdownCompleted() {
	go func() {
		impl.shutdownListener <- true
	}()
}

// HTTPServiceContainer wrapper for IoC
type HTTPServiceContainer struct {
	Configuration *config.Config
	Broker        *broker.Broker
	Server        *http.Server
	DataAccessor  storage.DataAccessor
	Listener      *ServerLifecycleListenerImpl
}

// ErrMigrationSrcNotDir is returned when migration source path is not a directory
var ErrMigrationSrcNotDir = errors.New("migration source not a dir")

var (
	exit = func(code int) {
		os.Exit(code)
	}

	consolePrintln = func(output string) {
		fmt.Println(output)
	}

	parseArgs = func(programName string, args []string) (cliConfig *config.CLIConfig, output string, err error) {
		flags := flag.NewFlagSet(programName, flag.ContinueOnError)
		var buf bytes.Buffer
		flags.SetOutput(&buf)

		var conf config.CLIConfig
		flags.StringVar(&conf.ConfigPath, "config", "", "Config file location")
		flags.StringVar(&conf.MigrationSource, "migrate", "", "Migration source folder")
		flags.BoolVar(&conf.StopOnConfigChange, "stop-on-conf-change", false, "Restart internally on -config change if this flag is absent")
		flags.BoolVar(&conf.DoNotWatchConfigChange, "do-not-watch-conf-change", false, "Do not watch config change")

		err = flags.Parse(args)
		if err != nil {
			return nil, buf.String(), err
		}
		if len(conf.MigrationSource) > 0 {
			var fileInfo os.FileInfo
			fileInfo, err = os.Stat(conf.MigrationSource)
			if err != nil {
				return nil, buf.String(), err
			}
			if !fileInfo.IsDir() {
				return nil, buf.String(), ErrMigrationSrcNotDir
			}
			var absPath string
			absPath, err = filepath.Abs(conf.MigrationSource)
			if err != nil {
				return nil, buf.String(), err
			}
			conf.MigrationSource = "file://" + absPath
		}
		return &conf, buf.String(), nil
	}

	waitForStopSignal = func(httpServiceContainer *HTTPServiceContainer) {
		<-httpServiceContainer.Listener.shutdownListener
	}
)

// GetConfig returns the current app configuration based on the CLI args
func GetConfig(cliConfig *config.CLIConfig) (*config.Config, error) {
	return config.GetConfiguration(cliConfig.ConfigPath)
}

// GetMigrationConfig creates, initializes and returns the migration configuration
func GetMigrationConfig(cliConfig *config.CLIConfig) *storage.MigrationConfig {
	return &storage.MigrationConfig{MigrationEnabled: cliConfig.IsMigrationEnabled(), MigrationSource: cliConfig.MigrationSource}
}

// GetQueueEntryRepository provides the queue entry repository of the accessor
func GetQueueEntryRepository(dataAccessor storage.DataAccessor) storage.QueueEntryRepository {
	return dataAccessor.GetQueueEntryRepository()
}

// GetLockRepository provides the lock repository of the accessor
func GetLockRepository(dataAccessor storage.DataAccessor) storage.LockRepository {
	return dataAccessor.GetLockRepository()
}

// GetKeyValueRepository provides the TTL key value repository of the accessor
func GetKeyValueRepository(dataAccessor storage.DataAccessor) storage.KeyValueRepository {
	return dataAccessor.GetKeyValueRepository()
}

// GetTicketRepository provides the ticket repository of the accessor
func GetTicketRepository(dataAccessor storage.DataAccessor) storage.TicketRepository {
	return dataAccessor.GetTicketRepository()
}

// GetHeartbeatRepository provides the heartbeat repository of the accessor
func GetHeartbeatRepository(dataAccessor storage.DataAccessor) storage.HeartbeatRepository {
	return dataAccessor.GetHeartbeatRepository()
}

// GetDeadLetterRepository provides the dead letter repository of the accessor
func GetDeadLetterRepository(dataAccessor storage.DataAccessor) storage.DeadLetterRepository {
	return dataAccessor.GetDeadLetterRepository()
}

// NewServerListener creates a new server lifecycle listener with its wait channel ready
func NewServerListener() *ServerLifecycleListenerImpl {
	return &ServerLifecycleListenerImpl{shutdownListener: make(chan bool)}
}

// NewHTTPServiceContainer assembles the services backing the HTTP server
func NewHTTPServiceContainer(configuration *config.Config, taskBroker *broker.Broker, server *http.Server, dataAccessor storage.DataAccessor, listener *ServerLifecycleListenerImpl) *HTTPServiceContainer {
	return &HTTPServiceContainer{Configuration: configuration, Broker: taskBroker, Server: server, DataAccessor: dataAccessor, Listener: listener}
}

func setupLogger(logConfig config.LogConfig) {
	switch logConfig.GetLogLevel() {
	case config.Debug:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case config.Info:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case config.Error:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case config.Fatal:
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	}
	if logConfig.IsLoggerConfigAvailable() {
		log.Logger = log.Output(&lumberjack.Logger{
			Filename:   logConfig.GetLogFilename(),
			MaxSize:    int(logConfig.GetMaxLogFileSize()), // megabytes
			MaxBackups: int(logConfig.GetMaxLogBackups()),
			MaxAge:     int(logConfig.GetMaxAgeForALogFile()), // days
			Compress:   logConfig.IsCompressionEnabledOnLogBackups(),
		})
	}
}

func main() {
	log.Print("Task Broker - " + string(GetAppVersion()))
	cliConfig, output, cliCfgErr := parseArgs(os.Args[0], os.Args[1:])
	if cliCfgErr != nil {
		consolePrintln(output)
		if cliCfgErr != flag.ErrHelp {
			log.Error().Err(cliCfgErr).Msg("CLI argument error")
		}
		exit(1)
	}
	log.Debug().Msg("Configuration file used: " + cliConfig.ConfigPath)
	httpServiceContainer, err := GetHTTPServiceContainer(cliConfig)
	if err != nil {
		log.Error().Err(err).Msg("could not setup service container")
		exit(3)
	}
	setupLogger(httpServiceContainer.Configuration)
	httpServiceContainer.Broker.Start()
	cliConfig.NotifyOnConfigFileChange(func() {
		log.Print("Config file changed, restarting...")
		serverShutdownContext, shutdownTimeoutCancelFunc := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownTimeoutCancelFunc()
		httpServiceContainer.Server.Shutdown(serverShutdownContext)
	})
	waitForStopSignal(httpServiceContainer)
	httpServiceContainer.Broker.Stop()
	httpServiceContainer.DataAccessor.Close()
	cliConfig.StopWatcher()
	log.Print("Exiting Task Broker")
}
