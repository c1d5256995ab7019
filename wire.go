//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/newscred/task-broker/broker"
	"github.com/newscred/task-broker/config"
	"github.com/newscred/task-broker/controllers"
	"github.com/newscred/task-broker/coordinator"
	"github.com/newscred/task-broker/dlq"
	"github.com/newscred/task-broker/queue"
	"github.com/newscred/task-broker/storage"
	"github.com/newscred/task-broker/sweeper"
)

var (
	configInjectorSet     = wire.NewSet(GetConfig, wire.Bind(new(config.HTTPConfig), new(*config.Config)), wire.Bind(new(config.RelationalDatabaseConfig), new(*config.Config)), wire.Bind(new(config.LogConfig), new(*config.Config)), wire.Bind(new(config.QueueConfig), new(*config.Config)), wire.Bind(new(config.WorkerConfig), new(*config.Config)), wire.Bind(new(config.DeduplicationConfig), new(*config.Config)), wire.Bind(new(config.CoordinatorConfig), new(*config.Config)), wire.Bind(new(config.SweeperConfig), new(*config.Config)), wire.Bind(new(config.DeadLetterConfig), new(*config.Config)))
	repositoryInjectorSet = wire.NewSet(GetMigrationConfig, storage.GetNewDataAccessor, GetQueueEntryRepository, GetLockRepository, GetKeyValueRepository, GetTicketRepository, GetHeartbeatRepository, GetDeadLetterRepository)
	brokerServiceSet      = wire.NewSet(NewHTTPServiceContainer, NewServerListener, configInjectorSet, repositoryInjectorSet, wire.Bind(new(controllers.ServerLifecycleListener), new(*ServerLifecycleListenerImpl)), controllers.ControllerInjector, queue.PollerInjector, queue.MetricsInjector, coordinator.CoordinatorInjector, sweeper.SweeperInjector, dlq.DLQInjector, wire.Bind(new(queue.DeadLetterRouter), new(*dlq.Router)), broker.BrokerInjector)
)

// GetAppVersion retrieves the app version
func GetAppVersion() config.AppVersion {
	wire.Build(config.GetVersion)

	return ""
}

// GetHTTPServiceContainer builds the complete service graph for the CLI configuration
func GetHTTPServiceContainer(cliConfig *config.CLIConfig) (*HTTPServiceContainer, error) {
	wire.Build(brokerServiceSet)

	return &HTTPServiceContainer{}, nil
}
