package coordinator

import (
	"github.com/google/wire"

	"github.com/newscred/task-broker/queue"
)

var (
	// CoordinatorInjector is the injector for the Coordinator module
	CoordinatorInjector = wire.NewSet(NewCoordinator, wire.Bind(new(queue.TicketSource), new(*Coordinator)),
		wire.Struct(new(Configuration), "HeartbeatRepo", "TicketRepo", "EntryRepo", "CoordinatorConfig", "WorkerConfig", "EventBus"))
)
