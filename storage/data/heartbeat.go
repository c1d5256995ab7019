package data

import (
	"strconv"
	"time"
)

// WorkerRole represents the role a worker currently plays in the fleet
type WorkerRole int

func (role WorkerRole) String() string {
	switch role {
	case RoleWorker:
		return RoleWorkerStr
	case RoleCoordinator:
		return RoleCoordinatorStr
	default:
		return strconv.Itoa(int(role))
	}
}

const (
	// RoleWorker is the role of a follower that polls or claims tickets
	RoleWorker WorkerRole = iota + 10
	// RoleCoordinator is the role of the elected leader publishing tickets
	RoleCoordinator
	// RoleWorkerStr is the string rep of RoleWorker
	RoleWorkerStr = "WORKER"
	// RoleCoordinatorStr is the string rep of RoleCoordinator
	RoleCoordinatorStr = "COORDINATOR"
)

// WorkerHeartbeat is the ephemeral liveness record a worker refreshes every heartbeat
// interval. Expired heartbeats are filtered at read; stale rows are garbage.
type WorkerHeartbeat struct {
	WorkerID  string
	Role      WorkerRole
	Epoch     uint64
	LastSeen  time.Time
	ExpiresAt time.Time
}

// IsExpired returns whether the heartbeat's TTL has lapsed
func (hb *WorkerHeartbeat) IsExpired() bool {
	return !hb.ExpiresAt.After(time.Now())
}

// NewWorkerHeartbeat creates a heartbeat for the worker; returns insufficient info
// error when the worker id is empty or the TTL is not positive
func NewWorkerHeartbeat(workerID string, role WorkerRole, epoch uint64, ttl time.Duration) (hb *WorkerHeartbeat, err error) {
	if len(workerID) <= 0 || ttl <= 0 {
		err = ErrInsufficientInformationForCreating
	} else {
		now := time.Now()
		hb = &WorkerHeartbeat{WorkerID: workerID, Role: role, Epoch: epoch, LastSeen: now, ExpiresAt: now.Add(ttl)}
	}
	return hb, err
}

// CoordinatorEpoch is the leadership-term record. Epochs strictly increase; at most
// one non-expired leader exists per epoch since the epoch number is the primary key.
type CoordinatorEpoch struct {
	Epoch     uint64
	LeaderID  string
	StartedAt time.Time
	ExpiresAt time.Time
}

// IsExpired returns whether the leadership term has lapsed
func (epoch *CoordinatorEpoch) IsExpired() bool {
	return !epoch.ExpiresAt.After(time.Now())
}

// NewCoordinatorEpoch creates the epoch record a candidate attempts to insert to win
// the election for that epoch number
func NewCoordinatorEpoch(epoch uint64, leaderID string, ttl time.Duration) (record *CoordinatorEpoch, err error) {
	if len(leaderID) <= 0 || ttl <= 0 {
		err = ErrInsufficientInformationForCreating
	} else {
		now := time.Now()
		record = &CoordinatorEpoch{Epoch: epoch, LeaderID: leaderID, StartedAt: now, ExpiresAt: now.Add(ttl)}
	}
	return record, err
}
