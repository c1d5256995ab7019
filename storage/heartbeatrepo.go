package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/newscred/task-broker/storage/data"
)

var (
	// ErrNoEpoch is returned when no coordinator epoch record exists yet
	ErrNoEpoch = errors.New("no coordinator epoch recorded")
	// ErrEpochTaken is returned when the epoch insert lost the election or the
	// refresh found the term lapsed or owned by another leader
	ErrEpochTaken = errors.New("coordinator epoch taken by another leader")
	epochErrorMap = map[uint16]error{
		1062: ErrEpochTaken,
	}
)

// HeartbeatDBRepository represents the RDBMS implementation of HeartbeatRepository.
// Heartbeats establish liveness only while unexpired; the epoch table's primary key
// on the epoch number is what makes elections decide exactly one winner.
type HeartbeatDBRepository struct {
	db *sql.DB
}

// Beat upserts the worker's heartbeat
func (hbRepo *HeartbeatDBRepository) Beat(heartbeat *data.WorkerHeartbeat) error {
	if heartbeat == nil || len(heartbeat.WorkerID) <= 0 {
		return ErrInvalidStateToSave
	}
	return transactionalWrites(hbRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM worker_heartbeat WHERE workerId = ?",
			args2SliceFnWrapper(heartbeat.WorkerID), int64(0))
	}, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "INSERT INTO worker_heartbeat (workerId, role, epoch, lastSeen, expiresAt) VALUES (?, ?, ?, ?, ?)",
			args2SliceFnWrapper(heartbeat.WorkerID, heartbeat.Role, heartbeat.Epoch, heartbeat.LastSeen, heartbeat.ExpiresAt), int64(1))
	})
}

// GetLiveWorkers retrieves all non-expired heartbeats ordered by worker id; the
// ordering is load bearing since elections pick the lexicographically smallest id
func (hbRepo *HeartbeatDBRepository) GetLiveWorkers() (heartbeats []*data.WorkerHeartbeat, err error) {
	heartbeats = make([]*data.WorkerHeartbeat, 0)
	scanArgs := func() []interface{} {
		heartbeat := &data.WorkerHeartbeat{}
		heartbeats = append(heartbeats, heartbeat)
		return []interface{}{&heartbeat.WorkerID, &heartbeat.Role, &heartbeat.Epoch, &heartbeat.LastSeen, &heartbeat.ExpiresAt}
	}
	err = queryRows(hbRepo.db, "SELECT workerId, role, epoch, lastSeen, expiresAt FROM worker_heartbeat WHERE expiresAt > ? ORDER BY workerId asc",
		args2SliceFnWrapper(time.Now()), scanArgs)
	return heartbeats, err
}

// GetCurrentEpoch retrieves the highest numbered epoch record whether expired or not
func (hbRepo *HeartbeatDBRepository) GetCurrentEpoch() (epoch *data.CoordinatorEpoch, err error) {
	epoch = &data.CoordinatorEpoch{}
	err = querySingleRow(hbRepo.db, "SELECT epoch, leaderId, startedAt, expiresAt FROM coordinator_epoch ORDER BY epoch desc LIMIT 1",
		nilArgs, args2SliceFnWrapper(&epoch.Epoch, &epoch.LeaderID, &epoch.StartedAt, &epoch.ExpiresAt))
	if err == sql.ErrNoRows {
		err = ErrNoEpoch
	}
	return epoch, err
}

// StartEpoch attempts to insert the epoch record; the primary key collision tells
// losers apart from the single winner
func (hbRepo *HeartbeatDBRepository) StartEpoch(epoch *data.CoordinatorEpoch) error {
	if epoch == nil || len(epoch.LeaderID) <= 0 {
		return ErrInvalidStateToSave
	}
	return normalizeDBError(transactionalSingleRowWriteExec(hbRepo.db, emptyOps,
		"INSERT INTO coordinator_epoch (epoch, leaderId, startedAt, expiresAt) VALUES (?, ?, ?, ?)",
		args2SliceFnWrapper(epoch.Epoch, epoch.LeaderID, epoch.StartedAt, epoch.ExpiresAt)), epochErrorMap)
}

// RefreshEpoch extends the expiry of a still-live term held by this leader
func (hbRepo *HeartbeatDBRepository) RefreshEpoch(epoch *data.CoordinatorEpoch, ttl time.Duration) (err error) {
	if epoch == nil || len(epoch.LeaderID) <= 0 {
		return ErrInvalidStateToSave
	}
	if ttl <= 0 {
		return data.ErrNonPositiveTTL
	}
	newExpiry := time.Now().Add(ttl)
	err = transactionalSingleRowWriteExec(hbRepo.db, emptyOps,
		"UPDATE coordinator_epoch SET expiresAt = ? WHERE epoch = ? AND leaderId = ? AND expiresAt > ?",
		args2SliceFnWrapper(newExpiry, epoch.Epoch, epoch.LeaderID, time.Now()))
	if err == ErrNoRowsUpdated {
		err = ErrEpochTaken
	}
	if err == nil {
		epoch.ExpiresAt = newExpiry
	}
	return err
}

// PurgeExpired removes expired heartbeats and all epochs below the highest one. The
// highest epoch survives even when expired so epoch numbers never regress.
func (hbRepo *HeartbeatDBRepository) PurgeExpired() (err error) {
	currentTime := time.Now()
	err = transactionalWrites(hbRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM worker_heartbeat WHERE expiresAt <= ?",
			args2SliceFnWrapper(currentTime), int64(0))
	}, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps,
			"DELETE FROM coordinator_epoch WHERE expiresAt <= ? AND epoch < (SELECT maxEpoch FROM (SELECT MAX(epoch) AS maxEpoch FROM coordinator_epoch) AS tmp)",
			args2SliceFnWrapper(currentTime), int64(0))
	})
	return err
}

// NewHeartbeatRepository creates a new instance of HeartbeatRepository
func NewHeartbeatRepository(db *sql.DB) HeartbeatRepository {
	panicIfNoDBConnectionPool(db)
	return &HeartbeatDBRepository{db: db}
}
