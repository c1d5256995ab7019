package storage

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/newscred/task-broker/storage/data"
	"github.com/stretchr/testify/assert"
)

func getSampleHeartbeat(t *testing.T) *data.WorkerHeartbeat {
	heartbeat, err := data.NewWorkerHeartbeat("worker-1", data.RoleWorker, 3, 15*time.Second)
	assert.Nil(t, err)
	return heartbeat
}

func getSampleEpoch(t *testing.T) *data.CoordinatorEpoch {
	epoch, err := data.NewCoordinatorEpoch(4, "worker-1", 15*time.Second)
	assert.Nil(t, err)
	return epoch
}

func TestHeartbeatBeat(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		heartbeat := getSampleHeartbeat(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM worker_heartbeat").WithArgs("worker-1").WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectExec("INSERT INTO worker_heartbeat").WithArgs("worker-1", data.RoleWorker, uint64(3), heartbeat.LastSeen, heartbeat.ExpiresAt).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, hbRepo.Beat(heartbeat))
		assert.Nil(t, mock.ExpectationsWereMet())
	})
	t.Run("InvalidHeartbeat", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		assert.Equal(t, ErrInvalidStateToSave, hbRepo.Beat(nil))
		assert.Equal(t, ErrInvalidStateToSave, hbRepo.Beat(&data.WorkerHeartbeat{}))
	})
}

func TestHeartbeatGetLiveWorkers(t *testing.T) {
	db, mock, _ := sqlmock.New()
	hbRepo := &HeartbeatDBRepository{db: db}
	first := getSampleHeartbeat(t)
	rows := sqlmock.NewRows([]string{"workerId", "role", "epoch", "lastSeen", "expiresAt"}).
		AddRow(first.WorkerID, first.Role, first.Epoch, first.LastSeen, first.ExpiresAt).
		AddRow("worker-2", data.RoleCoordinator, uint64(3), first.LastSeen, first.ExpiresAt)
	mock.ExpectQuery("SELECT workerId, role").WithArgs(sqlmock.AnyArg()).WillReturnRows(rows)
	heartbeats, err := hbRepo.GetLiveWorkers()
	assert.Nil(t, err)
	assert.Equal(t, 2, len(heartbeats))
	assert.Equal(t, "worker-1", heartbeats[0].WorkerID)
	assert.Equal(t, data.RoleCoordinator, heartbeats[1].Role)
}

func TestHeartbeatGetCurrentEpoch(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		sample := getSampleEpoch(t)
		rows := sqlmock.NewRows([]string{"epoch", "leaderId", "startedAt", "expiresAt"}).
			AddRow(sample.Epoch, sample.LeaderID, sample.StartedAt, sample.ExpiresAt)
		mock.ExpectQuery("SELECT epoch, leaderId").WillReturnRows(rows)
		epoch, err := hbRepo.GetCurrentEpoch()
		assert.Nil(t, err)
		assert.Equal(t, uint64(4), epoch.Epoch)
		assert.Equal(t, "worker-1", epoch.LeaderID)
	})
	t.Run("NoEpoch", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		mock.ExpectQuery("SELECT epoch, leaderId").WillReturnRows(sqlmock.NewRows([]string{"epoch", "leaderId", "startedAt", "expiresAt"}))
		_, err := hbRepo.GetCurrentEpoch()
		assert.Equal(t, ErrNoEpoch, err)
	})
}

func TestHeartbeatStartEpoch(t *testing.T) {
	t.Run("Won", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		epoch := getSampleEpoch(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO coordinator_epoch").WithArgs(epoch.Epoch, epoch.LeaderID, epoch.StartedAt, epoch.ExpiresAt).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, hbRepo.StartEpoch(epoch))
	})
	t.Run("LostElection", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO coordinator_epoch").WithArgs(anyArgs(4)...).WillReturnError(&mysql.MySQLError{Number: 1062})
		mock.ExpectRollback()
		assert.Equal(t, ErrEpochTaken, hbRepo.StartEpoch(getSampleEpoch(t)))
	})
	t.Run("InvalidEpoch", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		assert.Equal(t, ErrInvalidStateToSave, hbRepo.StartEpoch(nil))
		assert.Equal(t, ErrInvalidStateToSave, hbRepo.StartEpoch(&data.CoordinatorEpoch{}))
	})
}

func TestHeartbeatRefreshEpoch(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		epoch := getSampleEpoch(t)
		oldExpiry := epoch.ExpiresAt
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE coordinator_epoch").WithArgs(sqlmock.AnyArg(), epoch.Epoch, epoch.LeaderID, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, hbRepo.RefreshEpoch(epoch, time.Minute))
		assert.True(t, epoch.ExpiresAt.After(oldExpiry))
	})
	t.Run("TermLapsed", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE coordinator_epoch").WithArgs(anyArgs(4)...).WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectCommit()
		assert.Equal(t, ErrEpochTaken, hbRepo.RefreshEpoch(getSampleEpoch(t), time.Minute))
	})
	t.Run("NonPositiveTTL", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		assert.Equal(t, data.ErrNonPositiveTTL, hbRepo.RefreshEpoch(getSampleEpoch(t), 0))
	})
}

func TestHeartbeatPurgeExpired(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM worker_heartbeat").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 2))
		mock.ExpectExec("DELETE FROM coordinator_epoch").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, hbRepo.PurgeExpired())
		assert.Nil(t, mock.ExpectationsWereMet())
	})
	t.Run("DBError", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		hbRepo := &HeartbeatDBRepository{db: db}
		expectedErr := errors.New("delete error")
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM worker_heartbeat").WillReturnError(expectedErr)
		mock.ExpectRollback()
		assert.Equal(t, expectedErr, hbRepo.PurgeExpired())
	})
}
