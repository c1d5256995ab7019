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

func getSampleLock(t *testing.T) *data.Lock {
	entry := getSampleEntry(t)
	lock, err := data.NewLock(entry, "worker-1", 30*time.Second)
	assert.Nil(t, err)
	return lock
}

func TestLockTryLock(t *testing.T) {
	t.Run("FreshInsert", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `lock`").WithArgs(lock.Name, lock.Owner, lock.Token, lock.AttainedAt, lock.ExpiresAt).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, lockRepo.TryLock(lock))
		assert.Nil(t, mock.ExpectationsWereMet())
	})
	t.Run("StealExpiredHolder", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `lock`").WithArgs(anyArgs(5)...).WillReturnError(&mysql.MySQLError{Number: 1062})
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `lock`").WithArgs(lock.Owner, lock.Token, lock.AttainedAt, lock.ExpiresAt, lock.Name, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, lockRepo.TryLock(lock))
		assert.Nil(t, mock.ExpectationsWereMet())
	})
	t.Run("HeldByLiveOwner", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO `lock`").WithArgs(anyArgs(5)...).WillReturnError(&mysql.MySQLError{Number: 1062})
		mock.ExpectRollback()
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `lock`").WithArgs(anyArgs(6)...).WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectCommit()
		assert.Equal(t, ErrLockUnavailable, lockRepo.TryLock(lock))
	})
	t.Run("NilLock", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		assert.Equal(t, ErrNoLock, lockRepo.TryLock(nil))
		assert.Equal(t, ErrNoLock, lockRepo.ReleaseLock(nil))
		assert.Equal(t, ErrNoLock, lockRepo.ExtendLock(nil, time.Second))
	})
}

func TestLockReleaseLock(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `lock`").WithArgs(lock.Name, lock.Token).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, lockRepo.ReleaseLock(lock))
	})
	t.Run("AlreadyStolenIsNoop", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `lock`").WithArgs(lock.Name, lock.Token).WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectCommit()
		assert.Nil(t, lockRepo.ReleaseLock(lock))
	})
	t.Run("DBError", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		expectedErr := errors.New("delete error")
		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `lock`").WillReturnError(expectedErr)
		mock.ExpectRollback()
		assert.Equal(t, expectedErr, lockRepo.ReleaseLock(lock))
	})
}

func TestLockExtendLock(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		oldExpiry := lock.ExpiresAt
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `lock`").WithArgs(sqlmock.AnyArg(), lock.Name, lock.Token, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, lockRepo.ExtendLock(lock, time.Minute))
		assert.True(t, lock.ExpiresAt.After(oldExpiry))
	})
	t.Run("Lapsed", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		lock := getSampleLock(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE `lock`").WithArgs(anyArgs(4)...).WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectCommit()
		assert.Equal(t, ErrLockUnavailable, lockRepo.ExtendLock(lock, time.Minute))
	})
	t.Run("NonPositiveTTL", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		lockRepo := &LockDBRepository{db: db}
		assert.Equal(t, data.ErrNonPositiveTTL, lockRepo.ExtendLock(getSampleLock(t), 0))
	})
}

func TestLockTimeoutLocks(t *testing.T) {
	db, mock, _ := sqlmock.New()
	lockRepo := &LockDBRepository{db: db}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `lock`").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 3))
	mock.ExpectCommit()
	assert.Nil(t, lockRepo.TimeoutLocks(5*time.Second))
	assert.Nil(t, mock.ExpectationsWereMet())
}
