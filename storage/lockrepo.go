package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/newscred/task-broker/storage/data"
)

var (
	// ErrNoLock is returned when no lock is passed to try or release function
	ErrNoLock = errors.New("no lock provided")
	// ErrLockUnavailable is returned when the named lock is held by a live owner
	ErrLockUnavailable = errors.New("lock held by a non-expired owner")
	lockErrorMap       = map[uint16]error{
		1062: ErrLockUnavailable,
	}
)

// LockDBRepository represents the RDBMS implementation of LockRepository. The table
// has no lock service semantics of its own; mutual exclusion comes solely from the
// primary key on the lock name plus TTL based displacement of expired holders.
type LockDBRepository struct {
	db *sql.DB
}

// TryLock tries to attain the named lock. A fresh name is inserted; a name whose
// holder has expired is displaced in place. A live holder makes it return
// ErrLockUnavailable.
func (lockRepo *LockDBRepository) TryLock(lock *data.Lock) (err error) {
	if lock == nil {
		return ErrNoLock
	}
	err = normalizeDBError(transactionalSingleRowWriteExec(lockRepo.db, emptyOps,
		"INSERT INTO `lock` (name, owner, token, attainedAt, expiresAt) VALUES (?, ?, ?, ?, ?)",
		args2SliceFnWrapper(lock.Name, lock.Owner, lock.Token, lock.AttainedAt, lock.ExpiresAt)), lockErrorMap)
	if err == ErrLockUnavailable {
		err = lockRepo.stealExpired(lock)
	}
	return err
}

// stealExpired displaces an expired holder; the expiry guard in the WHERE clause is
// what keeps two concurrent stealers from both winning
func (lockRepo *LockDBRepository) stealExpired(lock *data.Lock) error {
	err := transactionalSingleRowWriteExec(lockRepo.db, emptyOps,
		"UPDATE `lock` SET owner = ?, token = ?, attainedAt = ?, expiresAt = ? WHERE name = ? AND expiresAt <= ?",
		args2SliceFnWrapper(lock.Owner, lock.Token, lock.AttainedAt, lock.ExpiresAt, lock.Name, time.Now()))
	if err == ErrNoRowsUpdated {
		err = ErrLockUnavailable
	}
	return err
}

// ReleaseLock releases the lock if this owner's token still holds it. Releasing a
// lock that expired and was since stolen is a no-op rather than an error since the
// caller's critical section is over either way.
func (lockRepo *LockDBRepository) ReleaseLock(lock *data.Lock) (err error) {
	if lock == nil {
		return ErrNoLock
	}
	err = transactionalSingleRowWriteExec(lockRepo.db, emptyOps, "DELETE FROM `lock` WHERE name = ? AND token = ?",
		args2SliceFnWrapper(lock.Name, lock.Token))
	if err == ErrNoRowsUpdated {
		err = nil
	}
	return err
}

// ExtendLock pushes the expiry of a still-held lock by ttl from now; returns
// ErrLockUnavailable if the lock expired or was stolen in the meantime
func (lockRepo *LockDBRepository) ExtendLock(lock *data.Lock, ttl time.Duration) (err error) {
	if lock == nil {
		return ErrNoLock
	}
	if ttl <= 0 {
		return data.ErrNonPositiveTTL
	}
	newExpiry := time.Now().Add(ttl)
	err = transactionalSingleRowWriteExec(lockRepo.db, emptyOps,
		"UPDATE `lock` SET expiresAt = ? WHERE name = ? AND token = ? AND expiresAt > ?",
		args2SliceFnWrapper(newExpiry, lock.Name, lock.Token, time.Now()))
	if err == ErrNoRowsUpdated {
		err = ErrLockUnavailable
	}
	if err == nil {
		lock.ExpiresAt = newExpiry
	}
	return err
}

// TimeoutLocks removes lock rows whose expiry lapsed before now minus threshold.
// Expired rows are harmless to correctness, this is pure garbage collection.
func (lockRepo *LockDBRepository) TimeoutLocks(threshold time.Duration) (err error) {
	// Pass 0 expected row change else otherwise tx will fail due to row change check
	err = transactionalWrites(lockRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM `lock` WHERE expiresAt < ?", args2SliceFnWrapper(time.Now().Add(-1*threshold)), int64(0))
	})
	return err
}

// NewLockRepository creates a new instance of LockRepository
func NewLockRepository(db *sql.DB) LockRepository {
	panicIfNoDBConnectionPool(db)
	return &LockDBRepository{db: db}
}
