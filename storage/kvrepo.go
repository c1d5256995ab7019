package storage

import (
	"database/sql"
	"errors"
	"time"
)

// ErrKeyAbsent is returned when a key does not exist or its TTL lapsed
var ErrKeyAbsent = errors.New("key absent or expired")

// KeyValueDBRepository represents the RDBMS implementation of KeyValueRepository.
// Rows carry their own expiry; an expired row is indistinguishable from an absent one
// to readers and gets garbage collected by PurgeExpired.
type KeyValueDBRepository struct {
	db *sql.DB
}

// Put stores the value against the key with the TTL replacing any previous value.
// Delete plus insert in one transaction keeps the write unconditional without
// dialect-specific upsert syntax.
func (kvRepo *KeyValueDBRepository) Put(key string, value string, ttl time.Duration) error {
	if len(key) <= 0 || ttl <= 0 {
		return ErrInvalidStateToSave
	}
	currentTime := time.Now()
	return transactionalWrites(kvRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM kv_entry WHERE keyId = ?", args2SliceFnWrapper(key), int64(0))
	}, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "INSERT INTO kv_entry (keyId, value, createdAt, expiresAt) VALUES (?, ?, ?, ?)",
			args2SliceFnWrapper(key, value, currentTime, currentTime.Add(ttl)), int64(1))
	})
}

// Get retrieves a non-expired value for the key; ErrKeyAbsent if missing or lapsed
func (kvRepo *KeyValueDBRepository) Get(key string) (value string, err error) {
	err = querySingleRow(kvRepo.db, "SELECT value FROM kv_entry WHERE keyId = ? AND expiresAt > ?",
		args2SliceFnWrapper(key, time.Now()), args2SliceFnWrapper(&value))
	if err == sql.ErrNoRows {
		err = ErrKeyAbsent
	}
	return value, err
}

// Delete removes the key if present; absence is not an error
func (kvRepo *KeyValueDBRepository) Delete(key string) (err error) {
	err = transactionalWrites(kvRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM kv_entry WHERE keyId = ?", args2SliceFnWrapper(key), int64(0))
	})
	return err
}

// PurgeExpired removes expired rows
func (kvRepo *KeyValueDBRepository) PurgeExpired() (err error) {
	err = transactionalWrites(kvRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM kv_entry WHERE expiresAt <= ?", args2SliceFnWrapper(time.Now()), int64(0))
	})
	return err
}

// NewKeyValueRepository creates a new instance of KeyValueRepository
func NewKeyValueRepository(db *sql.DB) KeyValueRepository {
	panicIfNoDBConnectionPool(db)
	return &KeyValueDBRepository{db: db}
}
