package data

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrLockableNil represents the error returned when lockable is nil in NewLock
	ErrLockableNil = errors.New("lockable can not be nil")
	// ErrNonPositiveTTL represents the error returned when a lock is requested without a positive TTL
	ErrNonPositiveTTL = errors.New("lock ttl must be positive")
)

// Lockable represents the API necessary to lock an object for distributed MUTEX operation
type Lockable interface {
	GetLockID() string
}

// Lock represents the construct for TTL backed lock information. A name is held by at
// most one non-expired owner; crash of the owner is resolved purely by TTL expiry.
type Lock struct {
	Name       string
	Owner      string
	Token      string
	AttainedAt time.Time
	ExpiresAt  time.Time
}

// IsExpired returns whether the lock's TTL has lapsed
func (lock *Lock) IsExpired() bool {
	return !lock.ExpiresAt.After(time.Now())
}

// NewLock returns a new instance of lock from the lockable for the owner with the TTL
func NewLock(lockable Lockable, owner string, ttl time.Duration) (lock *Lock, err error) {
	if lockable == nil {
		err = ErrLockableNil
	} else if ttl <= 0 {
		err = ErrNonPositiveTTL
	} else {
		now := time.Now()
		lock = &Lock{Name: lockable.GetLockID(), Owner: owner, Token: uuid.NewString(), AttainedAt: now, ExpiresAt: now.Add(ttl)}
	}
	return lock, err
}
