package storage

import (
	"time"

	"github.com/newscred/task-broker/storage/data"
)

// DataAccessor is the facade to all the data repository
type DataAccessor interface {
	GetQueueEntryRepository() QueueEntryRepository
	GetLockRepository() LockRepository
	GetKeyValueRepository() KeyValueRepository
	GetTicketRepository() TicketRepository
	GetHeartbeatRepository() HeartbeatRepository
	GetDeadLetterRepository() DeadLetterRepository
	Close()
}

// QueueEntryRepository allows storage operation interaction for QueueEntry. All state
// transitions are conditional on the entry's current VersionToken; a transition whose
// token is stale returns ErrClaimConflict without any side effect.
type QueueEntryRepository interface {
	// Enqueue persists a new pending entry
	Enqueue(entry *data.QueueEntry) error
	// Poll retrieves up to maxEntries pending entries whose visibility timestamp has passed
	Poll(maxEntries int) ([]*data.QueueEntry, error)
	// Claim transitions a pending entry to processing on behalf of workerID for the
	// visibility timeout duration; exactly one concurrent Claim on the same version succeeds
	Claim(entry *data.QueueEntry, workerID string, visibilityTimeout time.Duration) error
	// Complete transitions a processing entry to completed
	Complete(entry *data.QueueEntry) error
	// Retry returns a processing entry to pending with the failure recorded and
	// visibility deferred until nextVisibleAt
	Retry(entry *data.QueueEntry, handlerErr string, nextVisibleAt time.Time) error
	// MarkDead transitions a processing entry to dead once attempts are exhausted
	MarkDead(entry *data.QueueEntry, handlerErr string) error
	// Recover returns a timed out processing entry to pending making it immediately visible
	Recover(entry *data.QueueEntry) error
	// GetByID loads an entry by its string ID
	GetByID(id string) (*data.QueueEntry, error)
	// GetTimedOutEntries retrieves up to maxEntries processing entries whose
	// visibility timeout has lapsed
	GetTimedOutEntries(maxEntries int) ([]*data.QueueEntry, error)
	// GetList retrieves entries for a status page by page
	GetList(status data.EntryStatus, page *data.Pagination) ([]*data.QueueEntry, *data.Pagination, error)
	// GetStatusCounts retrieves the number of entries per lifecycle status
	GetStatusCounts() (map[data.EntryStatus]int64, error)
}

// LockRepository allows storage operation interaction for TTL backed locks
type LockRepository interface {
	// TryLock attains the named lock for the lock's owner; an expired holder is
	// displaced, a live holder causes ErrLockUnavailable
	TryLock(lock *data.Lock) error
	// ReleaseLock releases the lock if the token still matches; releasing an already
	// expired or stolen lock is a no-op
	ReleaseLock(lock *data.Lock) error
	// ExtendLock pushes the expiry of a still-held lock; fails with
	// ErrLockUnavailable if the lock expired or was stolen in the meantime
	ExtendLock(lock *data.Lock, ttl time.Duration) error
	// TimeoutLocks removes lock rows that expired before now minus threshold
	TimeoutLocks(threshold time.Duration) error
}

// KeyValueRepository allows storage operation interaction for TTL backed key value
// markers, primarily the deduplication seen markers
type KeyValueRepository interface {
	// Put stores the value against the key with the TTL replacing any previous value
	Put(key string, value string, ttl time.Duration) error
	// Get retrieves a non-expired value; returns ErrKeyAbsent if absent or expired
	Get(key string) (string, error)
	// Delete removes the key if present
	Delete(key string) error
	// PurgeExpired removes expired rows
	PurgeExpired() error
}

// TicketRepository allows storage operation interaction for coordinator tickets
type TicketRepository interface {
	// Publish stores tickets for the given entries skipping entries that already
	// have an open ticket
	Publish(tickets []*data.Ticket) error
	// ListOpen retrieves up to maxTickets unclaimed non-expired tickets
	ListOpen(maxTickets int) ([]*data.Ticket, error)
	// Claim claims the ticket for workerID; returns ErrTicketClaimed when another
	// worker got there first or the ticket expired
	Claim(ticket *data.Ticket, workerID string) error
	// PurgeExpired removes expired and claimed tickets
	PurgeExpired() error
}

// HeartbeatRepository allows storage operation interaction for worker liveness and
// coordinator epochs
type HeartbeatRepository interface {
	// Beat upserts the worker's heartbeat
	Beat(heartbeat *data.WorkerHeartbeat) error
	// GetLiveWorkers retrieves all non-expired heartbeats ordered by worker id
	GetLiveWorkers() ([]*data.WorkerHeartbeat, error)
	// GetCurrentEpoch retrieves the most recent epoch record whether expired or not;
	// returns ErrNoEpoch when none exists
	GetCurrentEpoch() (*data.CoordinatorEpoch, error)
	// StartEpoch attempts to insert the epoch record; exactly one concurrent caller
	// per epoch number wins, losers get ErrEpochTaken
	StartEpoch(epoch *data.CoordinatorEpoch) error
	// RefreshEpoch extends the expiry of a still-live epoch held by the leader;
	// returns ErrEpochTaken if the epoch lapsed or belongs to someone else
	RefreshEpoch(epoch *data.CoordinatorEpoch, ttl time.Duration) error
	// PurgeExpired removes expired heartbeats and epochs except the latest epoch
	PurgeExpired() error
}

// DeadLetterRepository allows storage operation interaction for dead lettered entries
type DeadLetterRepository interface {
	// Store persists the dead letter copy of an exhausted entry
	Store(deadLetter *data.DeadLetterEntry) error
	// Get loads a dead letter record by the source entry id
	Get(entryID string) (*data.DeadLetterEntry, error)
	// GetList retrieves dead letters page by page
	GetList(page *data.Pagination) ([]*data.DeadLetterEntry, *data.Pagination, error)
	// Count retrieves the total number of dead letters
	Count() (int64, error)
}
