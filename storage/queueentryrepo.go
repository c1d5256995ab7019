package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/xid"

	"github.com/newscred/task-broker/storage/data"
)

const (
	entryPropertyCount     = 13
	entryCommonSelectQuery = "SELECT id, jobType, payload, dedupKey, status, attempts, visibleAt, claimedBy, lastError, completedAt, versionToken, createdAt, updatedAt FROM queue_entry WHERE"
	entryInsertStatement   = "INSERT INTO queue_entry (id, jobType, payload, dedupKey, status, attempts, visibleAt, claimedBy, lastError, completedAt, versionToken, createdAt, updatedAt) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
	entryTransitionQuery   = "UPDATE queue_entry SET status = ?, attempts = ?, visibleAt = ?, claimedBy = ?, lastError = ?, completedAt = ?, versionToken = ?, updatedAt = ? WHERE id = ? AND versionToken = ?"
)

var (
	// ErrClaimConflict is returned when a conditional transition loses the race on the
	// entry's version token; the caller observed a stale version and must re-read
	ErrClaimConflict = errors.New("queue entry version token mismatch on conditional write")
	// ErrDuplicateEntry is returned when an entry with the same ID already exists
	ErrDuplicateEntry = errors.New("duplicate queue entry")
	entryErrorMap     = map[uint16]error{
		1062: ErrDuplicateEntry,
	}
)

// QueueEntryDBRepository is the QueueEntryRepository's RDBMS implementation
type QueueEntryDBRepository struct {
	db *sql.DB
}

func nullableTime(instant time.Time) interface{} {
	if instant.IsZero() {
		return nil
	}
	return instant
}

// Enqueue persists a new pending entry; ErrDuplicateEntry if its ID is already present
func (entryRepo *QueueEntryDBRepository) Enqueue(entry *data.QueueEntry) error {
	if entry == nil || !entry.IsInValidState() || entry.Status != data.EntryPending {
		return ErrInvalidStateToSave
	}
	return normalizeDBError(transactionalSingleRowWriteExec(entryRepo.db, emptyOps, entryInsertStatement,
		args2SliceFnWrapper(entry.ID, entry.JobType, entry.Payload, entry.DedupKey, entry.Status, entry.Attempts,
			entry.VisibleAt, entry.ClaimedBy, entry.LastError, nullableTime(entry.CompletedAt), entry.VersionToken,
			entry.CreatedAt, entry.UpdatedAt)), entryErrorMap)
}

func (entryRepo *QueueEntryDBRepository) getEntries(baseQuery string, args []interface{}) (entries []*data.QueueEntry, err error) {
	entries = make([]*data.QueueEntry, 0)
	scanArgs := func() []interface{} {
		entry := &data.QueueEntry{}
		entries = append(entries, entry)
		return entryScanDestinations(entry)
	}
	err = queryRows(entryRepo.db, baseQuery, args2SliceFnWrapper(args...), scanArgs)
	return entries, err
}

// scan target for completedAt is nullable so each entry scans via a cell that writes
// through on a non-null value
type nullableTimeCell struct {
	target *time.Time
}

func (cell *nullableTimeCell) Scan(value interface{}) error {
	holder := sql.NullTime{}
	err := holder.Scan(value)
	if err == nil && holder.Valid {
		*cell.target = holder.Time
	}
	return err
}

func entryScanDestinations(entry *data.QueueEntry) []interface{} {
	return []interface{}{&entry.ID, &entry.JobType, &entry.Payload, &entry.DedupKey, &entry.Status, &entry.Attempts,
		&entry.VisibleAt, &entry.ClaimedBy, &entry.LastError, &nullableTimeCell{target: &entry.CompletedAt},
		&entry.VersionToken, &entry.CreatedAt, &entry.UpdatedAt}
}

// Poll retrieves up to maxEntries pending entries that are currently visible ordered
// oldest visibility first
func (entryRepo *QueueEntryDBRepository) Poll(maxEntries int) ([]*data.QueueEntry, error) {
	if maxEntries <= 0 {
		return make([]*data.QueueEntry, 0), nil
	}
	baseQuery := entryCommonSelectQuery + " status = ? AND visibleAt <= ? ORDER BY visibleAt asc, id asc LIMIT ?"
	return entryRepo.getEntries(baseQuery, []interface{}{data.EntryPending, time.Now(), maxEntries})
}

// GetTimedOutEntries retrieves up to maxEntries processing entries whose visibility
// timeout lapsed without the claim holder concluding
func (entryRepo *QueueEntryDBRepository) GetTimedOutEntries(maxEntries int) ([]*data.QueueEntry, error) {
	if maxEntries <= 0 {
		return make([]*data.QueueEntry, 0), nil
	}
	baseQuery := entryCommonSelectQuery + " status = ? AND visibleAt <= ? ORDER BY visibleAt asc, id asc LIMIT ?"
	return entryRepo.getEntries(baseQuery, []interface{}{data.EntryProcessing, time.Now(), maxEntries})
}

type entryTransition struct {
	status      data.EntryStatus
	attempts    uint
	visibleAt   time.Time
	claimedBy   string
	lastError   string
	completedAt time.Time
}

// transition performs the token guarded conditional write; zero affected rows means
// another holder rotated the token first and the entry object is left untouched
func (entryRepo *QueueEntryDBRepository) transition(entry *data.QueueEntry, next *entryTransition) error {
	currentTime := time.Now()
	nextToken := xid.New()
	err := transactionalSingleRowWriteExec(entryRepo.db, emptyOps, entryTransitionQuery,
		args2SliceFnWrapper(next.status, next.attempts, next.visibleAt, next.claimedBy, next.lastError,
			nullableTime(next.completedAt), nextToken, currentTime, entry.ID, entry.VersionToken))
	if err == ErrNoRowsUpdated {
		return ErrClaimConflict
	}
	if err == nil {
		entry.Status = next.status
		entry.Attempts = next.attempts
		entry.VisibleAt = next.visibleAt
		entry.ClaimedBy = next.claimedBy
		entry.LastError = next.lastError
		entry.CompletedAt = next.completedAt
		entry.VersionToken = nextToken
		entry.UpdatedAt = currentTime
	}
	return err
}

// Claim transitions a pending entry to processing for workerID. The visibility
// timestamp doubles as the claim deadline so a crashed holder is recoverable by sweep.
func (entryRepo *QueueEntryDBRepository) Claim(entry *data.QueueEntry, workerID string, visibilityTimeout time.Duration) error {
	if entry == nil || entry.Status != data.EntryPending {
		return ErrInvalidStateToSave
	}
	if len(workerID) <= 0 || visibilityTimeout <= 0 {
		return ErrInvalidStateToSave
	}
	return entryRepo.transition(entry, &entryTransition{status: data.EntryProcessing, attempts: entry.Attempts + 1,
		visibleAt: time.Now().Add(visibilityTimeout), claimedBy: workerID, lastError: entry.LastError})
}

// Complete transitions a processing entry to completed recording the completion time
func (entryRepo *QueueEntryDBRepository) Complete(entry *data.QueueEntry) error {
	if entry == nil || entry.Status != data.EntryProcessing {
		return ErrInvalidStateToSave
	}
	return entryRepo.transition(entry, &entryTransition{status: data.EntryCompleted, attempts: entry.Attempts,
		visibleAt: entry.VisibleAt, claimedBy: entry.ClaimedBy, lastError: "", completedAt: time.Now()})
}

// Retry returns a processing entry to pending after a handler failure, hiding it
// until nextVisibleAt
func (entryRepo *QueueEntryDBRepository) Retry(entry *data.QueueEntry, handlerErr string, nextVisibleAt time.Time) error {
	if entry == nil || entry.Status != data.EntryProcessing {
		return ErrInvalidStateToSave
	}
	return entryRepo.transition(entry, &entryTransition{status: data.EntryPending, attempts: entry.Attempts,
		visibleAt: nextVisibleAt, claimedBy: "", lastError: handlerErr})
}

// MarkDead transitions a processing entry to dead once attempts are exhausted
func (entryRepo *QueueEntryDBRepository) MarkDead(entry *data.QueueEntry, handlerErr string) error {
	if entry == nil || entry.Status != data.EntryProcessing {
		return ErrInvalidStateToSave
	}
	return entryRepo.transition(entry, &entryTransition{status: data.EntryDead, attempts: entry.Attempts,
		visibleAt: entry.VisibleAt, claimedBy: entry.ClaimedBy, lastError: handlerErr})
}

// Recover returns a timed out processing entry to pending with immediate visibility.
// The token rotation makes any still-running zombie holder's subsequent writes fail.
func (entryRepo *QueueEntryDBRepository) Recover(entry *data.QueueEntry) error {
	if entry == nil || entry.Status != data.EntryProcessing {
		return ErrInvalidStateToSave
	}
	return entryRepo.transition(entry, &entryTransition{status: data.EntryPending, attempts: entry.Attempts,
		visibleAt: time.Now(), claimedBy: "", lastError: entry.LastError})
}

// GetByID loads the queue entry with specified id if it exists, else returns an error
func (entryRepo *QueueEntryDBRepository) GetByID(id string) (entry *data.QueueEntry, err error) {
	entry = &data.QueueEntry{}
	err = querySingleRow(entryRepo.db, entryCommonSelectQuery+" id = ?", args2SliceFnWrapper(id),
		args2SliceFnWrapper(entryScanDestinations(entry)...))
	return entry, err
}

// GetList retrieves entries in a status page by page
func (entryRepo *QueueEntryDBRepository) GetList(status data.EntryStatus, page *data.Pagination) ([]*data.QueueEntry, *data.Pagination, error) {
	entries := make([]*data.QueueEntry, 0)
	pagination := &data.Pagination{}
	if page == nil || (page.Next != nil && page.Previous != nil) {
		return entries, pagination, ErrPaginationDeadlock
	}
	baseQuery := entryCommonSelectQuery + " status = ?" + getPaginationQueryFragment(page, true)
	entries, err := entryRepo.getEntries(baseQuery, appendWithPaginationArgs(page, status))
	if err == nil {
		entryCount := len(entries)
		if entryCount > 0 {
			pagination = data.NewPagination(entries[entryCount-1], entries[0])
		}
	}
	return entries, pagination, err
}

// GetStatusCounts retrieves the number of entries per lifecycle status
func (entryRepo *QueueEntryDBRepository) GetStatusCounts() (map[data.EntryStatus]int64, error) {
	counts := make(map[data.EntryStatus]int64)
	var status data.EntryStatus
	var count int64
	scanArgs := func() []interface{} {
		counts[status] = count
		return []interface{}{&status, &count}
	}
	err := queryRows(entryRepo.db, "SELECT status, COUNT(id) FROM queue_entry GROUP BY status", nilArgs, scanArgs)
	if err == nil {
		counts[status] = count
	}
	delete(counts, 0)
	return counts, err
}

// NewQueueEntryRepository creates a new instance of QueueEntryRepository
func NewQueueEntryRepository(db *sql.DB) QueueEntryRepository {
	panicIfNoDBConnectionPool(db)
	return &QueueEntryDBRepository{db: db}
}
