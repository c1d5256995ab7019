package data

import (
	"strconv"
	"time"
)

// EntryStatus represents the queue entry lifecycle status
type EntryStatus int

func (status EntryStatus) String() string {
	switch status {
	case EntryPending:
		return EntryPendingStr
	case EntryProcessing:
		return EntryProcessingStr
	case EntryCompleted:
		return EntryCompletedStr
	case EntryDead:
		return EntryDeadStr
	default:
		return strconv.Itoa(int(status))
	}
}

const (
	queueEntryLockPrefix = "qe-"
	// EntryPending is the entry status while it awaits a successful claim
	EntryPending EntryStatus = iota + 1000
	// EntryProcessing signifies that a worker holds the claim on the current version
	EntryProcessing
	// EntryCompleted signifies the handler finished successfully
	EntryCompleted
	// EntryDead signifies retry has taken its toll and the entry is dead-lettered
	EntryDead
	// EntryPendingStr is the string rep of EntryPending
	EntryPendingStr = "PENDING"
	// EntryProcessingStr is the string rep of EntryProcessing
	EntryProcessingStr = "PROCESSING"
	// EntryCompletedStr is the string rep of EntryCompleted
	EntryCompletedStr = "COMPLETED"
	// EntryDeadStr is the string rep of EntryDead
	EntryDeadStr = "DEAD"
)

// QueueEntry represents a single unit of deliverable work. It is pollable only while
// Status is EntryPending and VisibleAt is not in the future.
type QueueEntry struct {
	BaseVersioned
	JobType     string
	Payload     string
	DedupKey    string
	Status      EntryStatus
	Attempts    uint
	VisibleAt   time.Time
	ClaimedBy   string
	LastError   string
	CompletedAt time.Time
}

// QuickFix fixes the object state automatically as much as possible
func (entry *QueueEntry) QuickFix() bool {
	madeChanges := entry.BaseVersioned.QuickFix()
	if entry.VisibleAt.IsZero() {
		entry.VisibleAt = time.Now()
		madeChanges = true
	}
	switch entry.Status {
	case EntryPending:
	case EntryProcessing:
	case EntryCompleted:
	case EntryDead:
	default:
		entry.Status = EntryPending
		madeChanges = true
	}
	return madeChanges
}

// IsInValidState returns false if job type or payload is empty, status is not
// recognized or visibility timestamp is not set. Call QuickFix before IsInValidState.
func (entry *QueueEntry) IsInValidState() bool {
	valid := true
	if len(entry.JobType) <= 0 || len(entry.Payload) <= 0 {
		valid = false
	}
	if valid && entry.Status != EntryPending && entry.Status != EntryProcessing && entry.Status != EntryCompleted && entry.Status != EntryDead {
		valid = false
	}
	if valid && entry.VisibleAt.IsZero() {
		valid = false
	}
	return valid
}

// IsPollable returns whether the entry would currently be returned by a poll
func (entry *QueueEntry) IsPollable() bool {
	return entry.Status == EntryPending && !entry.VisibleAt.After(time.Now())
}

// GetLockID retrieves the Lock ID representing this instance of QueueEntry
func (entry *QueueEntry) GetLockID() string {
	return queueEntryLockPrefix + entry.ID.String()
}

// NewQueueEntry creates a new instance of QueueEntry; returns insufficient info error
// if parameters are not valid for a new QueueEntry
func NewQueueEntry(jobType string, payload string) (entry *QueueEntry, err error) {
	entry = &QueueEntry{JobType: jobType, Payload: payload, Status: EntryPending}
	entry.QuickFix()
	if !entry.IsInValidState() {
		err = ErrInsufficientInformationForCreating
	}
	return entry, err
}
