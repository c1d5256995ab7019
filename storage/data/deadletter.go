package data

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/xid"
)

// ErrorHistory is the ordered list of handler errors an entry accumulated before dying
type ErrorHistory []string

// Scan de-serializes ErrorHistory for reading from DB
func (history *ErrorHistory) Scan(value interface{}) error {
	if value == nil {
		*history = ErrorHistory{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if stringVal, isString := value.(string); isString {
			bytes = []byte(stringVal)
		} else {
			return errors.New("ErrorHistory must be a byte array")
		}
	}
	return json.Unmarshal(bytes, history)
}

// Value serializes ErrorHistory to write to DB
func (history ErrorHistory) Value() (driver.Value, error) {
	return json.Marshal(history)
}

// DeadLetterEntry is the terminal copy of an exhausted QueueEntry along with its error
// history and attempt count. Dead entries are never reprocessed automatically.
type DeadLetterEntry struct {
	BasePaginateable
	EntryID      xid.ID
	JobType      string
	Payload      string
	Attempts     uint
	ErrorHistory ErrorHistory
	DeadAt       time.Time
}

// QuickFix fixes the object state automatically as much as possible
func (deadLetter *DeadLetterEntry) QuickFix() bool {
	madeChanges := deadLetter.BasePaginateable.QuickFix()
	if deadLetter.DeadAt.IsZero() {
		deadLetter.DeadAt = time.Now()
		madeChanges = true
	}
	if deadLetter.ErrorHistory == nil {
		deadLetter.ErrorHistory = ErrorHistory{}
		madeChanges = true
	}
	return madeChanges
}

// IsInValidState returns false if the source entry id, job type or payload is missing
func (deadLetter *DeadLetterEntry) IsInValidState() bool {
	valid := true
	if deadLetter.EntryID.IsNil() || len(deadLetter.JobType) <= 0 || len(deadLetter.Payload) <= 0 {
		valid = false
	}
	if valid && deadLetter.DeadAt.IsZero() {
		valid = false
	}
	return valid
}

// NewDeadLetterEntry copies the exhausted entry into a dead letter record; returns
// insufficient info error if the entry can not be dead lettered
func NewDeadLetterEntry(entry *QueueEntry) (deadLetter *DeadLetterEntry, err error) {
	if entry == nil {
		return nil, ErrInsufficientInformationForCreating
	}
	deadLetter = &DeadLetterEntry{EntryID: entry.ID, JobType: entry.JobType, Payload: entry.Payload, Attempts: entry.Attempts}
	if len(entry.LastError) > 0 {
		deadLetter.ErrorHistory = ErrorHistory{entry.LastError}
	}
	deadLetter.QuickFix()
	if !deadLetter.IsInValidState() {
		err = ErrInsufficientInformationForCreating
	}
	return deadLetter, err
}
