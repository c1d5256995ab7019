package storage

import (
	"database/sql"

	"github.com/newscred/task-broker/storage/data"
)

const (
	deadLetterCommonSelectQuery = "SELECT id, entryId, jobType, payload, attempts, errorHistory, deadAt, createdAt, updatedAt FROM dead_letter"
)

// DeadLetterDBRepository is the DeadLetterRepository's RDBMS implementation
type DeadLetterDBRepository struct {
	db *sql.DB
}

// Store persists the dead letter copy of an exhausted entry; storing the same source
// entry twice is a duplicate error surfaced from the unique constraint
func (dlRepo *DeadLetterDBRepository) Store(deadLetter *data.DeadLetterEntry) error {
	if deadLetter == nil || !deadLetter.IsInValidState() {
		return ErrInvalidStateToSave
	}
	return normalizeDBError(transactionalSingleRowWriteExec(dlRepo.db, emptyOps,
		"INSERT INTO dead_letter (id, entryId, jobType, payload, attempts, errorHistory, deadAt, createdAt, updatedAt) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		args2SliceFnWrapper(deadLetter.ID, deadLetter.EntryID, deadLetter.JobType, deadLetter.Payload, deadLetter.Attempts,
			deadLetter.ErrorHistory, deadLetter.DeadAt, deadLetter.CreatedAt, deadLetter.UpdatedAt)), entryErrorMap)
}

func deadLetterScanDestinations(deadLetter *data.DeadLetterEntry) []interface{} {
	return []interface{}{&deadLetter.ID, &deadLetter.EntryID, &deadLetter.JobType, &deadLetter.Payload,
		&deadLetter.Attempts, &deadLetter.ErrorHistory, &deadLetter.DeadAt, &deadLetter.CreatedAt, &deadLetter.UpdatedAt}
}

// Get loads a dead letter record by the source entry id
func (dlRepo *DeadLetterDBRepository) Get(entryID string) (deadLetter *data.DeadLetterEntry, err error) {
	deadLetter = &data.DeadLetterEntry{}
	err = querySingleRow(dlRepo.db, deadLetterCommonSelectQuery+" WHERE entryId = ?", args2SliceFnWrapper(entryID),
		args2SliceFnWrapper(deadLetterScanDestinations(deadLetter)...))
	return deadLetter, err
}

// GetList retrieves dead letters page by page
func (dlRepo *DeadLetterDBRepository) GetList(page *data.Pagination) ([]*data.DeadLetterEntry, *data.Pagination, error) {
	deadLetters := make([]*data.DeadLetterEntry, 0)
	pagination := &data.Pagination{}
	if page == nil || (page.Next != nil && page.Previous != nil) {
		return deadLetters, pagination, ErrPaginationDeadlock
	}
	scanArgs := func() []interface{} {
		deadLetter := &data.DeadLetterEntry{}
		deadLetters = append(deadLetters, deadLetter)
		return deadLetterScanDestinations(deadLetter)
	}
	baseQuery := deadLetterCommonSelectQuery + getPaginationQueryFragment(page, false)
	err := queryRows(dlRepo.db, baseQuery, args2SliceFnWrapper(getPaginationTimestampQueryArgs(page)...), scanArgs)
	if err == nil {
		deadLetterCount := len(deadLetters)
		if deadLetterCount > 0 {
			pagination = data.NewPagination(deadLetters[deadLetterCount-1], deadLetters[0])
		}
	}
	return deadLetters, pagination, err
}

// Count retrieves the total number of dead letters
func (dlRepo *DeadLetterDBRepository) Count() (count int64, err error) {
	err = querySingleRow(dlRepo.db, "SELECT COUNT(id) FROM dead_letter", nilArgs, args2SliceFnWrapper(&count))
	return count, err
}

// NewDeadLetterRepository creates a new instance of DeadLetterRepository
func NewDeadLetterRepository(db *sql.DB) DeadLetterRepository {
	panicIfNoDBConnectionPool(db)
	return &DeadLetterDBRepository{db: db}
}
