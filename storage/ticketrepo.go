package storage

import (
	"database/sql"
	"errors"
	"time"

	"github.com/newscred/task-broker/storage/data"
)

// ErrTicketClaimed is returned when a ticket claim loses to another worker or the
// ticket already expired
var ErrTicketClaimed = errors.New("ticket already claimed or expired")

const (
	ticketCommonSelectQuery = "SELECT id, entryId, publishedAt, expiresAt, claimedBy FROM ticket WHERE"
	// guarded insert so republishing an already-ticketed entry is a silent no-op;
	// the seed subselect keeps the statement valid on both dialects
	ticketInsertStatement = "INSERT INTO ticket (id, entryId, publishedAt, expiresAt, claimedBy) SELECT ?, ?, ?, ?, ? FROM (SELECT 1) AS seed WHERE NOT EXISTS (SELECT 1 FROM ticket WHERE entryId = ? AND claimedBy = '' AND expiresAt > ?)"
)

// TicketDBRepository represents the RDBMS implementation of TicketRepository.
// Tickets are advisory; nothing in here substitutes for the queue entry's
// authoritative conditional claim.
type TicketDBRepository struct {
	db *sql.DB
}

// Publish stores tickets for the given entries skipping any entry that already has an
// open unexpired ticket
func (ticketRepo *TicketDBRepository) Publish(tickets []*data.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	currentTime := time.Now()
	ops := make([]func(tx *sql.Tx) error, 0, len(tickets))
	for _, ticket := range tickets {
		if ticket == nil || ticket.EntryID.IsNil() {
			return ErrInvalidStateToSave
		}
		args := args2SliceFnWrapper(ticket.ID, ticket.EntryID, ticket.PublishedAt, ticket.ExpiresAt, ticket.ClaimedBy,
			ticket.EntryID, currentTime)
		ops = append(ops, func(tx *sql.Tx) error {
			return inTransactionExec(tx, emptyOps, ticketInsertStatement, args, int64(0))
		})
	}
	return transactionalWrites(ticketRepo.db, ops...)
}

// ListOpen retrieves up to maxTickets unclaimed non-expired tickets oldest first
func (ticketRepo *TicketDBRepository) ListOpen(maxTickets int) (tickets []*data.Ticket, err error) {
	tickets = make([]*data.Ticket, 0)
	if maxTickets <= 0 {
		return tickets, nil
	}
	scanArgs := func() []interface{} {
		ticket := &data.Ticket{}
		tickets = append(tickets, ticket)
		return []interface{}{&ticket.ID, &ticket.EntryID, &ticket.PublishedAt, &ticket.ExpiresAt, &ticket.ClaimedBy}
	}
	err = queryRows(ticketRepo.db, ticketCommonSelectQuery+" claimedBy = '' AND expiresAt > ? ORDER BY publishedAt asc, id asc LIMIT ?",
		args2SliceFnWrapper(time.Now(), maxTickets), scanArgs)
	return tickets, err
}

// Claim claims the ticket for workerID; exactly one concurrent claimer succeeds
func (ticketRepo *TicketDBRepository) Claim(ticket *data.Ticket, workerID string) (err error) {
	if ticket == nil || len(workerID) <= 0 {
		return ErrInvalidStateToSave
	}
	err = transactionalSingleRowWriteExec(ticketRepo.db, emptyOps,
		"UPDATE ticket SET claimedBy = ? WHERE id = ? AND claimedBy = '' AND expiresAt > ?",
		args2SliceFnWrapper(workerID, ticket.ID, time.Now()))
	if err == ErrNoRowsUpdated {
		err = ErrTicketClaimed
	}
	if err == nil {
		ticket.ClaimedBy = workerID
	}
	return err
}

// PurgeExpired removes expired and claimed tickets
func (ticketRepo *TicketDBRepository) PurgeExpired() (err error) {
	err = transactionalWrites(ticketRepo.db, func(tx *sql.Tx) error {
		return inTransactionExec(tx, emptyOps, "DELETE FROM ticket WHERE expiresAt <= ? OR claimedBy <> ''",
			args2SliceFnWrapper(time.Now()), int64(0))
	})
	return err
}

// NewTicketRepository creates a new instance of TicketRepository
func NewTicketRepository(db *sql.DB) TicketRepository {
	panicIfNoDBConnectionPool(db)
	return &TicketDBRepository{db: db}
}
