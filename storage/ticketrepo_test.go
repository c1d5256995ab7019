package storage

import (
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/newscred/task-broker/storage/data"
	"github.com/stretchr/testify/assert"
)

var ticketColumns = []string{"id", "entryId", "publishedAt", "expiresAt", "claimedBy"}

func getSampleTicket(t *testing.T) *data.Ticket {
	ticket, err := data.NewTicket(getSampleEntry(t), 30*time.Second)
	assert.Nil(t, err)
	return ticket
}

func TestTicketPublish(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		first := getSampleTicket(t)
		second := getSampleTicket(t)
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ticket").WithArgs(anyArgs(7)...).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO ticket").WithArgs(anyArgs(7)...).WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectCommit()
		assert.Nil(t, ticketRepo.Publish([]*data.Ticket{first, second}))
		assert.Nil(t, mock.ExpectationsWereMet())
	})
	t.Run("EmptyBatch", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		assert.Nil(t, ticketRepo.Publish(nil))
	})
	t.Run("InvalidTicket", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		assert.Equal(t, ErrInvalidStateToSave, ticketRepo.Publish([]*data.Ticket{nil}))
		assert.Equal(t, ErrInvalidStateToSave, ticketRepo.Publish([]*data.Ticket{{}}))
	})
	t.Run("InsertError", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		expectedErr := errors.New("insert error")
		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO ticket").WillReturnError(expectedErr)
		mock.ExpectRollback()
		assert.Equal(t, expectedErr, ticketRepo.Publish([]*data.Ticket{getSampleTicket(t)}))
	})
}

func TestTicketListOpen(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		ticket := getSampleTicket(t)
		rows := sqlmock.NewRows(ticketColumns).AddRow(ticket.ID, ticket.EntryID, ticket.PublishedAt, ticket.ExpiresAt, ticket.ClaimedBy)
		mock.ExpectQuery("SELECT id, entryId").WithArgs(sqlmock.AnyArg(), 100).WillReturnRows(rows)
		tickets, err := ticketRepo.ListOpen(100)
		assert.Nil(t, err)
		assert.Equal(t, 1, len(tickets))
		assert.Equal(t, ticket.EntryID, tickets[0].EntryID)
	})
	t.Run("NonPositiveBatch", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		tickets, err := ticketRepo.ListOpen(0)
		assert.Nil(t, err)
		assert.Empty(t, tickets)
	})
}

func TestTicketClaim(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		ticket := getSampleTicket(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE ticket").WithArgs("worker-1", ticket.ID, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()
		assert.Nil(t, ticketRepo.Claim(ticket, "worker-1"))
		assert.Equal(t, "worker-1", ticket.ClaimedBy)
	})
	t.Run("LostRace", func(t *testing.T) {
		t.Parallel()
		db, mock, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		ticket := getSampleTicket(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE ticket").WithArgs(anyArgs(3)...).WillReturnResult(sqlmock.NewResult(1, 0))
		mock.ExpectCommit()
		assert.Equal(t, ErrTicketClaimed, ticketRepo.Claim(ticket, "worker-1"))
		assert.Equal(t, "", ticket.ClaimedBy)
	})
	t.Run("InvalidInputs", func(t *testing.T) {
		t.Parallel()
		db, _, _ := sqlmock.New()
		ticketRepo := &TicketDBRepository{db: db}
		assert.Equal(t, ErrInvalidStateToSave, ticketRepo.Claim(nil, "worker-1"))
		assert.Equal(t, ErrInvalidStateToSave, ticketRepo.Claim(getSampleTicket(t), ""))
	})
}

func TestTicketPurgeExpired(t *testing.T) {
	db, mock, _ := sqlmock.New()
	ticketRepo := &TicketDBRepository{db: db}
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM ticket").WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(1, 4))
	mock.ExpectCommit()
	assert.Nil(t, ticketRepo.PurgeExpired())
}
