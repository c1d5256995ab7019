package data

import (
	"time"

	"github.com/rs/xid"
)

// Ticket is an advisory short-lived pointer to a pending QueueEntry published by the
// coordinator so followers can skip direct polling. Claiming a ticket never
// substitutes for the authoritative QueueEntry conditional claim.
type Ticket struct {
	ID          xid.ID
	EntryID     xid.ID
	PublishedAt time.Time
	ExpiresAt   time.Time
	ClaimedBy   string
}

// IsExpired returns whether the ticket's TTL has lapsed
func (ticket *Ticket) IsExpired() bool {
	return !ticket.ExpiresAt.After(time.Now())
}

// NewTicket creates a ticket for the entry with the TTL; returns insufficient info
// error if the entry is nil or the TTL is not positive
func NewTicket(entry *QueueEntry, ttl time.Duration) (ticket *Ticket, err error) {
	if entry == nil || ttl <= 0 {
		err = ErrInsufficientInformationForCreating
	} else {
		now := time.Now()
		ticket = &Ticket{ID: xid.New(), EntryID: entry.ID, PublishedAt: now, ExpiresAt: now.Add(ttl)}
	}
	return ticket, err
}
