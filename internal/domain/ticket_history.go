package domain

import "time"

// TicketChangeType identifies what a history entry records.
type TicketChangeType string

const (
	ChangeTypeStatus     TicketChangeType = "status"
	ChangeTypeEscalation TicketChangeType = "escalation"
)

// TicketHistory is an audit entry for a ticket mutation.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ChangedBy  *int64 // nil when the assistant triggered the change
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
