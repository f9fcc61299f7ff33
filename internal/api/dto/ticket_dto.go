package dto

import (
	"time"

	"github.com/helpdesk-hq/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Priority    domain.TicketPriority `json:"priority"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// TicketSummary response.
type TicketSummary struct {
	ID        int64                 `json:"id"`
	Title     string                `json:"title"`
	Status    domain.TicketStatus   `json:"status"`
	Priority  domain.TicketPriority `json:"priority"`
	CreatedBy int64                 `json:"created_by"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including the submitter.
type TicketDetailResponse struct {
	ID           int64                   `json:"id"`
	Title        string                  `json:"title"`
	Description  string                  `json:"description"`
	Status       domain.TicketStatus     `json:"status"`
	Priority     domain.TicketPriority   `json:"priority"`
	CreatedBy    int64                   `json:"created_by"`
	CreatorName  string                  `json:"creator_name"`
	CreatorEmail string                  `json:"creator_email"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
	History      []TicketHistoryResponse `json:"history,omitempty"`
}

// TicketHistoryResponse represents one audit entry.
type TicketHistoryResponse struct {
	ID         int64                   `json:"id"`
	ChangeType domain.TicketChangeType `json:"change_type"`
	ChangedBy  *int64                  `json:"changed_by,omitempty"`
	OldValue   map[string]any          `json:"old_value"`
	NewValue   map[string]any          `json:"new_value"`
	CreatedAt  time.Time               `json:"created_at"`
}

// DashboardSegmentResponse groups ticket summaries by status.
type DashboardSegmentResponse struct {
	Status  domain.TicketStatus    `json:"status"`
	Count   int                    `json:"count"`
	Tickets []TicketDetailResponse `json:"tickets"`
}
