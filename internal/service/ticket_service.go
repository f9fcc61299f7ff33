package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/helpdesk-hq/helpdesk/internal/assistant"
	"github.com/helpdesk-hq/helpdesk/internal/domain"
	"github.com/helpdesk-hq/helpdesk/internal/events"
	"github.com/helpdesk-hq/helpdesk/internal/repository"
	apperrors "github.com/helpdesk-hq/helpdesk/pkg/util"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles repositories for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketUserFilter describes listing filters.
type TicketUserFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// DashboardSegment groups tickets that share a status.
type DashboardSegment struct {
	Status  domain.TicketStatus
	Tickets []domain.TicketWithCreator
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket creates a ticket for a user.
func (s *TicketService) CreateTicket(ctx context.Context, userID int64, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}

	ticket := &domain.Ticket{
		CreatedBy:   userID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(ticket.Priority) {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: &userID},
		Payload: events.TicketCreatedPayload{
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// ListUserTickets returns paginated tickets created by the user.
func (s *TicketService) ListUserTickets(ctx context.Context, userID int64, filter TicketUserFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		CreatedBy:   &userID,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicketForUser fetches a ticket; non-admins may only read their own.
func (s *TicketService) GetTicketForUser(ctx context.Context, user *domain.User, ticketID int64) (*domain.TicketWithCreator, error) {
	ticket, err := s.tickets.GetWithCreator(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if user.Role != domain.UserRoleAdmin && ticket.CreatedBy != user.ID {
		return nil, apperrors.NewForbidden("ticket belongs to another user")
	}
	return ticket, nil
}

// ListAllTickets returns every ticket with creator details, newest first.
func (s *TicketService) ListAllTickets(ctx context.Context) ([]domain.TicketWithCreator, error) {
	return s.tickets.ListAll(ctx)
}

// DashboardSegments buckets tickets by status for the dashboard view.
// Non-admin users only see their own tickets. Every status appears, empty
// buckets included, in lifecycle order.
func (s *TicketService) DashboardSegments(ctx context.Context, user *domain.User) ([]DashboardSegment, error) {
	all, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	order := []domain.TicketStatus{
		domain.TicketStatusOpen,
		domain.TicketStatusInProgress,
		domain.TicketStatusEscalated,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	}
	buckets := make(map[domain.TicketStatus][]domain.TicketWithCreator, len(order))
	for _, ticket := range all {
		if user.Role != domain.UserRoleAdmin && ticket.CreatedBy != user.ID {
			continue
		}
		buckets[ticket.Status] = append(buckets[ticket.Status], ticket)
	}

	segments := make([]DashboardSegment, 0, len(order))
	for _, status := range order {
		segments = append(segments, DashboardSegment{
			Status:  status,
			Tickets: buckets[status],
		})
	}
	return segments, nil
}

// UpdateStatus changes a ticket's status on behalf of a user.
func (s *TicketService) UpdateStatus(ctx context.Context, user *domain.User, ticketID int64, newStatus domain.TicketStatus) (*domain.Ticket, error) {
	if !domain.ValidStatus(newStatus) {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": newStatus})
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if user.Role != domain.UserRoleAdmin && ticket.CreatedBy != user.ID {
		return nil, apperrors.NewForbidden("ticket belongs to another user")
	}
	if ticket.Status.Terminal() {
		return nil, apperrors.NewConflict("ticket status cannot change once closed", nil)
	}

	oldStatus := ticket.Status
	if err := s.tickets.UpdateStatus(ctx, ticketID, newStatus); err != nil {
		return nil, err
	}
	ticket.Status = newStatus

	if err := s.recordStatusChange(ctx, &user.ID, ticketID, domain.ChangeTypeStatus, oldStatus, newStatus); err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticketID,
		Actor:    events.Actor{UserID: &user.ID},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
		},
	})
	return ticket, nil
}

// ListHistory returns audit entries for a ticket the user may read.
func (s *TicketService) ListHistory(ctx context.Context, user *domain.User, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, err
	}
	if user.Role != domain.UserRoleAdmin && ticket.CreatedBy != user.ID {
		return nil, apperrors.NewForbidden("ticket belongs to another user")
	}
	return s.history.ListByTicket(ctx, ticketID, limit, offset)
}

// FindWithCreator implements assistant.TicketSource.
func (s *TicketService) FindWithCreator(ctx context.Context, id int64) (*domain.TicketWithCreator, error) {
	return s.tickets.GetWithCreator(ctx, id)
}

// MarkEscalated implements assistant.TicketSource: sets the ticket to
// escalated, records history, and publishes an escalation event.
func (s *TicketService) MarkEscalated(ctx context.Context, id int64, sessionID string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ticket.Status == domain.TicketStatusEscalated {
		return nil
	}

	oldStatus := ticket.Status
	if err := s.tickets.UpdateStatus(ctx, id, domain.TicketStatusEscalated); err != nil {
		return err
	}

	if err := s.recordStatusChange(ctx, nil, id, domain.ChangeTypeEscalation, oldStatus, domain.TicketStatusEscalated); err != nil {
		return err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketEscalated,
		TicketID: id,
		Payload: events.TicketEscalatedPayload{
			OldStatus: oldStatus,
			SessionID: sessionID,
		},
	})
	return nil
}

func (s *TicketService) recordStatusChange(ctx context.Context, actorID *int64, ticketID int64, changeType domain.TicketChangeType, oldStatus, newStatus domain.TicketStatus) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangedBy:  actorID,
		ChangeType: changeType,
		OldValue:   map[string]any{"status": oldStatus},
		NewValue:   map[string]any{"status": newStatus},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// interface conformance check
var _ assistant.TicketSource = (*TicketService)(nil)
