package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdesk-hq/helpdesk/internal/domain"
	"github.com/helpdesk-hq/helpdesk/internal/events"
	"github.com/helpdesk-hq/helpdesk/internal/repository"
)

type fakeTicketRepo struct {
	tickets map[int64]*domain.Ticket
	nextID  int64
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[int64]*domain.Ticket{}, nextID: 1}
}

func (f *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	ticket.ID = f.nextID
	f.nextID++
	copied := *ticket
	f.tickets[ticket.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) GetWithCreator(ctx context.Context, id int64) (*domain.TicketWithCreator, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.TicketWithCreator{Ticket: *ticket, CreatorName: "Test User", CreatorEmail: "user@example.com"}, nil
}

func (f *fakeTicketRepo) ListAll(ctx context.Context) ([]domain.TicketWithCreator, error) {
	out := make([]domain.TicketWithCreator, 0, len(f.tickets))
	for id := int64(1); id < f.nextID; id++ {
		if ticket, ok := f.tickets[id]; ok {
			out = append(out, domain.TicketWithCreator{Ticket: *ticket, CreatorName: "Test User", CreatorEmail: "user@example.com"})
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for id := int64(1); id < f.nextID; id++ {
		ticket, ok := f.tickets[id]
		if !ok {
			continue
		}
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, *ticket)
	}
	return out, nil
}

func (f *fakeTicketRepo) UpdateStatus(ctx context.Context, id int64, status domain.TicketStatus) error {
	ticket, ok := f.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	ticket.Status = status
	return nil
}

type fakeHistoryRepo struct {
	entries []domain.TicketHistory
}

func (f *fakeHistoryRepo) Create(ctx context.Context, entry *domain.TicketHistory) error {
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID int64, limit, offset int) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	for _, e := range f.entries {
		if e.TicketID == ticketID {
			out = append(out, e)
		}
	}
	return out, nil
}

type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func newTestTicketService() (*TicketService, *fakeTicketRepo, *fakeHistoryRepo, *recordingDispatcher) {
	tickets := newFakeTicketRepo()
	history := &fakeHistoryRepo{}
	dispatcher := &recordingDispatcher{}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:  tickets,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
	})
	return svc, tickets, history, dispatcher
}

func regularUser(id int64) *domain.User {
	return &domain.User{ID: id, Name: "User", Email: "user@example.com", Role: domain.UserRoleUser}
}

func adminUser(id int64) *domain.User {
	return &domain.User{ID: id, Name: "Admin", Email: "admin@example.com", Role: domain.UserRoleAdmin}
}

func TestCreateTicketDefaultsAndEvent(t *testing.T) {
	svc, _, _, dispatcher := newTestTicketService()

	ticket, err := svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "  VPN down  "})
	require.NoError(t, err)
	assert.Equal(t, "VPN down", ticket.Title)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)

	require.Len(t, dispatcher.published, 1)
	assert.Equal(t, events.EventTicketCreated, dispatcher.published[0].Type)
	assert.NotEmpty(t, dispatcher.published[0].ID)
}

func TestCreateTicketValidation(t *testing.T) {
	svc, _, _, _ := newTestTicketService()

	_, err := svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "   "})
	assert.Error(t, err)

	_, err = svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "x", Priority: "urgent"})
	assert.Error(t, err)
}

func TestGetTicketForUserOwnership(t *testing.T) {
	svc, _, _, _ := newTestTicketService()
	created, err := svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.GetTicketForUser(context.Background(), regularUser(1), created.ID)
	assert.NoError(t, err)

	_, err = svc.GetTicketForUser(context.Background(), regularUser(2), created.ID)
	assert.Error(t, err)

	_, err = svc.GetTicketForUser(context.Background(), adminUser(99), created.ID)
	assert.NoError(t, err)
}

func TestUpdateStatusGuards(t *testing.T) {
	svc, _, history, dispatcher := newTestTicketService()
	created, err := svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(context.Background(), regularUser(1), created.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, updated.Status)

	require.Len(t, history.entries, 1)
	assert.Equal(t, domain.ChangeTypeStatus, history.entries[0].ChangeType)
	require.NotNil(t, history.entries[0].ChangedBy)
	assert.Equal(t, int64(1), *history.entries[0].ChangedBy)

	// Closed is terminal.
	_, err = svc.UpdateStatus(context.Background(), regularUser(1), created.ID, domain.TicketStatusOpen)
	assert.Error(t, err)

	// Unknown status rejected.
	_, err = svc.UpdateStatus(context.Background(), regularUser(1), created.ID, "banana")
	assert.Error(t, err)

	var types []events.EventType
	for _, e := range dispatcher.published {
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.EventType{events.EventTicketCreated, events.EventTicketStatusChanged}, types)
}

func TestMarkEscalated(t *testing.T) {
	svc, tickets, history, dispatcher := newTestTicketService()
	created, err := svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkEscalated(context.Background(), created.ID, "session-1"))
	assert.Equal(t, domain.TicketStatusEscalated, tickets.tickets[created.ID].Status)

	require.Len(t, history.entries, 1)
	assert.Equal(t, domain.ChangeTypeEscalation, history.entries[0].ChangeType)
	assert.Nil(t, history.entries[0].ChangedBy)

	// Escalating twice is a no-op.
	require.NoError(t, svc.MarkEscalated(context.Background(), created.ID, "session-1"))
	assert.Len(t, history.entries, 1)

	var escalations int
	for _, e := range dispatcher.published {
		if e.Type == events.EventTicketEscalated {
			escalations++
			payload, ok := e.Payload.(events.TicketEscalatedPayload)
			require.True(t, ok)
			assert.Equal(t, "session-1", payload.SessionID)
			assert.Equal(t, domain.TicketStatusOpen, payload.OldStatus)
		}
	}
	assert.Equal(t, 1, escalations)
}

func TestDashboardSegments(t *testing.T) {
	svc, tickets, _, _ := newTestTicketService()

	a, err := svc.CreateTicket(context.Background(), 1, TicketCreateInput{Title: "a"})
	require.NoError(t, err)
	_, err = svc.CreateTicket(context.Background(), 2, TicketCreateInput{Title: "b"})
	require.NoError(t, err)
	require.NoError(t, tickets.UpdateStatus(context.Background(), a.ID, domain.TicketStatusEscalated))

	segments, err := svc.DashboardSegments(context.Background(), adminUser(9))
	require.NoError(t, err)
	require.Len(t, segments, 5)

	byStatus := map[domain.TicketStatus]int{}
	for _, seg := range segments {
		byStatus[seg.Status] = len(seg.Tickets)
	}
	assert.Equal(t, 1, byStatus[domain.TicketStatusOpen])
	assert.Equal(t, 1, byStatus[domain.TicketStatusEscalated])
	assert.Equal(t, 0, byStatus[domain.TicketStatusClosed])

	// Non-admin only sees their own tickets.
	segments, err = svc.DashboardSegments(context.Background(), regularUser(2))
	require.NoError(t, err)
	total := 0
	for _, seg := range segments {
		total += len(seg.Tickets)
	}
	assert.Equal(t, 1, total)
}
