package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/helpdesk-hq/helpdesk/internal/assistant/session"
	"github.com/helpdesk-hq/helpdesk/internal/domain"
	"github.com/helpdesk-hq/helpdesk/internal/observability"
)

// escalationPhrase triggers a ticket status change when found in a reply.
const escalationPhrase = "escalating this issue to a human"

// noTicketsMessage is returned by SummarizeTickets for an empty input.
const noTicketsMessage = "There are currently no tickets to summarize."

// TicketSource is the assistant's view of the ticket repository: lookup for
// context assembly and the escalation status update.
type TicketSource interface {
	FindWithCreator(ctx context.Context, id int64) (*domain.TicketWithCreator, error)
	MarkEscalated(ctx context.Context, id int64, sessionID string) error
}

// TicketSummary carries the fields enumerated in a summarization prompt.
type TicketSummary struct {
	ID             int64
	Title          string
	Description    string
	Priority       domain.TicketPriority
	Status         domain.TicketStatus
	SubmitterName  string
	SubmitterEmail string
}

// ChatResult is the outcome of one chat turn.
type ChatResult struct {
	Reply     string
	SessionID string
}

// Service assembles ticket context, dispatches prompts to the model gateway,
// and maintains conversation state.
type Service struct {
	store           *session.Store
	gateway         Gateway
	tickets         TicketSource
	logger          *zap.Logger
	metrics         *observability.Metrics
	maxMessageChars int
}

// NewService constructs the assistant service.
func NewService(store *session.Store, gateway Gateway, tickets TicketSource, logger *zap.Logger, metrics *observability.Metrics, maxMessageChars int) *Service {
	if maxMessageChars <= 0 {
		maxMessageChars = 8000
	}
	return &Service{
		store:           store,
		gateway:         gateway,
		tickets:         tickets,
		logger:          logger,
		metrics:         metrics,
		maxMessageChars: maxMessageChars,
	}
}

// Store exposes the session store for the sweeper worker.
func (s *Service) Store() *session.Store {
	return s.store
}

// HandleChatTurn runs one conversation turn: validate the message, resolve
// the session, extract and persist a ticket reference, assemble context plus
// history, invoke the model, record the exchange, and apply escalation.
func (s *Service) HandleChatTurn(ctx context.Context, message, sessionID string) (*ChatResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, NewInvalidInput("message is required and must be a non-empty string")
	}
	if utf8.RuneCountInString(message) > s.maxMessageChars {
		return nil, NewInvalidInput(fmt.Sprintf("message exceeds the %d character limit", s.maxMessageChars))
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	unlock := s.store.LockSession(sessionID)
	defer unlock()

	if ticketID, ok := ExtractTicketID(message); ok {
		s.store.SetActiveTicket(sessionID, ticketID)
	}

	messages := make([]Message, 0, len(s.store.History(sessionID))+2)

	ticketID, bound := s.store.ActiveTicket(sessionID)
	if bound {
		block, err := s.buildTicketContext(ctx, ticketID)
		if err != nil {
			return nil, err
		}
		messages = append(messages, Message{Role: RoleSystem, Content: block})
	}

	for _, turn := range s.store.History(sessionID) {
		messages = append(messages, Message{Role: string(turn.Role), Content: turn.Content})
	}
	messages = append(messages, Message{Role: RoleUser, Content: message})

	reply, err := s.gateway.Generate(ctx, messages)
	if err != nil {
		s.metrics.RecordGatewayFailure()
		s.logger.Error("model gateway call failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, ClassifyGatewayError(err)
	}

	// History is only mutated once the model call succeeded.
	s.store.Append(sessionID, session.RoleUser, message)
	s.store.Append(sessionID, session.RoleAssistant, reply)

	if bound && strings.Contains(strings.ToLower(reply), escalationPhrase) {
		if err := s.tickets.MarkEscalated(ctx, ticketID, sessionID); err != nil {
			// Best-effort side effect; the reply has already been produced.
			s.logger.Warn("failed to escalate ticket",
				zap.Int64("ticket_id", ticketID),
				zap.String("session_id", sessionID),
				zap.Error(err))
		} else {
			s.metrics.RecordEscalation()
			s.logger.Info("ticket escalated",
				zap.Int64("ticket_id", ticketID),
				zap.String("session_id", sessionID))
		}
	}

	s.metrics.RecordChatTurn()
	return &ChatResult{Reply: reply, SessionID: sessionID}, nil
}

// ClearChatHistory removes the session's history and ticket binding.
func (s *Service) ClearChatHistory(sessionID string) error {
	if sessionID == "" {
		return NewMissingSessionID()
	}
	s.store.Clear(sessionID)
	return nil
}

// GetChatHistory returns the session's turns, oldest first.
func (s *Service) GetChatHistory(sessionID string) ([]session.Turn, error) {
	if sessionID == "" {
		return nil, NewMissingSessionID()
	}
	return s.store.History(sessionID), nil
}

// SummarizeTickets asks the model for a prose summary of the given tickets.
// An empty input returns a fixed message without calling the gateway.
func (s *Service) SummarizeTickets(ctx context.Context, tickets []TicketSummary) (string, error) {
	if len(tickets) == 0 {
		return noTicketsMessage, nil
	}

	var b strings.Builder
	b.WriteString("You are a support assistant. Summarize the current state of the helpdesk based on the following tickets. ")
	b.WriteString("Highlight urgent items and common themes.\n\n")
	for _, t := range tickets {
		description := t.Description
		if strings.TrimSpace(description) == "" {
			description = "No description provided."
		}
		fmt.Fprintf(&b, "Ticket ID: %d\nTitle: %s\nDescription: %s\nPriority: %s\nStatus: %s\nSubmitted by: %s (%s)\n\n",
			t.ID, t.Title, description, t.Priority, t.Status, t.SubmitterName, t.SubmitterEmail)
	}

	summary, err := s.gateway.Generate(ctx, []Message{{Role: RoleUser, Content: b.String()}})
	if err != nil {
		s.metrics.RecordGatewayFailure()
		return "", ClassifyGatewayError(err)
	}
	return summary, nil
}

// TestConnection sends a canary prompt to the gateway. It never returns an
// error; failures land in the success=false branch.
func (s *Service) TestConnection(ctx context.Context) (bool, string) {
	reply, err := s.gateway.Generate(ctx, []Message{
		{Role: RoleUser, Content: "Say hello and confirm you are reachable."},
	})
	if err != nil {
		s.logger.Warn("model connection test failed", zap.Error(err))
		return false, err.Error()
	}
	return true, reply
}

// buildTicketContext assembles the system guidance block for the session's
// active ticket. A missing ticket yields a not-found note rather than an
// error; the turn still proceeds.
func (s *Service) buildTicketContext(ctx context.Context, ticketID int64) (string, error) {
	ticket, err := s.tickets.FindWithCreator(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Sprintf(
				"You are a support assistant for a helpdesk. The user referenced ticket %d, but no ticket with that ID could be found. Let them know it could not be located and ask them to double-check the number.",
				ticketID), nil
		}
		return "", err
	}

	description := ticket.Description
	if strings.TrimSpace(description) == "" {
		description = "No description provided."
	}

	return fmt.Sprintf(
		"You are a support assistant for a helpdesk. Answer the user's questions using the following ticket context.\n\n"+
			"Ticket ID: %d\nTitle: %s\nDescription: %s\nPriority: %s\nStatus: %s\nSubmitted by: %s (%s)\n\n"+
			"If the issue cannot be resolved here, tell the user you are escalating this issue to a human.",
		ticket.ID, ticket.Title, description, ticket.Priority, ticket.Status, ticket.CreatorName, ticket.CreatorEmail), nil
}
