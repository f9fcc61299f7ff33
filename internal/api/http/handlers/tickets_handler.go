package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/helpdesk-hq/helpdesk/internal/api/dto"
	"github.com/helpdesk-hq/helpdesk/internal/auth"
	"github.com/helpdesk-hq/helpdesk/internal/domain"
	"github.com/helpdesk-hq/helpdesk/internal/service"
	apperrors "github.com/helpdesk-hq/helpdesk/pkg/util"
)

// TicketsHandler serves ticket CRUD and dashboard routes.
type TicketsHandler struct {
	ticketService *service.TicketService
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{ticketService: ticketService}
}

// Create opens a new ticket for the authenticated user.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.ticketService.CreateTicket(c.Context(), principal.User.ID, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toTicketSummary(*ticket))
}

// ListMine returns the authenticated user's tickets with optional filters.
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	filter := service.TicketUserFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	for _, raw := range splitQueryList(c.Query("status")) {
		status := domain.TicketStatus(raw)
		if !domain.ValidStatus(status) {
			return apperrors.NewValidationError("invalid status filter", map[string]any{"status": raw})
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	for _, raw := range splitQueryList(c.Query("priority")) {
		priority := domain.TicketPriority(raw)
		if !domain.ValidPriority(priority) {
			return apperrors.NewValidationError("invalid priority filter", map[string]any{"priority": raw})
		}
		filter.Priorities = append(filter.Priorities, priority)
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}

	tickets, err := h.ticketService.ListUserTickets(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}

	out := make([]dto.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketSummary(t))
	}
	return c.JSON(fiber.Map{"tickets": out, "count": len(out)})
}

// ListAll returns every ticket with creator details. Admin only.
func (h *TicketsHandler) ListAll(c *fiber.Ctx) error {
	tickets, err := h.ticketService.ListAllTickets(c.Context())
	if err != nil {
		return err
	}
	out := make([]dto.TicketDetailResponse, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toTicketDetail(t, nil))
	}
	return c.JSON(fiber.Map{"tickets": out, "count": len(out)})
}

// Get returns one ticket with creator details and history.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	ticket, err := h.ticketService.GetTicketForUser(c.Context(), principal.User, ticketID)
	if err != nil {
		return err
	}
	history, err := h.ticketService.ListHistory(c.Context(), principal.User, ticketID, 50, 0)
	if err != nil {
		return err
	}
	return c.JSON(toTicketDetail(*ticket, history))
}

// UpdateStatus transitions a ticket's status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	var req dto.UpdateTicketStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	ticket, err := h.ticketService.UpdateStatus(c.Context(), principal.User, ticketID, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(toTicketSummary(*ticket))
}

// History returns audit entries for one ticket.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticketID, err := parseTicketID(c)
	if err != nil {
		return err
	}

	entries, err := h.ticketService.ListHistory(c.Context(), principal.User, ticketID,
		c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	out := make([]dto.TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toHistoryResponse(e))
	}
	return c.JSON(fiber.Map{"history": out, "count": len(out)})
}

// Dashboard returns tickets bucketed by status in lifecycle order.
func (h *TicketsHandler) Dashboard(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	segments, err := h.ticketService.DashboardSegments(c.Context(), principal.User)
	if err != nil {
		return err
	}

	out := make([]dto.DashboardSegmentResponse, 0, len(segments))
	for _, seg := range segments {
		tickets := make([]dto.TicketDetailResponse, 0, len(seg.Tickets))
		for _, t := range seg.Tickets {
			tickets = append(tickets, toTicketDetail(t, nil))
		}
		out = append(out, dto.DashboardSegmentResponse{
			Status:  seg.Status,
			Count:   len(tickets),
			Tickets: tickets,
		})
	}
	return c.JSON(fiber.Map{"segments": out})
}

func parseTicketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

func splitQueryList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func toTicketSummary(t domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:        t.ID,
		Title:     t.Title,
		Status:    t.Status,
		Priority:  t.Priority,
		CreatedBy: t.CreatedBy,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTicketDetail(t domain.TicketWithCreator, history []domain.TicketHistory) dto.TicketDetailResponse {
	out := dto.TicketDetailResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		Priority:     t.Priority,
		CreatedBy:    t.CreatedBy,
		CreatorName:  t.CreatorName,
		CreatorEmail: t.CreatorEmail,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
	for _, e := range history {
		out.History = append(out.History, toHistoryResponse(e))
	}
	return out
}

func toHistoryResponse(e domain.TicketHistory) dto.TicketHistoryResponse {
	return dto.TicketHistoryResponse{
		ID:         e.ID,
		ChangeType: e.ChangeType,
		ChangedBy:  e.ChangedBy,
		OldValue:   e.OldValue,
		NewValue:   e.NewValue,
		CreatedAt:  e.CreatedAt,
	}
}
