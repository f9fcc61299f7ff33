package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/helpdesk-hq/helpdesk/internal/api/dto"
	"github.com/helpdesk-hq/helpdesk/internal/assistant"
	"github.com/helpdesk-hq/helpdesk/internal/config"
	"github.com/helpdesk-hq/helpdesk/internal/observability"
	"github.com/helpdesk-hq/helpdesk/internal/service"
	apperrors "github.com/helpdesk-hq/helpdesk/pkg/util"
)

const summaryCacheKey = "assistant:ticket_summary"

// AssistantHandler serves the conversational support routes.
type AssistantHandler struct {
	assistant     *assistant.Service
	ticketService *service.TicketService
	cache         *redis.Client
	cfg           config.AssistantConfig
	metrics       *observability.Metrics
	logger        *zap.Logger
}

// NewAssistantHandler constructs the handler. cache may be nil, in which
// case summaries are recomputed on every call.
func NewAssistantHandler(svc *assistant.Service, ticketService *service.TicketService, cache *redis.Client, cfg config.AssistantConfig, metrics *observability.Metrics, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{
		assistant:     svc,
		ticketService: ticketService,
		cache:         cache,
		cfg:           cfg,
		metrics:       metrics,
		logger:        logger,
	}
}

// Chat runs one conversation turn.
func (h *AssistantHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDomainError(assistant.CodeInvalidInput, "invalid request body", fiber.StatusBadRequest, nil)
	}

	result, err := h.assistant.HandleChatTurn(c.Context(), req.Message, req.SessionID)
	if err != nil {
		return err
	}
	return c.JSON(dto.ChatResponse{
		Response:  result.Reply,
		SessionID: result.SessionID,
		Timestamp: time.Now(),
	})
}

// Clear drops a session's history and ticket binding.
func (h *AssistantHandler) Clear(c *fiber.Ctx) error {
	var req dto.ClearChatRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewDomainError(assistant.CodeInvalidInput, "invalid request body", fiber.StatusBadRequest, nil)
	}
	if err := h.assistant.ClearChatHistory(req.SessionID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "chat history cleared"})
}

// History returns a session's turns, oldest first.
func (h *AssistantHandler) History(c *fiber.Ctx) error {
	turns, err := h.assistant.GetChatHistory(c.Params("sessionId"))
	if err != nil {
		return err
	}

	out := make([]dto.ChatTurnResponse, 0, len(turns))
	for _, t := range turns {
		out = append(out, dto.ChatTurnResponse{
			Role:      string(t.Role),
			Content:   t.Content,
			Timestamp: t.Timestamp,
		})
	}
	return c.JSON(dto.ChatHistoryResponse{
		SessionID:    c.Params("sessionId"),
		History:      out,
		MessageCount: len(out),
	})
}

// Summary returns a model-generated overview of all tickets. Results are
// cached in Redis for the configured TTL; `refresh=true` bypasses the cache.
func (h *AssistantHandler) Summary(c *fiber.Ctx) error {
	ttl := h.cfg.SummaryCacheTTL()
	useCache := h.cache != nil && ttl > 0 && !c.QueryBool("refresh", false)

	if useCache {
		cached, err := h.cache.Get(c.Context(), summaryCacheKey).Result()
		if err == nil {
			return c.JSON(dto.SummaryResponse{Summary: cached, Cached: true})
		}
		if err != redis.Nil {
			h.logger.Warn("summary cache read failed", zap.Error(err))
		}
	}

	tickets, err := h.ticketService.ListAllTickets(c.Context())
	if err != nil {
		return err
	}
	input := make([]assistant.TicketSummary, 0, len(tickets))
	for _, t := range tickets {
		input = append(input, assistant.TicketSummary{
			ID:             t.ID,
			Title:          t.Title,
			Description:    t.Description,
			Priority:       t.Priority,
			Status:         t.Status,
			SubmitterName:  t.CreatorName,
			SubmitterEmail: t.CreatorEmail,
		})
	}

	summary, err := h.assistant.SummarizeTickets(c.Context(), input)
	if err != nil {
		return err
	}

	if h.cache != nil && ttl > 0 {
		if err := h.cache.Set(c.Context(), summaryCacheKey, summary, ttl).Err(); err != nil {
			h.logger.Warn("summary cache write failed", zap.Error(err))
		}
	}
	return c.JSON(dto.SummaryResponse{Summary: summary, Cached: false})
}

// TestConnection sends a canary prompt to the model gateway. Always 200.
func (h *AssistantHandler) TestConnection(c *fiber.Ctx) error {
	ok, message := h.assistant.TestConnection(c.Context())
	return c.JSON(dto.ConnectionTestResponse{Success: ok, Message: message})
}

// Metrics reports assistant counters and live session count.
func (h *AssistantHandler) Metrics(c *fiber.Ctx) error {
	chatTurns, escalations, gatewayFailures := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"chat_turns":       chatTurns,
		"escalations":      escalations,
		"gateway_failures": gatewayFailures,
		"live_sessions":    h.assistant.Store().Len(),
	})
}
