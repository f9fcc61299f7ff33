package assistant

import (
	"net/http"
	"strings"

	apperrors "github.com/helpdesk-hq/helpdesk/pkg/util"
)

// Error codes surfaced by the assistant service.
const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeMissingSessionID = "MISSING_SESSION_ID"
	CodeRateLimited      = "RATE_LIMITED"
	CodeAuthError        = "AUTH_ERROR"
	CodeContentBlocked   = "CONTENT_BLOCKED"
	CodeTimeout          = "TIMEOUT"
	CodeModelUnavailable = "MODEL_UNAVAILABLE"
)

// NewInvalidInput reports a rejected chat message. Raised before any state
// mutation or external call.
func NewInvalidInput(message string) error {
	return apperrors.NewDomainError(CodeInvalidInput, message, http.StatusBadRequest, nil)
}

// NewMissingSessionID reports a history/clear call without an identifier.
func NewMissingSessionID() error {
	return apperrors.NewDomainError(CodeMissingSessionID, "session ID is required", http.StatusBadRequest, nil)
}

// ClassifyGatewayError maps a model gateway failure onto the assistant error
// taxonomy by inspecting the provider's error text. The original error text
// is kept in the message for diagnostics.
func ClassifyGatewayError(err error) error {
	if err == nil {
		return nil
	}
	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "quota") || strings.Contains(lower, "quota_exceeded"):
		return apperrors.NewDomainError(CodeRateLimited,
			"model quota exceeded, please try again later: "+err.Error(),
			http.StatusTooManyRequests, nil)
	case strings.Contains(lower, "api key") || strings.Contains(lower, "api_key") || strings.Contains(lower, "authentication"):
		return apperrors.NewDomainError(CodeAuthError,
			"invalid model API key configuration: "+err.Error(),
			http.StatusBadGateway, nil)
	case strings.Contains(lower, "safety") || strings.Contains(lower, "blocked"):
		return apperrors.NewDomainError(CodeContentBlocked,
			"content blocked by model safety filters, please rephrase: "+err.Error(),
			http.StatusUnprocessableEntity, nil)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return apperrors.NewDomainError(CodeTimeout,
			"model request timed out, please try again: "+err.Error(),
			http.StatusGatewayTimeout, nil)
	default:
		return apperrors.NewDomainError(CodeModelUnavailable,
			"model request failed: "+err.Error(),
			http.StatusBadGateway, nil)
	}
}
