package assistant

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdesk-hq/helpdesk/pkg/util"
)

func TestClassifyGatewayError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   string
		wantStatus int
	}{
		{"quota", errors.New("429: quota exceeded for project"), CodeRateLimited, http.StatusTooManyRequests},
		{"quota constant", errors.New("QUOTA_EXCEEDED"), CodeRateLimited, http.StatusTooManyRequests},
		{"api key", errors.New("API key not valid"), CodeAuthError, http.StatusBadGateway},
		{"authentication", errors.New("authentication failed"), CodeAuthError, http.StatusBadGateway},
		{"safety", errors.New("candidate blocked due to SAFETY"), CodeContentBlocked, http.StatusUnprocessableEntity},
		{"timeout", errors.New("request timeout"), CodeTimeout, http.StatusGatewayTimeout},
		{"deadline", errors.New("context deadline exceeded"), CodeTimeout, http.StatusGatewayTimeout},
		{"unknown", errors.New("connection refused"), CodeModelUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyGatewayError(tt.err)
			var domainErr *apperrors.DomainError
			require.ErrorAs(t, classified, &domainErr)
			assert.Equal(t, tt.wantCode, domainErr.Code)
			assert.Equal(t, tt.wantStatus, domainErr.HTTPStatus)
			assert.Contains(t, domainErr.Message, tt.err.Error())
		})
	}
}

func TestClassifyGatewayErrorNil(t *testing.T) {
	assert.NoError(t, ClassifyGatewayError(nil))
}

func TestInvalidInputAndMissingSessionID(t *testing.T) {
	var domainErr *apperrors.DomainError

	require.ErrorAs(t, NewInvalidInput("bad"), &domainErr)
	assert.Equal(t, CodeInvalidInput, domainErr.Code)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)

	require.ErrorAs(t, NewMissingSessionID(), &domainErr)
	assert.Equal(t, CodeMissingSessionID, domainErr.Code)
	assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus)
}
