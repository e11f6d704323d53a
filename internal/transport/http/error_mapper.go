package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/SARVESHVARADKAR123/chatsync/internal/domain"
	"github.com/SARVESHVARADKAR123/chatsync/internal/observability"
	"go.uber.org/zap"
)

// Error codes carried in ErrorBody.Code. httpstore maps them back to domain errors.
const (
	CodeConversationNotFound = "conversation_not_found"
	CodeMessageNotFound      = "message_not_found"
	CodeInvalidInput         = "invalid_input"
	CodeInternal             = "internal"
)

func MapError(ctx context.Context, err error) (int, ErrorBody) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound):
		return http.StatusNotFound, ErrorBody{Error: err.Error(), Code: CodeConversationNotFound}

	case errors.Is(err, domain.ErrMessageNotFound):
		return http.StatusNotFound, ErrorBody{Error: err.Error(), Code: CodeMessageNotFound}

	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, ErrorBody{Error: err.Error(), Code: CodeInvalidInput}

	default:
		observability.GetLogger(ctx).Error("internal_http_error", zap.Error(err))
		return http.StatusInternalServerError, ErrorBody{Error: "internal server error", Code: CodeInternal}
	}
}
