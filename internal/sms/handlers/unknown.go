// internal/sms/handlers/unknown.go
package handlers

import (
	"context"
	"fmt"
	"strings"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/intent"
)

// Short unrecognized input is optimistically treated as a search query before
// being reported as unrecognized. The word/length thresholds bound how often
// that optimistic search fires.
const (
	fallbackSearchMaxWords = 5
	fallbackSearchMinChars = 2
)

// UnknownHandler is the fallback for low-confidence classifications.
type UnknownHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewUnknownHandler(service library.Service, log logger.Logger) *UnknownHandler {
	return &UnknownHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "unknown"}),
	}
}

func (h *UnknownHandler) Handle(ctx context.Context, params intent.Parameters, _ *conversation.Context) *models.HandlerResponse {
	raw := strings.TrimSpace(params.Query)
	if raw == "" {
		raw = strings.TrimSpace(params.BookTitle)
	}

	if len(raw) >= fallbackSearchMinChars && wordCount(raw) <= fallbackSearchMaxWords {
		result, err := h.service.SearchBooks(ctx, raw, maxResults)
		switch {
		case err == nil && len(result.Books) > 0:
			return formatSearchResults(result, raw)
		case err != nil:
			h.logger.Warn("fallback search failed", map[string]interface{}{
				"query": truncate(raw, maxEchoLength),
				"error": err.Error(),
			})
		}
	}

	echoed := truncate(raw, maxEchoLength)
	if echoed == "" {
		echoed = "that"
	}
	return &models.HandlerResponse{
		Success: false,
		Message: fmt.Sprintf("I didn't understand %q. Try \"page 150\", \"start <title>\", \"finish\", \"status\", \"list\", or \"help\".", echoed),
	}
}
