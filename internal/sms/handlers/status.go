// internal/sms/handlers/status.go
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

// GetStatusHandler reports progress for the book the sender is talking about,
// preferring the conversation's last referenced book over recency.
type GetStatusHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewGetStatusHandler(service library.Service, log logger.Logger) *GetStatusHandler {
	return &GetStatusHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "get_status"}),
	}
}

func (h *GetStatusHandler) Handle(ctx context.Context, params intent.Parameters, conv *conversation.Context) *models.HandlerResponse {
	book, err := resolveTargetBook(ctx, h.service, params, conv)
	if err != nil {
		if err == library.ErrBookNotFound {
			return domainFailure("You're not reading anything right now. Start a book with \"start <title>\".")
		}
		h.logger.Error("failed to resolve current book", map[string]interface{}{"error": err.Error()})
		return failureResponse()
	}

	return &models.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("%q by %s: %s.", book.Title, book.Author, formatProgress(book)),
		Data:    map[string]interface{}{"bookId": book.ID},
	}
}

// ListReadingHandler returns up to five in-progress books, most recent first.
type ListReadingHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewListReadingHandler(service library.Service, log logger.Logger) *ListReadingHandler {
	return &ListReadingHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "list_reading"}),
	}
}

func (h *ListReadingHandler) Handle(ctx context.Context, _ intent.Parameters, _ *conversation.Context) *models.HandlerResponse {
	reading, err := h.service.ListByStatus(ctx, models.StatusReading, maxResults)
	if err != nil {
		h.logger.Error("failed to list reading books", map[string]interface{}{"error": err.Error()})
		return failureResponse()
	}
	if len(reading) == 0 {
		return &models.HandlerResponse{
			Success: true,
			Message: "You're not reading anything right now. Start a book with \"start <title>\".",
		}
	}

	var b strings.Builder
	b.WriteString("Currently reading:\n")
	for i := range reading {
		book := &reading[i]
		fmt.Fprintf(&b, "%d. %q — %.0f%%\n", i+1, book.Title, book.Progress())
	}

	return &models.HandlerResponse{
		Success: true,
		Message: strings.TrimRight(b.String(), "\n"),
		Data:    map[string]interface{}{"count": len(reading)},
	}
}
