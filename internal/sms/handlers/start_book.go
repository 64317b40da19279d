// internal/sms/handlers/start_book.go
package handlers

import (
	"context"
	"fmt"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/intent"
)

// StartBookHandler transitions a catalog book to "reading". Starting a book
// that is already being read is an informative no-op, not an error, so a
// repeated "start <title>" never wipes progress.
type StartBookHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewStartBookHandler(service library.Service, log logger.Logger) *StartBookHandler {
	return &StartBookHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "start_book"}),
	}
}

func (h *StartBookHandler) Handle(ctx context.Context, params intent.Parameters, _ *conversation.Context) *models.HandlerResponse {
	if params.BookTitle == "" {
		return domainFailure("Which book? Try \"start The Hobbit\".")
	}

	matches, err := h.service.FindBooksByTitle(ctx, params.BookTitle, 1)
	if err != nil {
		h.logger.Error("title lookup failed", map[string]interface{}{
			"title": params.BookTitle,
			"error": err.Error(),
		})
		return failureResponse()
	}
	if len(matches) == 0 {
		return domainFailure(fmt.Sprintf(
			"I couldn't find %q in your library. Try \"search %s\" to check the catalog.",
			params.BookTitle, params.BookTitle))
	}

	book := matches[0]
	data := map[string]interface{}{"bookId": book.ID}

	if book.Status == models.StatusReading {
		return &models.HandlerResponse{
			Success: true,
			Message: fmt.Sprintf("You're already reading %q — currently %s.", book.Title, formatProgress(&book)),
			Data:    data,
		}
	}

	if err := h.service.SetStatus(ctx, book.ID, models.StatusReading); err != nil {
		h.logger.Error("failed to start book", map[string]interface{}{
			"bookId": book.ID,
			"error":  err.Error(),
		})
		return failureResponse()
	}

	return &models.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Started %q by %s. Happy reading! 📖", book.Title, book.Author),
		Data:    data,
	}
}
