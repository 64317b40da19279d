// internal/sms/handlers/finish_book.go
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

// FinishBookHandler marks a book complete, setting its current page to the
// book's total and stamping the completion time. Resolution only considers
// books in "reading" status.
type FinishBookHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewFinishBookHandler(service library.Service, log logger.Logger) *FinishBookHandler {
	return &FinishBookHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "finish_book"}),
	}
}

func (h *FinishBookHandler) Handle(ctx context.Context, params intent.Parameters, conv *conversation.Context) *models.HandlerResponse {
	book, errResp := h.resolveReadingBook(ctx, params, conv)
	if errResp != nil {
		return errResp
	}

	err := h.service.UpdateProgress(ctx, library.ProgressUpdate{
		BookID:      book.ID,
		CurrentPage: book.TotalPages,
		Percent:     100,
		Completed:   true,
		PagesRead:   book.TotalPages - book.CurrentPage,
	})
	if err != nil {
		h.logger.Error("failed to finish book", map[string]interface{}{
			"bookId": book.ID,
			"error":  err.Error(),
		})
		return failureResponse()
	}

	return &models.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Finished %q — congratulations! 🎉", book.Title),
		Data:    map[string]interface{}{"bookId": book.ID},
	}
}

// resolveReadingBook narrows the shared resolution chain to "reading" books:
// a titled request fuzzy-matches among them; otherwise context or recency
// picks one, but only if it is actually being read.
func (h *FinishBookHandler) resolveReadingBook(ctx context.Context, params intent.Parameters, conv *conversation.Context) (*models.Book, *models.HandlerResponse) {
	reading, err := h.service.ListByStatus(ctx, models.StatusReading, maxResults)
	if err != nil {
		h.logger.Error("failed to list reading books", map[string]interface{}{"error": err.Error()})
		return nil, failureResponse()
	}
	if len(reading) == 0 {
		return nil, domainFailure("You don't have any books in progress right now.")
	}

	if params.BookTitle != "" {
		needle := strings.ToLower(params.BookTitle)
		for i := range reading {
			if strings.Contains(strings.ToLower(reading[i].Title), needle) {
				return &reading[i], nil
			}
		}
		return nil, domainFailure(fmt.Sprintf(
			"%q isn't among the books you're reading. Text \"list\" to see them.", params.BookTitle))
	}

	if conv != nil && conv.LastBookID > 0 {
		for i := range reading {
			if reading[i].ID == conv.LastBookID {
				return &reading[i], nil
			}
		}
	}

	// Most recently updated reading book.
	return &reading[0], nil
}
