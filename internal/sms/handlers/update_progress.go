// internal/sms/handlers/update_progress.go
package handlers

import (
	"context"
	"fmt"
	"math"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/intent"
)

// UpdateProgressHandler records a page number and/or percentage against the
// book the sender is talking about. Whichever of page/percent is missing is
// derived from the other when the book's page count is known; reaching 100%
// marks the book complete.
type UpdateProgressHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewUpdateProgressHandler(service library.Service, log logger.Logger) *UpdateProgressHandler {
	return &UpdateProgressHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "update_progress"}),
	}
}

func (h *UpdateProgressHandler) Handle(ctx context.Context, params intent.Parameters, conv *conversation.Context) *models.HandlerResponse {
	if params.PageNumber == nil && params.PercentComplete == nil {
		return domainFailure("Tell me where you are, like \"page 150\" or \"75%\".")
	}

	book, err := resolveTargetBook(ctx, h.service, params, conv)
	if err != nil {
		if err == library.ErrBookNotFound {
			return domainFailure("I'm not sure which book you mean. Start one with \"start <title>\" first.")
		}
		h.logger.Error("failed to resolve target book", map[string]interface{}{"error": err.Error()})
		return failureResponse()
	}

	page, percent, errResp := derivePagePercent(book, params)
	if errResp != nil {
		return errResp
	}

	completed := percent >= 100
	if completed {
		percent = 100
		if book.TotalPages > 0 {
			page = book.TotalPages
		}
	}

	pagesRead := 0
	if page > book.CurrentPage {
		pagesRead = page - book.CurrentPage
	}

	err = h.service.UpdateProgress(ctx, library.ProgressUpdate{
		BookID:      book.ID,
		CurrentPage: page,
		Percent:     percent,
		Completed:   completed,
		PagesRead:   pagesRead,
	})
	if err != nil {
		h.logger.Error("failed to update progress", map[string]interface{}{
			"bookId": book.ID,
			"error":  err.Error(),
		})
		return failureResponse()
	}

	data := map[string]interface{}{"bookId": book.ID, "page": page, "percent": percent}
	if completed {
		return &models.HandlerResponse{
			Success: true,
			Message: fmt.Sprintf("Congrats on finishing %q! 🎉", book.Title),
			Data:    data,
		}
	}
	return &models.HandlerResponse{
		Success: true,
		Message: fmt.Sprintf("Got it — %q updated to page %d (%.0f%%).", book.Title, page, percent),
		Data:    data,
	}
}

// derivePagePercent fills in the missing one of {page, percent} from the other
// using the book's page count. A page beyond the book's known total is
// rejected without touching stored progress.
func derivePagePercent(book *models.Book, params intent.Parameters) (int, float64, *models.HandlerResponse) {
	var page int
	var percent float64

	switch {
	case params.PageNumber != nil && params.PercentComplete != nil:
		page = *params.PageNumber
		percent = *params.PercentComplete
	case params.PageNumber != nil:
		page = *params.PageNumber
		if book.TotalPages > 0 {
			percent = math.Round(float64(page) / float64(book.TotalPages) * 100)
		}
	case params.PercentComplete != nil:
		percent = *params.PercentComplete
		if book.TotalPages > 0 {
			page = int(math.Round(percent / 100 * float64(book.TotalPages)))
		}
	}

	if params.PageNumber != nil && book.TotalPages > 0 && page > book.TotalPages {
		return 0, 0, domainFailure(fmt.Sprintf(
			"%q only has %d pages — did you mean a different book?", book.Title, book.TotalPages))
	}
	return page, percent, nil
}
