// internal/sms/handlers/handler.go
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

// Handler executes one command intent. Handlers talk only to the Library Data
// Service; they read conversation context but never mutate it — context writes
// happen in the orchestrator's update step.
type Handler interface {
	Handle(ctx context.Context, params intent.Parameters, conv *conversation.Context) *models.HandlerResponse
}

const (
	maxResults = 5
	// maxEchoLength bounds how much of an unrecognized message is repeated
	// back to the sender.
	maxEchoLength = 60
)

const genericFailureMessage = "Sorry, something went wrong on our end. Please try again in a moment."

// Registry holds one handler per intent plus the unknown fallback.
type Registry struct {
	handlers map[intent.Intent]Handler
	unknown  Handler
}

func NewRegistry(service library.Service, log logger.Logger) *Registry {
	unknown := NewUnknownHandler(service, log)
	return &Registry{
		handlers: map[intent.Intent]Handler{
			intent.IntentUpdateProgress: NewUpdateProgressHandler(service, log),
			intent.IntentStartBook:      NewStartBookHandler(service, log),
			intent.IntentFinishBook:     NewFinishBookHandler(service, log),
			intent.IntentGetStatus:      NewGetStatusHandler(service, log),
			intent.IntentListReading:    NewListReadingHandler(service, log),
			intent.IntentSearchBook:     NewSearchBookHandler(service, log),
			intent.IntentGetStats:       NewGetStatsHandler(service, log),
			intent.IntentHelp:           NewHelpHandler(log),
		},
		unknown: unknown,
	}
}

// Resolve returns the handler for the given intent, falling back to the
// unknown handler for unmapped or low-confidence intents.
func (r *Registry) Resolve(in intent.Intent) Handler {
	if h, ok := r.handlers[in]; ok {
		return h
	}
	return r.unknown
}

// Unknown returns the fallback handler directly.
func (r *Registry) Unknown() Handler {
	return r.unknown
}

// resolveTargetBook applies the shared resolution chain: explicit bookId
// parameter, then the conversation's last referenced book, then the single
// most-recently-updated book in "reading" status.
func resolveTargetBook(ctx context.Context, service library.Service, params intent.Parameters, conv *conversation.Context) (*models.Book, error) {
	if params.BookID != nil {
		return service.GetBook(ctx, *params.BookID)
	}
	if conv != nil && conv.LastBookID > 0 {
		book, err := service.GetBook(ctx, conv.LastBookID)
		if err == nil {
			return book, nil
		}
		if err != library.ErrBookNotFound {
			return nil, err
		}
		// Context pointed at a deleted book; fall through to reading status.
	}

	reading, err := service.ListByStatus(ctx, models.StatusReading, 1)
	if err != nil {
		return nil, err
	}
	if len(reading) == 0 {
		return nil, library.ErrBookNotFound
	}
	return &reading[0], nil
}

func failureResponse() *models.HandlerResponse {
	return &models.HandlerResponse{Success: false, Message: genericFailureMessage}
}

func domainFailure(message string) *models.HandlerResponse {
	return &models.HandlerResponse{Success: false, Message: message}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func formatProgress(book *models.Book) string {
	pct := book.Progress()
	if book.TotalPages > 0 {
		return fmt.Sprintf("page %d of %d (%.0f%%)", book.CurrentPage, book.TotalPages, pct)
	}
	return fmt.Sprintf("%.0f%% complete", pct)
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
