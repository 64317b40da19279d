// internal/library/service.go
package library

import (
	"context"

	apperrors "sms-librarian/internal/common/errors"
	"sms-librarian/internal/models"
)

// Sentinel errors the command handlers branch on. Structured so the pipeline
// can log a stable error code for any wrapped data-service failure.
var (
	ErrBookNotFound       = apperrors.New(apperrors.ErrCodeBookNotFound, "no matching book was found")
	ErrQueryFailed        = apperrors.NewRetryable(apperrors.ErrCodeQueryExecutionFailed, "query execution failed")
	ErrSettingsLoadFailed = apperrors.NewRetryable(apperrors.ErrCodeSettingsLoadFailed, "authorized sender settings could not be loaded")
)

// ProgressUpdate describes one reading-progress write.
type ProgressUpdate struct {
	BookID      int
	CurrentPage int
	Percent     float64
	Completed   bool
	PagesRead   int // pages advanced since the last update, for session history
}

// SearchResult is a ranked page of catalog matches plus the unranked total.
type SearchResult struct {
	Books []models.Book
	Total int
}

// Service is the Library Data Service the command handlers talk to. Every call
// may fail; callers never assume transactional coupling with pipeline state.
type Service interface {
	GetBook(ctx context.Context, id int) (*models.Book, error)
	FindBooksByTitle(ctx context.Context, title string, limit int) ([]models.Book, error)
	SearchBooks(ctx context.Context, query string, limit int) (*SearchResult, error)
	ListByStatus(ctx context.Context, status models.BookStatus, limit int) ([]models.Book, error)
	UpdateProgress(ctx context.Context, upd ProgressUpdate) error
	SetStatus(ctx context.Context, bookID int, status models.BookStatus) error
	ReadingStats(ctx context.Context) (*models.ReadingStats, error)
	AuthorizedSenders(ctx context.Context) ([]string, error)
}
