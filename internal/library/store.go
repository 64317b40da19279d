// internal/library/store.go
package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// Store implements Service against Postgres, with an optional Elasticsearch
// search backend (see search.go). A nil es client means SQL-only search.
type Store struct {
	db      *sql.DB
	es      *elasticsearch.Client
	esIndex string
	logger  logger.Logger
	timeout time.Duration
}

type StoreOption func(*Store)

// WithElasticsearch enables the full-text search backend for SearchBooks.
func WithElasticsearch(es *elasticsearch.Client, index string) StoreOption {
	return func(s *Store) {
		s.es = es
		s.esIndex = index
	}
}

// WithQueryTimeout bounds every data-service call so one slow lookup cannot
// stall the webhook request.
func WithQueryTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.timeout = d
	}
}

func NewStore(db *sql.DB, log logger.Logger, opts ...StoreOption) *Store {
	s := &Store{
		db:      db,
		logger:  log.WithFields(map[string]interface{}{"component": "library"}),
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const bookColumns = `id, title, author, genre, description, total_pages, rating,
	status, current_page, percent_complete, updated_at, completed_at`

func scanBook(scanner interface{ Scan(...interface{}) error }) (*models.Book, error) {
	var b models.Book
	var completedAt sql.NullTime
	err := scanner.Scan(
		&b.ID, &b.Title, &b.Author, &b.Genre, &b.Description, &b.TotalPages,
		&b.Rating, &b.Status, &b.CurrentPage, &b.PercentComplete, &b.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return &b, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Store) GetBook(ctx context.Context, id int) (*models.Book, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)
	book, err := scanBook(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return book, nil
}

func (s *Store) FindBooksByTitle(ctx context.Context, title string, limit int) ([]models.Book, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM books
		WHERE title ILIKE '%%' || $1 || '%%'
		ORDER BY updated_at DESC
		LIMIT $2`, bookColumns)

	return s.queryBooks(ctx, query, title, limit)
}

func (s *Store) ListByStatus(ctx context.Context, status models.BookStatus, limit int) ([]models.Book, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM books
		WHERE status = $1
		ORDER BY updated_at DESC
		LIMIT $2`, bookColumns)

	return s.queryBooks(ctx, query, string(status), limit)
}

func (s *Store) queryBooks(ctx context.Context, query string, args ...interface{}) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return books, nil
}

func (s *Store) UpdateProgress(ctx context.Context, upd ProgressUpdate) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var err error
	if upd.Completed {
		_, err = s.db.ExecContext(ctx, `UPDATE books
			SET current_page = $2, percent_complete = $3, status = 'completed',
			    completed_at = NOW(), updated_at = NOW()
			WHERE id = $1`,
			upd.BookID, upd.CurrentPage, upd.Percent)
	} else {
		_, err = s.db.ExecContext(ctx, `UPDATE books
			SET current_page = $2, percent_complete = $3, updated_at = NOW()
			WHERE id = $1`,
			upd.BookID, upd.CurrentPage, upd.Percent)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	if upd.PagesRead > 0 {
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO reading_sessions (book_id, pages_read, created_at) VALUES ($1, $2, NOW())`,
			upd.BookID, upd.PagesRead)
		if err != nil {
			// Session history is best-effort; the progress write already landed.
			s.logger.Warn("failed to record reading session", map[string]interface{}{
				"bookId": upd.BookID,
				"error":  err.Error(),
			})
		}
	}
	return nil
}

func (s *Store) SetStatus(ctx context.Context, bookID int, status models.BookStatus) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var err error
	if status == models.StatusReading {
		// Starting a book resets its progress.
		_, err = s.db.ExecContext(ctx, `UPDATE books
			SET status = 'reading', current_page = 0, percent_complete = 0,
			    completed_at = NULL, updated_at = NOW()
			WHERE id = $1`, bookID)
	} else {
		_, err = s.db.ExecContext(ctx,
			`UPDATE books SET status = $2, updated_at = NOW() WHERE id = $1`,
			bookID, string(status))
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return nil
}

func (s *Store) ReadingStats(ctx context.Context) (*models.ReadingStats, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var stats models.ReadingStats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM books WHERE status = 'reading'),
		(SELECT COUNT(*) FROM books WHERE status = 'completed'),
		(SELECT COALESCE(SUM(pages_read), 0) FROM reading_sessions)`,
	).Scan(&stats.InProgress, &stats.Completed, &stats.TotalPagesRead)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	return &stats, nil
}
