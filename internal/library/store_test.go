// internal/library/store_test.go
package library

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-librarian/internal/common/logger"
	"sms-librarian/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func setupStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db, logger.NewNoOpLogger()), mock
}

var bookRowColumns = []string{
	"id", "title", "author", "genre", "description", "total_pages", "rating",
	"status", "current_page", "percent_complete", "updated_at", "completed_at",
}

func bookRow(mock sqlmock.Sqlmock, id int, title string, status string, currentPage, totalPages int) *sqlmock.Rows {
	return mock.NewRows(bookRowColumns).AddRow(
		id, title, "Test Author", "Fantasy", "A test book.", totalPages, 4.2,
		status, currentPage, 0.0, time.Now(), nil,
	)
}

// ==========================
// Read Path Tests
// ==========================

func TestStore_GetBook(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id = \$1`).
		WithArgs(42).
		WillReturnRows(bookRow(mock, 42, "The Hobbit", "reading", 150, 300))

	book, err := store.GetBook(context.Background(), 42)

	require.NoError(t, err)
	assert.Equal(t, 42, book.ID)
	assert.Equal(t, "The Hobbit", book.Title)
	assert.Equal(t, models.StatusReading, book.Status)
	assert.Nil(t, book.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_GetBook_NotFound(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id = \$1`).
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetBook(context.Background(), 99)

	assert.Equal(t, ErrBookNotFound, err)
}

func TestStore_GetBook_QueryFailure(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM books WHERE id = \$1`).
		WithArgs(42).
		WillReturnError(errors.New("connection refused"))

	_, err := store.GetBook(context.Background(), 42)

	assert.ErrorIs(t, err, ErrQueryFailed)
}

func TestStore_FindBooksByTitle(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT (.+) FROM books\s+WHERE title ILIKE`).
		WithArgs("hobbit", 1).
		WillReturnRows(bookRow(mock, 42, "The Hobbit", "want_to_read", 0, 300))

	books, err := store.FindBooksByTitle(context.Background(), "hobbit", 1)

	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "The Hobbit", books[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListByStatus(t *testing.T) {
	store, mock := setupStore(t)

	rows := bookRow(mock, 42, "The Hobbit", "reading", 150, 300).
		AddRow(7, "Dune", "Test Author", "Sci-Fi", "Sand.", 400, 4.5,
			"reading", 50, 0.0, time.Now(), nil)
	mock.ExpectQuery(`SELECT (.+) FROM books\s+WHERE status = \$1`).
		WithArgs("reading", 5).
		WillReturnRows(rows)

	books, err := store.ListByStatus(context.Background(), models.StatusReading, 5)

	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, 42, books[0].ID)
	assert.Equal(t, 7, books[1].ID)
}

func TestStore_ReadingStats(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM books WHERE status = 'reading'\)`).
		WillReturnRows(mock.NewRows([]string{"reading", "completed", "pages"}).AddRow(2, 14, 4350))

	stats, err := store.ReadingStats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, stats.InProgress)
	assert.Equal(t, 14, stats.Completed)
	assert.Equal(t, 4350, stats.TotalPagesRead)
}

// ==========================
// Write Path Tests
// ==========================

func TestStore_UpdateProgress(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`UPDATE books\s+SET current_page = \$2, percent_complete = \$3, updated_at = NOW\(\)`).
		WithArgs(42, 150, 50.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reading_sessions`).
		WithArgs(42, 50).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.UpdateProgress(context.Background(), ProgressUpdate{
		BookID: 42, CurrentPage: 150, Percent: 50, PagesRead: 50,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateProgress_Completed(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`UPDATE books\s+SET current_page = \$2, percent_complete = \$3, status = 'completed'`).
		WithArgs(42, 300, 100.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reading_sessions`).
		WithArgs(42, 150).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.UpdateProgress(context.Background(), ProgressUpdate{
		BookID: 42, CurrentPage: 300, Percent: 100, Completed: true, PagesRead: 150,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_UpdateProgress_SessionInsertIsBestEffort(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`UPDATE books`).
		WithArgs(42, 150, 50.0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO reading_sessions`).
		WithArgs(42, 50).
		WillReturnError(errors.New("connection refused"))

	err := store.UpdateProgress(context.Background(), ProgressUpdate{
		BookID: 42, CurrentPage: 150, Percent: 50, PagesRead: 50,
	})

	assert.NoError(t, err, "a failed session insert must not fail the progress write")
}

func TestStore_UpdateProgress_NoSessionWhenNoPagesRead(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`UPDATE books`).
		WithArgs(42, 100, 33.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Moving backwards records no session row.
	err := store.UpdateProgress(context.Background(), ProgressUpdate{
		BookID: 42, CurrentPage: 100, Percent: 33,
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetStatus_ReadingResetsProgress(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`UPDATE books\s+SET status = 'reading', current_page = 0, percent_complete = 0`).
		WithArgs(42).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetStatus(context.Background(), 42, models.StatusReading)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SetStatus_OtherStatus(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectExec(`UPDATE books SET status = \$2, updated_at = NOW\(\) WHERE id = \$1`).
		WithArgs(42, "abandoned").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.SetStatus(context.Background(), 42, models.StatusAbandoned)

	assert.NoError(t, err)
}

// ==========================
// SQL Search Tests
// ==========================

func TestStore_SearchBooks_SQLPath(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM books`).
		WithArgs("tolkien").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(7))
	mock.ExpectQuery(`SELECT (.+) FROM books\s+WHERE title ILIKE`).
		WithArgs("tolkien", 5).
		WillReturnRows(bookRow(mock, 42, "The Hobbit", "want_to_read", 0, 300))

	result, err := store.SearchBooks(context.Background(), "tolkien", 5)

	require.NoError(t, err)
	assert.Equal(t, 7, result.Total)
	require.Len(t, result.Books, 1)
	assert.Equal(t, "The Hobbit", result.Books[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_SearchBooks_CountFailure(t *testing.T) {
	store, mock := setupStore(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM books`).
		WithArgs("tolkien").
		WillReturnError(errors.New("connection refused"))

	_, err := store.SearchBooks(context.Background(), "tolkien", 5)

	assert.ErrorIs(t, err, ErrQueryFailed)
}
