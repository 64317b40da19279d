// internal/sms/handlers/start_book_test.go
package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/intent"
)

// ==========================
// Core Functionality Tests
// ==========================

func TestStartBook_StartsWantToReadBook(t *testing.T) {
	svc := &mockService{
		titleMatches: []models.Book{testBook(42, "The Hobbit", models.StatusWantToRead, 0, 300)},
	}
	h := NewStartBookHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{BookTitle: "The Hobbit"}, nil)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Started")
	assert.Contains(t, resp.Message, "The Hobbit")

	require.Len(t, svc.statusBookIDs, 1)
	assert.Equal(t, 42, svc.statusBookIDs[0])
	assert.Equal(t, models.StatusReading, svc.statusValues[0])

	bookID, ok := resp.BookID()
	assert.True(t, ok)
	assert.Equal(t, 42, bookID)
}

func TestStartBook_AlreadyReadingIsIdempotent(t *testing.T) {
	svc := &mockService{
		titleMatches: []models.Book{testBook(42, "The Hobbit", models.StatusReading, 100, 300)},
	}
	h := NewStartBookHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{BookTitle: "The Hobbit"}, nil)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "already reading")
	assert.Contains(t, resp.Message, "page 100")
	assert.Empty(t, svc.statusBookIDs, "a repeated start must not touch status or progress")
}

// ==========================
// Edge Case Tests
// ==========================

func TestStartBook_NoTitle(t *testing.T) {
	h := NewStartBookHandler(&mockService{}, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "Which book")
}

func TestStartBook_TitleNotFound(t *testing.T) {
	h := NewStartBookHandler(&mockService{}, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{BookTitle: "Nonexistent"}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "couldn't find")
	assert.Contains(t, resp.Message, "search Nonexistent")
}

func TestStartBook_LookupFails(t *testing.T) {
	svc := &mockService{findErr: errors.New("connection refused")}
	h := NewStartBookHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{BookTitle: "The Hobbit"}, nil)

	assert.False(t, resp.Success)
	assert.Equal(t, genericFailureMessage, resp.Message)
}
