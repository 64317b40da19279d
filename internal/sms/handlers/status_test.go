// internal/sms/handlers/status_test.go
package handlers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/conversation"
	"sms-librarian/internal/sms/intent"
)

// ==========================
// Status Tests
// ==========================

func TestGetStatus_ReportsContextBook(t *testing.T) {
	svc := &mockService{
		books: map[int]models.Book{
			42: testBook(42, "The Hobbit", models.StatusReading, 150, 300),
		},
	}
	h := NewGetStatusHandler(svc, noopLogger())
	conv := &conversation.Context{LastBookID: 42}

	resp := h.Handle(context.Background(), intent.Parameters{}, conv)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "The Hobbit")
	assert.Contains(t, resp.Message, "page 150 of 300")
	assert.Contains(t, resp.Message, "50%")

	bookID, ok := resp.BookID()
	assert.True(t, ok)
	assert.Equal(t, 42, bookID)
}

func TestGetStatus_NoCurrentBook(t *testing.T) {
	h := NewGetStatusHandler(&mockService{}, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "not reading anything")
}

func TestGetStatus_ServiceFailure(t *testing.T) {
	svc := &mockService{listErr: errors.New("connection refused")}
	h := NewGetStatusHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.False(t, resp.Success)
	assert.Equal(t, genericFailureMessage, resp.Message)
}

// ==========================
// List Tests
// ==========================

func TestListReading_NumberedList(t *testing.T) {
	svc := &mockService{
		reading: []models.Book{
			testBook(42, "The Hobbit", models.StatusReading, 150, 300),
			testBook(7, "Dune", models.StatusReading, 100, 400),
		},
	}
	h := NewListReadingHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "Currently reading:")
	assert.Contains(t, resp.Message, `1. "The Hobbit" — 50%`)
	assert.Contains(t, resp.Message, `2. "Dune" — 25%`)
	assert.Equal(t, 2, resp.Data["count"])
}

func TestListReading_CapsAtFive(t *testing.T) {
	svc := &mockService{
		reading: []models.Book{
			testBook(1, "One", models.StatusReading, 0, 100),
			testBook(2, "Two", models.StatusReading, 0, 100),
			testBook(3, "Three", models.StatusReading, 0, 100),
			testBook(4, "Four", models.StatusReading, 0, 100),
			testBook(5, "Five", models.StatusReading, 0, 100),
			testBook(6, "Six", models.StatusReading, 0, 100),
		},
	}
	h := NewListReadingHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.True(t, resp.Success)
	assert.Equal(t, 5, resp.Data["count"])
	assert.NotContains(t, resp.Message, "Six")
}

func TestListReading_Empty(t *testing.T) {
	h := NewListReadingHandler(&mockService{}, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.True(t, resp.Success, "an empty shelf is not an error")
	assert.Contains(t, resp.Message, "not reading anything")
}
