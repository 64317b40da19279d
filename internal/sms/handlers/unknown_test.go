// internal/sms/handlers/unknown_test.go
package handlers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sms-librarian/internal/library"
	"sms-librarian/internal/models"
	"sms-librarian/internal/sms/intent"
)

// ==========================
// Fallback Search Tests
// ==========================

func TestUnknown_ShortInputTriggersSearch(t *testing.T) {
	svc := &mockService{
		searchResult: &library.SearchResult{
			Books: []models.Book{testBook(42, "The Hobbit", models.StatusWantToRead, 0, 300)},
			Total: 1,
		},
	}
	h := NewUnknownHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{Query: "hobbit maybe"}, nil)

	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "The Hobbit")
	assert.Equal(t, []string{"hobbit maybe"}, svc.searchCalls)
}

func TestUnknown_LongInputSkipsSearch(t *testing.T) {
	svc := &mockService{}
	h := NewUnknownHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{
		Query: "this message has far too many words to be a search",
	}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "didn't understand")
	assert.Empty(t, svc.searchCalls, "long input must not hit the catalog")
}

func TestUnknown_SearchMissReportsUnrecognized(t *testing.T) {
	svc := &mockService{}
	h := NewUnknownHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{Query: "zxqw"}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, `I didn't understand "zxqw"`)
	assert.Contains(t, resp.Message, "help")
}

func TestUnknown_SearchErrorStillReplies(t *testing.T) {
	svc := &mockService{searchErr: errors.New("connection refused")}
	h := NewUnknownHandler(svc, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{Query: "hobbit"}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "didn't understand")
}

// ==========================
// Edge Case Tests
// ==========================

func TestUnknown_EmptyInput(t *testing.T) {
	h := NewUnknownHandler(&mockService{}, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, `I didn't understand "that"`)
}

func TestUnknown_LongEchoTruncated(t *testing.T) {
	long := strings.Repeat("word ", 3) + strings.Repeat("x", 200)
	h := NewUnknownHandler(&mockService{}, noopLogger())

	resp := h.Handle(context.Background(), intent.Parameters{Query: long}, nil)

	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "...")
	assert.Less(t, len(resp.Message), 200)
}
