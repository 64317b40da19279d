// internal/sms/handlers/search.go
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

// SearchBookHandler runs a catalog search across title, author, genre, and
// description, ranked by rating then title, capped at five results with a
// "more available" hint when truncated.
type SearchBookHandler struct {
	service library.Service
	logger  logger.Logger
}

func NewSearchBookHandler(service library.Service, log logger.Logger) *SearchBookHandler {
	return &SearchBookHandler{
		service: service,
		logger:  log.WithFields(map[string]interface{}{"handler": "search_book"}),
	}
}

func (h *SearchBookHandler) Handle(ctx context.Context, params intent.Parameters, _ *conversation.Context) *models.HandlerResponse {
	query := params.Query
	if query == "" {
		query = params.BookTitle
	}
	if query == "" {
		return domainFailure("What should I search for? Try \"search tolkien\".")
	}

	result, err := h.service.SearchBooks(ctx, query, maxResults)
	if err != nil {
		h.logger.Error("search failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return failureResponse()
	}
	if len(result.Books) == 0 {
		return domainFailure(fmt.Sprintf("No books matched %q.", truncate(query, maxEchoLength)))
	}

	return formatSearchResults(result, query)
}

// formatSearchResults renders a non-empty result page; shared with the unknown
// handler's optimistic fallback search.
func formatSearchResults(result *library.SearchResult, query string) *models.HandlerResponse {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d result(s) for %q:\n", result.Total, truncate(query, maxEchoLength))
	for i := range result.Books {
		book := &result.Books[i]
		fmt.Fprintf(&b, "%d. %q by %s\n", i+1, book.Title, book.Author)
	}
	if result.Total > len(result.Books) {
		fmt.Fprintf(&b, "...and %d more. Narrow your search to see them.", result.Total-len(result.Books))
	}

	return &models.HandlerResponse{
		Success: true,
		Message: strings.TrimRight(b.String(), "\n"),
		Data: map[string]interface{}{
			"total":    result.Total,
			"returned": len(result.Books),
		},
	}
}
