// internal/library/search.go
package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sms-librarian/internal/models"
)

// SearchBooks runs a substring search across title, author, genre, and
// description, ranked by rating (descending) then title (ascending). When an
// Elasticsearch backend is configured it is tried first; any failure there
// falls back to the SQL path so search never degrades below ILIKE.
func (s *Store) SearchBooks(ctx context.Context, query string, limit int) (*SearchResult, error) {
	if s.es != nil {
		result, err := s.searchElasticsearch(ctx, query, limit)
		if err == nil {
			return result, nil
		}
		s.logger.Warn("elasticsearch search failed, falling back to SQL", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
	}
	return s.searchSQL(ctx, query, limit)
}

func (s *Store) searchSQL(ctx context.Context, query string, limit int) (*SearchResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var total int
	countQuery := `SELECT COUNT(*) FROM books
		WHERE title ILIKE '%' || $1 || '%'
		   OR author ILIKE '%' || $1 || '%'
		   OR genre ILIKE '%' || $1 || '%'
		   OR description ILIKE '%' || $1 || '%'`
	if err := s.db.QueryRowContext(ctx, countQuery, query).Scan(&total); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}

	selectQuery := fmt.Sprintf(`SELECT %s FROM books
		WHERE title ILIKE '%%' || $1 || '%%'
		   OR author ILIKE '%%' || $1 || '%%'
		   OR genre ILIKE '%%' || $1 || '%%'
		   OR description ILIKE '%%' || $1 || '%%'
		ORDER BY rating DESC, title ASC
		LIMIT $2`, bookColumns)

	books, err := s.queryBooks(ctx, selectQuery, query, limit)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Books: books, Total: total}, nil
}

func (s *Store) searchElasticsearch(ctx context.Context, query string, limit int) (*SearchResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	esQuery := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"query_string": map[string]interface{}{
				"query":  "*" + escapeQueryString(query) + "*",
				"fields": []string{"title^2", "author", "genre", "description"},
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"rating": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"title.keyword": map[string]interface{}{"order": "asc"}},
		},
	}

	body, _ := json.Marshal(esQuery)
	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(s.esIndex),
		s.es.Search.WithBody(bytes.NewReader(body)),
		s.es.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search error: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source models.Book `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	books := make([]models.Book, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		books = append(books, hit.Source)
	}
	return &SearchResult{Books: books, Total: parsed.Hits.Total.Value}, nil
}

// escapeQueryString neutralizes query_string operators in user text.
func escapeQueryString(q string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`, `+`, `\+`, `-`, `\-`, `=`, `\=`, `&`, `\&`, `|`, `\|`,
		`>`, ``, `<`, ``, `!`, `\!`, `(`, `\(`, `)`, `\)`, `{`, `\{`, `}`, `\}`,
		`[`, `\[`, `]`, `\]`, `^`, `\^`, `"`, `\"`, `~`, `\~`, `*`, `\*`,
		`?`, `\?`, `:`, `\:`, `/`, `\/`,
	)
	return replacer.Replace(q)
}
