// internal/models/book.go
package models

import "time"

// BookStatus is the reading lifecycle state of a catalog entry.
type BookStatus string

const (
	StatusWantToRead BookStatus = "want_to_read"
	StatusReading    BookStatus = "reading"
	StatusCompleted  BookStatus = "completed"
	StatusAbandoned  BookStatus = "abandoned"
)

// Book is a catalog entry with its current reading progress.
type Book struct {
	ID              int        `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	Genre           string     `json:"genre"`
	Description     string     `json:"description"`
	TotalPages      int        `json:"totalPages"`
	Rating          float64    `json:"rating"`
	Status          BookStatus `json:"status"`
	CurrentPage     int        `json:"currentPage"`
	PercentComplete float64    `json:"percentComplete"`
	UpdatedAt       time.Time  `json:"updatedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// Progress returns the completion percentage, preferring the stored percent and
// deriving from pages when the percent is missing but the page count is known.
func (b *Book) Progress() float64 {
	if b.PercentComplete > 0 {
		return b.PercentComplete
	}
	if b.TotalPages > 0 && b.CurrentPage > 0 {
		return float64(b.CurrentPage) / float64(b.TotalPages) * 100
	}
	return 0
}

// ReadingStats aggregates session history for the get_stats command.
type ReadingStats struct {
	InProgress     int `json:"inProgress"`
	Completed      int `json:"completed"`
	TotalPagesRead int `json:"totalPagesRead"`
}
