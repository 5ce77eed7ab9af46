package model

import "time"

// Book represents a catalogued title with copy counts.
type Book struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            *string   `json:"isbn"`
	PublicationYear *int      `json:"publication_year"`
	Publisher       string    `json:"publisher,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
	CoverMime       string    `json:"cover_mime,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
