package models

import (
	"time"
)

// Book is the model for the 'books' table.
// Rating and NumReviews are derived columns: they are recomputed inside the
// same transaction as every review insert, so they always equal the mean and
// count of the book's review rows.
type Book struct {
	ID          int64   `json:"id" db:"id"`
	Title       string  `json:"title" db:"title"`
	Author      string  `json:"author" db:"author"`
	Slug        string  `json:"slug" db:"slug"`
	Description string  `json:"description" db:"description"`
	Price       float64 `json:"price" db:"price"`
	Category    string  `json:"category" db:"category"`
	Stock       int     `json:"stock" db:"stock"`
	Image       string  `json:"image" db:"image"`

	Rating     float64 `json:"rating" db:"rating"`
	NumReviews int     `json:"numReviews" db:"num_reviews"`
	Featured   bool    `json:"featured" db:"featured"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Pagination describes one page of a book listing.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"` // ceil(Total / Limit)
}
