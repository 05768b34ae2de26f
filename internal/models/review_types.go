package models

import (
	"time"
)

// Review is the model for the 'reviews' table.
// A UNIQUE(user_id, book_id) index backs the one-review-per-user-per-book rule;
// the handler also checks before inserting so the caller gets a clean message.
type Review struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	BookID    int64     `json:"bookId" db:"book_id"`
	Rating    int       `json:"rating" db:"rating"` // 1..5
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Joined from users, populated manually
	UserName string `json:"userName" db:"-"`
}
