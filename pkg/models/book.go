package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Book is a catalog title. AvailableCopies always equals TotalCopies minus the
// number of ISSUED borrow records for the book.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID              int       `bun:",pk,nullzero" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	Title           string    `bun:",nullzero" json:"title"`
	Author          string    `bun:",nullzero" json:"author"`
	ISBN            string    `bun:"isbn,nullzero" json:"isbn"`
	TotalCopies     int       `json:"total_copies"`
	AvailableCopies int       `json:"available_copies"`
}
