package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Borrow record statuses. A record is created ISSUED and moves to RETURNED
// exactly once.
const (
	StatusIssued   = "ISSUED"
	StatusReturned = "RETURNED"
)

type BorrowRecord struct {
	bun.BaseModel `bun:"table:borrow_records,alias:br"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	StudentID  int        `json:"student_id"`
	Student    *Student   `bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
	BookID     int        `json:"book_id"`
	Book       *Book      `bun:"rel:belongs-to,join:book_id=id" json:"book,omitempty"`
	IssueDate  time.Time  `json:"issue_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date"`
	Status     string     `bun:",nullzero" json:"status"`

	// Overdue is derived on read and never stored.
	Overdue bool `bun:"-" json:"overdue"`
}

// IsOverdue reports whether the record is still out past its due date. It is
// the only overdue predicate; SQL aggregates use the same strict comparison.
func IsOverdue(record *BorrowRecord, now time.Time) bool {
	return record.Status == StatusIssued && now.After(record.DueDate)
}

// WithOverdue stamps the derived Overdue flag on each record.
func WithOverdue(records []*BorrowRecord, now time.Time) []*BorrowRecord {
	for _, r := range records {
		r.Overdue = IsOverdue(r, now)
	}
	return records
}
