package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/uptrace/bun"
)

// Stats is the library-wide snapshot shown to staff.
type Stats struct {
	TotalBooks     int `bun:"total_books" json:"total_books"`
	IssuedBooks    int `bun:"issued_books" json:"issued_books"`
	AvailableBooks int `bun:"available_books" json:"available_books"`
	OverdueBooks   int `bun:"overdue_books" json:"overdue_books"`
}

// StudentStats counts one student's borrow records.
type StudentStats struct {
	IssuedBooks   int `bun:"issued_books" json:"issued_books"`
	OverdueBooks  int `bun:"overdue_books" json:"overdue_books"`
	ReturnedBooks int `bun:"returned_books" json:"returned_books"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Stats aggregates copy counts and open loans as of now. A record counts as
// overdue only when its due date is strictly before now.
func (svc *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	stats := &Stats{}
	err := svc.db.NewRaw(`
		SELECT
			(SELECT COALESCE(SUM(total_copies), 0) FROM books) AS total_books,
			(SELECT COUNT(*) FROM borrow_records WHERE status = ?0) AS issued_books,
			(SELECT COALESCE(SUM(available_copies), 0) FROM books) AS available_books,
			(SELECT COUNT(*) FROM borrow_records WHERE status = ?0 AND due_date < ?1) AS overdue_books
	`, models.StatusIssued, now.UTC()).Scan(ctx, stats)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return stats, nil
}

// StudentStats aggregates the borrow records of one student as of now.
func (svc *Service) StudentStats(ctx context.Context, studentID int, now time.Time) (*StudentStats, error) {
	stats := &StudentStats{}
	err := svc.db.NewSelect().
		Model((*models.BorrowRecord)(nil)).
		ColumnExpr("COUNT(*) FILTER (WHERE br.status = ?) AS issued_books", models.StatusIssued).
		ColumnExpr("COUNT(*) FILTER (WHERE br.status = ? AND br.due_date < ?) AS overdue_books", models.StatusIssued, now.UTC()).
		ColumnExpr("COUNT(*) FILTER (WHERE br.status = ?) AS returned_books", models.StatusReturned).
		Where("br.student_id = ?", studentID).
		Scan(ctx, stats)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return stats, nil
}
