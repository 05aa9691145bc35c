package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func insertRecord(t *testing.T, db *bun.DB, studentID, bookID int, due time.Time, status string) {
	t.Helper()
	record := &models.BorrowRecord{
		StudentID: studentID,
		BookID:    bookID,
		IssueDate: due.Add(-14 * 24 * time.Hour),
		DueDate:   due,
		Status:    status,
	}
	if status == models.StatusReturned {
		returned := due
		record.ReturnDate = &returned
	}
	_, err := db.NewInsert().Model(record).Exec(context.Background())
	require.NoError(t, err)

	if status == models.StatusIssued {
		_, err = db.NewUpdate().Model((*models.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Where("id = ?", bookID).
			Exec(context.Background())
		require.NoError(t, err)
	}
}

func TestStats_Empty(t *testing.T) {
	t.Parallel()
	svc := NewService(testutils.NewDB(t))

	stats, err := svc.Stats(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}

func TestStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	due := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	a := testutils.CreateBook(t, db, 3)
	b := testutils.CreateBook(t, db, 2)
	student := testutils.CreateStudent(t, db)

	insertRecord(t, db, student.ID, a.ID, due, models.StatusIssued)
	insertRecord(t, db, student.ID, a.ID, due.Add(48*time.Hour), models.StatusIssued)
	insertRecord(t, db, student.ID, b.ID, due.Add(-48*time.Hour), models.StatusReturned)

	tests := []struct {
		name    string
		now     time.Time
		overdue int
	}{
		{"one second before due", due.Add(-time.Second), 0},
		{"exactly at due", due, 0},
		{"one second after due", due.Add(time.Second), 1},
		{"after every due date", due.Add(72 * time.Hour), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, err := svc.Stats(ctx, tt.now)
			require.NoError(t, err)
			assert.Equal(t, 5, stats.TotalBooks)
			assert.Equal(t, 2, stats.IssuedBooks)
			assert.Equal(t, 3, stats.AvailableBooks)
			assert.Equal(t, tt.overdue, stats.OverdueBooks)
		})
	}
}

func TestStudentStats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db)

	due := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	book := testutils.CreateBook(t, db, 5)
	student := testutils.CreateStudent(t, db)
	other := testutils.CreateStudent(t, db)

	insertRecord(t, db, student.ID, book.ID, due, models.StatusIssued)
	insertRecord(t, db, student.ID, book.ID, due.Add(-time.Hour), models.StatusReturned)
	insertRecord(t, db, other.ID, book.ID, due.Add(-time.Hour), models.StatusIssued)

	stats, err := svc.StudentStats(ctx, student.ID, due.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, &StudentStats{IssuedBooks: 1, OverdueBooks: 1, ReturnedBooks: 1}, stats)

	stats, err = svc.StudentStats(ctx, student.ID, due.Add(-time.Second))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.OverdueBooks)

	stats, err = svc.StudentStats(ctx, 999, due)
	require.NoError(t, err)
	assert.Equal(t, &StudentStats{}, stats)
}
