package circulation

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

const loanPeriod = 14 * 24 * time.Hour

func requireCode(t *testing.T, err error, status int) *errcodes.Error {
	t.Helper()
	var codeErr *errcodes.Error
	require.ErrorAs(t, err, &codeErr)
	assert.Equal(t, status, codeErr.HTTPCode)
	return codeErr
}

func countRecords(t *testing.T, db *bun.DB, bookID int) int {
	t.Helper()
	n, err := db.NewSelect().Model((*models.BorrowRecord)(nil)).Where("br.book_id = ?", bookID).Count(context.Background())
	require.NoError(t, err)
	return n
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)
	now := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	svc.now = fixedClock(now)

	book := testutils.CreateBook(t, db, 2)
	student := testutils.CreateStudent(t, db)

	record, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Equal(t, models.StatusIssued, record.Status)
	assert.True(t, record.IssueDate.Equal(now))
	assert.True(t, record.DueDate.Equal(now.Add(loanPeriod)))
	assert.Nil(t, record.ReturnDate)
	assert.False(t, record.Overdue)
	require.NotNil(t, record.Book)
	assert.Equal(t, 1, record.Book.AvailableCopies)
	require.NotNil(t, record.Student)
	assert.Equal(t, student.Email, record.Student.Email)

	assert.Equal(t, 1, testutils.ReloadBook(t, db, book.ID).AvailableCopies)
}

func TestIssue_NotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 1)
	student := testutils.CreateStudent(t, db)

	_, err := svc.Issue(ctx, IssueOptions{StudentID: 999, BookID: book.ID})
	codeErr := requireCode(t, err, http.StatusNotFound)
	assert.Equal(t, "Student not found.", codeErr.Message)

	_, err = svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: 999})
	codeErr = requireCode(t, err, http.StatusNotFound)
	assert.Equal(t, "Book not found.", codeErr.Message)

	assert.Equal(t, 1, testutils.ReloadBook(t, db, book.ID).AvailableCopies)
	assert.Zero(t, countRecords(t, db, book.ID))
}

func TestIssue_LastCopyThenReturn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 1)
	a := testutils.CreateStudent(t, db)
	b := testutils.CreateStudent(t, db)

	record, err := svc.Issue(ctx, IssueOptions{StudentID: a.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, testutils.ReloadBook(t, db, book.ID).AvailableCopies)

	_, err = svc.Issue(ctx, IssueOptions{StudentID: b.ID, BookID: book.ID})
	codeErr := requireCode(t, err, http.StatusConflict)
	assert.Equal(t, "Book is not available.", codeErr.Message)
	assert.Equal(t, 1, countRecords(t, db, book.ID))

	returned, err := svc.Return(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.Equal(t, 1, testutils.ReloadBook(t, db, book.ID).AvailableCopies)

	_, err = svc.Issue(ctx, IssueOptions{StudentID: b.ID, BookID: book.ID})
	require.NoError(t, err)
}

func TestIssue_ConcurrentLastCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewFileDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 1)
	students := []*models.Student{testutils.CreateStudent(t, db), testutils.CreateStudent(t, db)}

	errs := make([]error, len(students))
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i, s := range students {
		wg.Add(1)
		go func(i int, studentID int) {
			defer wg.Done()
			<-start
			_, errs[i] = svc.Issue(ctx, IssueOptions{StudentID: studentID, BookID: book.ID})
		}(i, s.ID)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		requireCode(t, err, http.StatusConflict)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, countRecords(t, db, book.ID))
	assert.Equal(t, 0, testutils.ReloadBook(t, db, book.ID).AvailableCopies)
}

func TestIssue_ConcurrentManyCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewFileDB(t)
	svc := NewService(db, loanPeriod)

	const copies = 3
	const claimants = 10
	book := testutils.CreateBook(t, db, copies)

	ids := make([]int, claimants)
	for i := range ids {
		ids[i] = testutils.CreateStudent(t, db).ID
	}

	var mu sync.Mutex
	succeeded := 0
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(studentID int) {
			defer wg.Done()
			_, err := svc.Issue(ctx, IssueOptions{StudentID: studentID, BookID: book.ID})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, copies, succeeded)
	assert.Equal(t, copies, countRecords(t, db, book.ID))
	assert.Equal(t, 0, testutils.ReloadBook(t, db, book.ID).AvailableCopies)
}

func TestIssue_Policy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)
	svc.SetPolicy(MaxLoans(1))

	first := testutils.CreateBook(t, db, 1)
	second := testutils.CreateBook(t, db, 1)
	student := testutils.CreateStudent(t, db)

	_, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: first.ID})
	require.NoError(t, err)

	_, err = svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: second.ID})
	codeErr := requireCode(t, err, http.StatusConflict)
	assert.Equal(t, "Student already has 1 books issued.", codeErr.Message)
	assert.Equal(t, 1, testutils.ReloadBook(t, db, second.ID).AvailableCopies)

	svc.SetPolicy(nil)
	_, err = svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: second.ID})
	require.NoError(t, err)
}

func TestMaxLoans_NoLimit(t *testing.T) {
	t.Parallel()
	err := MaxLoans(0).CanIssue(context.Background(), IssueContext{OpenLoans: 100})
	assert.NoError(t, err)
}

func TestReturn_Twice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 2)
	student := testutils.CreateStudent(t, db)

	record, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, testutils.ReloadBook(t, db, book.ID).AvailableCopies)

	_, err = svc.Return(ctx, record.ID)
	require.NoError(t, err)

	_, err = svc.Return(ctx, record.ID)
	codeErr := requireCode(t, err, http.StatusConflict)
	assert.Equal(t, "invalid_state", codeErr.Code)
	assert.Equal(t, "Book has already been returned.", codeErr.Message)
	assert.Equal(t, 2, testutils.ReloadBook(t, db, book.ID).AvailableCopies)

	_, err = svc.Return(ctx, 999)
	codeErr = requireCode(t, err, http.StatusNotFound)
	assert.Equal(t, "Borrow record not found.", codeErr.Message)
}

func TestReturn_ConcurrentDoubleReturn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewFileDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 1)
	student := testutils.CreateStudent(t, db)
	record, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: book.ID})
	require.NoError(t, err)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Return(ctx, record.ID)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			requireCode(t, err, http.StatusConflict)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, testutils.ReloadBook(t, db, book.ID).AvailableCopies)
}

func TestOverdueBoundary(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)
	issuedAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = fixedClock(issuedAt)

	book := testutils.CreateBook(t, db, 2)
	student := testutils.CreateStudent(t, db)
	record, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: book.ID})
	require.NoError(t, err)
	due := record.DueDate

	tests := []struct {
		name    string
		at      time.Time
		overdue bool
	}{
		{"one second before due", due.Add(-time.Second), false},
		{"exactly at due", due, false},
		{"one second after due", due.Add(time.Second), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc.now = fixedClock(tt.at)

			got, err := svc.RetrieveRecord(ctx, RetrieveRecordOptions{ID: record.ID})
			require.NoError(t, err)
			assert.Equal(t, tt.overdue, got.Overdue)

			at := tt.at
			records, total, err := svc.ListRecordsWithTotal(ctx, ListRecordsOptions{OverdueAt: &at})
			require.NoError(t, err)
			if tt.overdue {
				assert.Equal(t, 1, total)
				require.Len(t, records, 1)
				assert.True(t, records[0].Overdue)
			} else {
				assert.Zero(t, total)
			}
		})
	}

	svc.now = fixedClock(due.Add(time.Hour))
	_, err = svc.Return(ctx, record.ID)
	require.NoError(t, err)

	at := due.Add(2 * time.Hour)
	records, err := svc.ListRecords(ctx, ListRecordsOptions{OverdueAt: &at})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestOverdueBoundary_SubMicrosecondClock(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)
	svc.now = fixedClock(time.Date(2026, 10, 1, 12, 0, 0, 123456789, time.UTC))

	book := testutils.CreateBook(t, db, 1)
	student := testutils.CreateStudent(t, db)
	record, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: book.ID})
	require.NoError(t, err)
	assert.Zero(t, record.DueDate.Nanosecond()%int(time.Microsecond))

	svc.now = fixedClock(record.DueDate.Add(500 * time.Nanosecond))
	now := svc.Now()
	assert.True(t, now.Equal(record.DueDate))

	got, err := svc.RetrieveRecord(ctx, RetrieveRecordOptions{ID: record.ID})
	require.NoError(t, err)
	assert.False(t, got.Overdue)

	_, total, err := svc.ListRecordsWithTotal(ctx, ListRecordsOptions{OverdueAt: &now})
	require.NoError(t, err)
	assert.Zero(t, total)

	svc.now = fixedClock(record.DueDate.Add(time.Microsecond))
	now = svc.Now()
	got, err = svc.RetrieveRecord(ctx, RetrieveRecordOptions{ID: record.ID})
	require.NoError(t, err)
	assert.True(t, got.Overdue)

	_, total, err = svc.ListRecordsWithTotal(ctx, ListRecordsOptions{OverdueAt: &now})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestListRecords_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 3)
	other := testutils.CreateBook(t, db, 1)
	a := testutils.CreateStudent(t, db)
	b := testutils.CreateStudent(t, db)

	r1, err := svc.Issue(ctx, IssueOptions{StudentID: a.ID, BookID: book.ID})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueOptions{StudentID: b.ID, BookID: book.ID})
	require.NoError(t, err)
	_, err = svc.Issue(ctx, IssueOptions{StudentID: a.ID, BookID: other.ID})
	require.NoError(t, err)
	_, err = svc.Return(ctx, r1.ID)
	require.NoError(t, err)

	issued := models.StatusIssued
	_, total, err := svc.ListRecordsWithTotal(ctx, ListRecordsOptions{Status: &issued})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	_, total, err = svc.ListRecordsWithTotal(ctx, ListRecordsOptions{StudentID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	records, total, err := svc.ListRecordsWithTotal(ctx, ListRecordsOptions{BookID: &other.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, records, 1)
	require.NotNil(t, records[0].Book)
	assert.Equal(t, other.Title, records[0].Book.Title)

	history, err := svc.ListForStudent(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)

	_, err = svc.ListForStudent(ctx, 999)
	requireCode(t, err, http.StatusNotFound)
}

func TestListForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)
	svc := NewService(db, loanPeriod)

	book := testutils.CreateBook(t, db, 1)
	student := testutils.CreateStudent(t, db)
	_, err := svc.Issue(ctx, IssueOptions{StudentID: student.ID, BookID: book.ID})
	require.NoError(t, err)

	linked := testutils.CreateUser(t, db, models.RoleStudent, student.Email)
	records, err := svc.ListForUser(ctx, linked)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	orphan := testutils.CreateUser(t, db, models.RoleStudent, "nobody@example.com")
	_, err = svc.ListForUser(ctx, orphan)
	codeErr := requireCode(t, err, http.StatusNotFound)
	assert.Equal(t, "Student profile not found.", codeErr.Message)
}
