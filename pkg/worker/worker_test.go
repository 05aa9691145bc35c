package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const loanPeriod = 14 * 24 * time.Hour

type testContext struct {
	cfg                *config.Config
	circulationService *circulation.Service
	issuedAt           time.Time
	records            []*models.BorrowRecord
}

// newTestContext issues one book to each of two students, the second a day
// after the first.
func newTestContext(t *testing.T) *testContext {
	t.Helper()

	db := testutils.NewDB(t)
	cfg := config.NewForTest()
	cfg.OverdueCheckInterval = 10 * time.Millisecond
	cfg.WorkerProcesses = 2

	svc := circulation.NewService(db, loanPeriod)
	issuedAt := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

	tc := &testContext{cfg: cfg, circulationService: svc, issuedAt: issuedAt}
	for i := 0; i < 2; i++ {
		svc.SetClock(func() time.Time { return issuedAt.Add(time.Duration(i) * 24 * time.Hour) })
		book := testutils.CreateBook(t, db, 1)
		student := testutils.CreateStudent(t, db)
		record, err := svc.Issue(context.Background(), circulation.IssueOptions{StudentID: student.ID, BookID: book.ID})
		require.NoError(t, err)
		tc.records = append(tc.records, record)
	}
	return tc
}

func (tc *testContext) at(now time.Time) {
	tc.circulationService.SetClock(func() time.Time { return now })
}

func TestSweep(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)
	w := New(tc.cfg, tc.circulationService)
	due := tc.issuedAt.Add(loanPeriod)

	tc.at(due)
	records, _, err := w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	tc.at(due.Add(time.Second))
	records, now, err := w.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tc.records[0].ID, records[0].ID)
	assert.True(t, records[0].Overdue)
	assert.True(t, now.Equal(due.Add(time.Second)))

	tc.at(due.Add(48 * time.Hour))
	records, _, err = w.Sweep(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	_, err = tc.circulationService.Return(context.Background(), tc.records[0].ID)
	require.NoError(t, err)
	records, _, err = w.Sweep(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, tc.records[1].ID, records[0].ID)
}

func TestWorker_RemindsOverdueRecords(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)
	tc.at(tc.issuedAt.Add(loanPeriod + 48*time.Hour))

	var mu sync.Mutex
	reminded := map[int]int{}
	done := make(chan struct{})
	var once sync.Once

	w := New(tc.cfg, tc.circulationService)
	w.SetNotifier(NotifierFunc(func(_ context.Context, record *models.BorrowRecord, _ time.Time) error {
		mu.Lock()
		defer mu.Unlock()
		reminded[record.ID]++
		if len(reminded) == len(tc.records) {
			once.Do(func() { close(done) })
		}
		return nil
	}))
	w.Start()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reminders")
	}
	w.Shutdown()

	mu.Lock()
	defer mu.Unlock()
	for _, record := range tc.records {
		assert.Positive(t, reminded[record.ID])
	}
}

func TestWorker_ShutdownWithoutWork(t *testing.T) {
	t.Parallel()
	tc := newTestContext(t)
	tc.cfg.OverdueCheckInterval = time.Hour

	w := New(tc.cfg, tc.circulationService)
	w.Start()

	finished := make(chan struct{})
	go func() {
		w.Shutdown()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
}

func TestLogNotifier(t *testing.T) {
	t.Parallel()
	record := &models.BorrowRecord{
		ID:      1,
		DueDate: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		Book:    &models.Book{Title: "Dune"},
		Student: &models.Student{Email: "ada@example.com"},
	}
	err := LogNotifier.Remind(context.Background(), record, record.DueDate.Add(72*time.Hour))
	assert.NoError(t, err)
}
