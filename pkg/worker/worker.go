package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/models"
)

const sweepLimit = 500

var processID = randStringBytes(8)

// Notifier delivers a reminder for one overdue record.
type Notifier interface {
	Remind(ctx context.Context, record *models.BorrowRecord, now time.Time) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, record *models.BorrowRecord, now time.Time) error

func (f NotifierFunc) Remind(ctx context.Context, record *models.BorrowRecord, now time.Time) error {
	return f(ctx, record, now)
}

// LogNotifier writes reminders to the request-scoped logger.
var LogNotifier Notifier = NotifierFunc(func(ctx context.Context, record *models.BorrowRecord, now time.Time) error {
	data := logger.Data{
		"record_id":    record.ID,
		"book_id":      record.BookID,
		"student_id":   record.StudentID,
		"due_date":     record.DueDate,
		"days_overdue": int(now.Sub(record.DueDate).Hours() / 24),
	}
	if record.Student != nil {
		data["student_email"] = record.Student.Email
	}
	if record.Book != nil {
		data["book_title"] = record.Book.Title
	}
	logger.FromContext(ctx).Warn("book overdue", data)
	return nil
})

type reminder struct {
	record *models.BorrowRecord
	now    time.Time
}

// Worker periodically sweeps for overdue borrow records and hands each one to
// a Notifier. Sweeping and notifying run on separate goroutines joined by a
// queue.
type Worker struct {
	config *config.Config
	log    logger.Logger

	circulationService *circulation.Service
	notifier           Notifier

	queue          chan reminder
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, circulationService *circulation.Service) *Worker {
	return &Worker{
		config: cfg,
		log:    logger.New(),

		circulationService: circulationService,
		notifier:           LogNotifier,

		queue:          make(chan reminder, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}
}

// SetNotifier replaces the notifier. Must be called before Start.
func (w *Worker) SetNotifier(n Notifier) {
	w.notifier = n
}

func (w *Worker) Start() {
	go w.fetchOverdue()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processReminders()
	}
}

// Sweep returns the records that are overdue as of the circulation clock.
func (w *Worker) Sweep(ctx context.Context) ([]*models.BorrowRecord, time.Time, error) {
	now := w.circulationService.Now()
	records, err := w.circulationService.ListRecords(ctx, circulation.ListRecordsOptions{
		Limit:     pointerutil.Int(sweepLimit),
		OverdueAt: &now,
	})
	return records, now, err
}

func (w *Worker) fetchOverdue() {
	duration := w.config.OverdueCheckInterval
	timer := time.NewTimer(duration)

	for {
		select {
		case <-w.shutdown:
			w.doneFetching <- struct{}{}
			return
		case <-timer.C:
			records, now, err := w.Sweep(context.Background())
			if err != nil {
				w.log.Err(err).Error("list overdue records error")
				timer.Reset(duration)
				continue
			}
			if len(records) > 0 {
				w.log.Info("overdue sweep", logger.Data{"count": len(records), "process_id": processID})
			}
			for _, record := range records {
				select {
				case w.queue <- reminder{record: record, now: now}:
				case <-w.shutdown:
					w.doneFetching <- struct{}{}
					return
				}
			}
			timer.Reset(duration)
		}
	}
}

func (w *Worker) processReminders() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case r := <-w.queue:
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"record_id": r.record.ID, "process_id": processID})
			ctx := log.WithContext(context.Background())

			if err := w.notifier.Remind(ctx, r.record, r.now); err != nil {
				log.Err(err).Error("remind error")
			}
		}
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.doneFetching
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
