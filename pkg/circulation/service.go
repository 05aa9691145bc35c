package circulation

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/uptrace/bun"
)

type IssueOptions struct {
	StudentID int
	BookID    int
}

type RetrieveRecordOptions struct {
	ID int
}

type ListRecordsOptions struct {
	Limit     *int
	Offset    *int
	Status    *string
	StudentID *int
	BookID    *int
	// OverdueAt limits the list to records still ISSUED past their due date
	// as of this instant.
	OverdueAt *time.Time

	includeTotal bool
}

// Service owns the borrow/return lifecycle. Every mutation runs in one
// transaction around a conditional UPDATE, which is what keeps
// available_copies consistent under concurrent requests.
type Service struct {
	db         *bun.DB
	loanPeriod time.Duration
	policy     IssuePolicy
	now        func() time.Time
}

func NewService(db *bun.DB, loanPeriod time.Duration) *Service {
	return &Service{
		db:         db,
		loanPeriod: loanPeriod,
		policy:     AllowAll,
		now:        time.Now,
	}
}

// SetPolicy replaces the issue policy. A nil policy restores AllowAll.
func (svc *Service) SetPolicy(policy IssuePolicy) {
	if policy == nil {
		policy = AllowAll
	}
	svc.policy = policy
}

// SetClock replaces the time source. A nil clock restores time.Now.
func (svc *Service) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	svc.now = now
}

// Now returns the service clock in UTC at the microsecond precision the
// database stores.
func (svc *Service) Now() time.Time {
	return svc.now().UTC().Truncate(time.Microsecond)
}

// Issue lends one copy of a book to a student. It fails with NotFound for an
// unknown student or book and with Conflict when no copy is left at commit
// time.
func (svc *Service) Issue(ctx context.Context, opts IssueOptions) (*models.BorrowRecord, error) {
	now := svc.Now()
	var record *models.BorrowRecord

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		student := &models.Student{}
		err := tx.NewSelect().Model(student).Where("s.id = ?", opts.StudentID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Student")
			}
			return errors.WithStack(err)
		}

		book := &models.Book{}
		err = tx.NewSelect().Model(book).Where("b.id = ?", opts.BookID).Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errcodes.NotFound("Book")
			}
			return errors.WithStack(err)
		}

		openLoans, err := tx.NewSelect().
			Model((*models.BorrowRecord)(nil)).
			Where("br.student_id = ?", student.ID).
			Where("br.status = ?", models.StatusIssued).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		err = svc.policy.CanIssue(ctx, IssueContext{Student: student, Book: book, OpenLoans: openLoans})
		if err != nil {
			return err
		}

		res, err := tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = available_copies - 1").
			Set("updated_at = ?", now).
			Where("id = ?", book.ID).
			Where("available_copies > 0").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return errors.WithStack(err)
		} else if n == 0 {
			return errcodes.Conflict("Book is not available.")
		}
		book.AvailableCopies--

		record = &models.BorrowRecord{
			StudentID: student.ID,
			Student:   student,
			BookID:    book.ID,
			Book:      book,
			IssueDate: now,
			DueDate:   now.Add(svc.loanPeriod),
			Status:    models.StatusIssued,
		}
		_, err = tx.NewInsert().Model(record).Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	record.Overdue = models.IsOverdue(record, now)
	return record, nil
}

// Return closes an ISSUED record and puts the copy back on the shelf. A
// record that is already RETURNED fails with InvalidState and availability is
// left alone.
func (svc *Service) Return(ctx context.Context, id int) (*models.BorrowRecord, error) {
	now := svc.Now()

	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.BorrowRecord)(nil)).
			Set("status = ?", models.StatusReturned).
			Set("return_date = ?", now).
			Where("id = ?", id).
			Where("status = ?", models.StatusIssued).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if n == 0 {
			exists, err := tx.NewSelect().
				Model((*models.BorrowRecord)(nil)).
				Where("br.id = ?", id).
				Exists(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			if !exists {
				return errcodes.NotFound("Borrow record")
			}
			return errcodes.InvalidState("Book has already been returned.")
		}

		_, err = tx.NewUpdate().
			Model((*models.Book)(nil)).
			Set("available_copies = MIN(available_copies + 1, total_copies)").
			Set("updated_at = ?", now).
			Where("id = (SELECT book_id FROM borrow_records WHERE id = ?)", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return nil, err
	}

	return svc.RetrieveRecord(ctx, RetrieveRecordOptions{ID: id})
}

func (svc *Service) RetrieveRecord(ctx context.Context, opts RetrieveRecordOptions) (*models.BorrowRecord, error) {
	record := &models.BorrowRecord{}
	err := svc.db.NewSelect().
		Model(record).
		Relation("Book").
		Relation("Student").
		Where("br.id = ?", opts.ID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Borrow record")
		}
		return nil, errors.WithStack(err)
	}

	record.Overdue = models.IsOverdue(record, svc.Now())
	return record, nil
}

func (svc *Service) ListRecords(ctx context.Context, opts ListRecordsOptions) ([]*models.BorrowRecord, error) {
	r, _, err := svc.listRecordsWithTotal(ctx, opts)
	return r, errors.WithStack(err)
}

func (svc *Service) ListRecordsWithTotal(ctx context.Context, opts ListRecordsOptions) ([]*models.BorrowRecord, int, error) {
	opts.includeTotal = true
	return svc.listRecordsWithTotal(ctx, opts)
}

func (svc *Service) listRecordsWithTotal(ctx context.Context, opts ListRecordsOptions) ([]*models.BorrowRecord, int, error) {
	records := []*models.BorrowRecord{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&records).
		Relation("Book").
		Relation("Student").
		Order("br.issue_date DESC", "br.id DESC")

	if opts.Status != nil {
		q = q.Where("br.status = ?", *opts.Status)
	}
	if opts.StudentID != nil {
		q = q.Where("br.student_id = ?", *opts.StudentID)
	}
	if opts.BookID != nil {
		q = q.Where("br.book_id = ?", *opts.BookID)
	}
	if opts.OverdueAt != nil {
		q = q.Where("br.status = ?", models.StatusIssued).
			Where("br.due_date < ?", opts.OverdueAt.UTC())
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return models.WithOverdue(records, svc.Now()), total, nil
}

// ListForStudent returns a student's full borrow history, newest first.
func (svc *Service) ListForStudent(ctx context.Context, studentID int) ([]*models.BorrowRecord, error) {
	exists, err := svc.db.NewSelect().
		Model((*models.Student)(nil)).
		Where("s.id = ?", studentID).
		Exists(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if !exists {
		return nil, errcodes.NotFound("Student")
	}

	return svc.ListRecords(ctx, ListRecordsOptions{StudentID: &studentID})
}

// StudentForUser finds the student row linked to a user account by email.
func (svc *Service) StudentForUser(ctx context.Context, user *models.User) (*models.Student, error) {
	student := &models.Student{}
	err := svc.db.NewSelect().
		Model(student).
		Where("s.email = ? COLLATE NOCASE", user.Email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Student profile")
		}
		return nil, errors.WithStack(err)
	}
	return student, nil
}

// ListForUser returns the borrow history of the student linked to user.
func (svc *Service) ListForUser(ctx context.Context, user *models.User) ([]*models.BorrowRecord, error) {
	student, err := svc.StudentForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return svc.ListRecords(ctx, ListRecordsOptions{StudentID: &student.ID})
}
