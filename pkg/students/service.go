package students

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/search"
	"github.com/uptrace/bun"
)

const duplicateStudentMessage = "A student with this roll number or email already exists."

type RetrieveStudentOptions struct {
	ID    *int
	Email *string
}

type ListStudentsOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateStudentOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) CreateStudent(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	_, err := svc.db.
		NewInsert().
		Model(student).
		Returning("*").
		Exec(ctx)
	return errcodes.FromUniqueViolation(err, duplicateStudentMessage)
}

func (svc *Service) RetrieveStudent(ctx context.Context, opts RetrieveStudentOptions) (*models.Student, error) {
	student := &models.Student{}

	q := svc.db.
		NewSelect().
		Model(student)

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Email != nil {
		q = q.Where("s.email = ? COLLATE NOCASE", *opts.Email)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Student")
		}
		return nil, errors.WithStack(err)
	}

	return student, nil
}

func (svc *Service) ListStudentsWithTotal(ctx context.Context, opts ListStudentsOptions) ([]*models.Student, int, error) {
	opts.includeTotal = true
	return svc.listStudentsWithTotal(ctx, opts)
}

func (svc *Service) listStudentsWithTotal(ctx context.Context, opts ListStudentsOptions) ([]*models.Student, int, error) {
	students := []*models.Student{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&students).
		Order("s.name ASC", "s.id ASC")

	if opts.Search != nil {
		q = search.Filter(q, *opts.Search, "s.name", "s.roll_no", "s.email", "s.department")
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

	return students, total, nil
}

func (svc *Service) UpdateStudent(ctx context.Context, student *models.Student, opts UpdateStudentOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}

	student.UpdatedAt = time.Now().UTC()
	columns := make([]string, 0, len(opts.Columns)+1)
	columns = append(columns, opts.Columns...)
	columns = append(columns, "updated_at")

	res, err := svc.db.
		NewUpdate().
		Model(student).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return errcodes.FromUniqueViolation(err, duplicateStudentMessage)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if n == 0 {
		return errcodes.NotFound("Student")
	}
	return nil
}

// DeleteStudent removes a student and their returned borrow history. A
// student who still has books out can't be deleted.
func (svc *Service) DeleteStudent(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*models.Student)(nil)).
			Where("s.id = ?", id).
			Exists(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if !exists {
			return errcodes.NotFound("Student")
		}

		issued, err := tx.NewSelect().
			Model((*models.BorrowRecord)(nil)).
			Where("br.student_id = ?", id).
			Where("br.status = ?", models.StatusIssued).
			Count(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if issued > 0 {
			return errcodes.Conflict("Student has books that haven't been returned.")
		}

		_, err = tx.NewDelete().
			Model((*models.BorrowRecord)(nil)).
			Where("student_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Student)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}
