package books

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/search"
	"github.com/uptrace/bun"
)

const duplicateISBNMessage = "A book with this ISBN already exists."

type RetrieveBookOptions struct {
	ID *int
}

type ListBooksOptions struct {
	Limit  *int
	Offset *int
	Search *string

	includeTotal bool
}

type UpdateBookOptions struct {
	Title       string
	Author      string
	ISBN        string
	TotalCopies int
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateBook inserts the book with every copy on the shelf.
func (svc *Service) CreateBook(ctx context.Context, book *models.Book) error {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	book.AvailableCopies = book.TotalCopies

	_, err := svc.db.
		NewInsert().
		Model(book).
		Returning("*").
		Exec(ctx)
	return errcodes.FromUniqueViolation(err, duplicateISBNMessage)
}

func (svc *Service) RetrieveBook(ctx context.Context, opts RetrieveBookOptions) (*models.Book, error) {
	return retrieveBook(ctx, svc.db, opts)
}

func retrieveBook(ctx context.Context, db bun.IDB, opts RetrieveBookOptions) (*models.Book, error) {
	book := &models.Book{}

	q := db.
		NewSelect().
		Model(book)

	if opts.ID != nil {
		q = q.Where("b.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Book")
		}
		return nil, errors.WithStack(err)
	}

	return book, nil
}

func (svc *Service) ListBooks(ctx context.Context, opts ListBooksOptions) ([]*models.Book, error) {
	b, _, err := svc.listBooksWithTotal(ctx, opts)
	return b, errors.WithStack(err)
}

func (svc *Service) ListBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	opts.includeTotal = true
	return svc.listBooksWithTotal(ctx, opts)
}

func (svc *Service) listBooksWithTotal(ctx context.Context, opts ListBooksOptions) ([]*models.Book, int, error) {
	books := []*models.Book{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&books).
		Order("b.title ASC", "b.id ASC")

	if opts.Search != nil {
		q = search.Filter(q, *opts.Search, "b.title", "b.author", "b.isbn")
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

	return books, total, nil
}

// UpdateBook replaces the book's fields. Changing TotalCopies moves
// AvailableCopies by the same amount, so copies that are out stay out; the
// total can't drop below the number of copies currently issued.
func (svc *Service) UpdateBook(ctx context.Context, id int, opts UpdateBookOptions) (*models.Book, error) {
	var book *models.Book
	err := svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		book, err = retrieveBook(ctx, tx, RetrieveBookOptions{ID: &id})
		if err != nil {
			return err
		}

		issued, err := countIssued(ctx, tx, id)
		if err != nil {
			return err
		}
		if opts.TotalCopies < issued {
			return errcodes.Conflict(fmt.Sprintf("Total copies can't be less than the %d copies currently issued.", issued))
		}

		book.Title = opts.Title
		book.Author = opts.Author
		book.ISBN = opts.ISBN
		book.TotalCopies = opts.TotalCopies
		book.AvailableCopies = opts.TotalCopies - issued
		book.UpdatedAt = time.Now().UTC()

		_, err = tx.NewUpdate().
			Model(book).
			Column("title", "author", "isbn", "total_copies", "available_copies", "updated_at").
			WherePK().
			Exec(ctx)
		return errcodes.FromUniqueViolation(err, duplicateISBNMessage)
	})
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook removes a book along with its returned borrow history. Books
// with copies still out can't be deleted.
func (svc *Service) DeleteBook(ctx context.Context, id int) error {
	return svc.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := retrieveBook(ctx, tx, RetrieveBookOptions{ID: &id}); err != nil {
			return err
		}

		issued, err := countIssued(ctx, tx, id)
		if err != nil {
			return err
		}
		if issued > 0 {
			return errcodes.Conflict("Book has copies that haven't been returned.")
		}

		_, err = tx.NewDelete().
			Model((*models.BorrowRecord)(nil)).
			Where("book_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewDelete().
			Model((*models.Book)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
}

func countIssued(ctx context.Context, db bun.IDB, bookID int) (int, error) {
	count, err := db.NewSelect().
		Model((*models.BorrowRecord)(nil)).
		Where("br.book_id = ?", bookID).
		Where("br.status = ?", models.StatusIssued).
		Count(ctx)
	return count, errors.WithStack(err)
}
