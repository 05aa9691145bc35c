package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(ctx context.Context, db *bun.DB) error {
		stmts := []string{
			`CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				email TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL CHECK (role IN ('admin', 'librarian', 'student'))
			)`,
			`CREATE UNIQUE INDEX ux_users_email ON users (email COLLATE NOCASE)`,
			`CREATE TABLE books (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				title TEXT NOT NULL,
				author TEXT NOT NULL,
				isbn TEXT NOT NULL,
				total_copies INTEGER NOT NULL CHECK (total_copies >= 1),
				available_copies INTEGER NOT NULL,
				CHECK (available_copies >= 0 AND available_copies <= total_copies)
			)`,
			`CREATE UNIQUE INDEX ux_books_isbn ON books (isbn)`,
			`CREATE TABLE students (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				roll_no TEXT NOT NULL,
				department TEXT NOT NULL,
				email TEXT NOT NULL,
				join_date TIMESTAMPTZ
			)`,
			`CREATE UNIQUE INDEX ux_students_roll_no ON students (roll_no COLLATE NOCASE)`,
			`CREATE UNIQUE INDEX ux_students_email ON students (email COLLATE NOCASE)`,
			`CREATE TABLE borrow_records (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				student_id INTEGER REFERENCES students (id) NOT NULL,
				book_id INTEGER REFERENCES books (id) NOT NULL,
				issue_date TIMESTAMPTZ NOT NULL,
				due_date TIMESTAMPTZ NOT NULL,
				return_date TIMESTAMPTZ,
				status TEXT NOT NULL CHECK (status IN ('ISSUED', 'RETURNED'))
			)`,
			`CREATE INDEX ix_borrow_records_student_id ON borrow_records (student_id)`,
			`CREATE INDEX ix_borrow_records_book_id ON borrow_records (book_id)`,
			`CREATE INDEX ix_borrow_records_status_due_date ON borrow_records (status, due_date)`,
		}
		for _, stmt := range stmts {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	down := func(ctx context.Context, db *bun.DB) error {
		for _, table := range []string{"borrow_records", "students", "books", "users"} {
			if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}
