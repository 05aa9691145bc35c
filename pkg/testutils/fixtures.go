package testutils

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shishobooks/libris/pkg/models"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

var seq atomic.Int64

func next() int64 {
	return seq.Add(1)
}

// CreateUser inserts a user with the given role. The password is always
// "password123".
func CreateUser(t *testing.T, db *bun.DB, role, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := &models.User{
		CreatedAt:    now,
		UpdatedAt:    now,
		Name:         "User " + email,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	_, err = db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)
	return user
}

// CreateBook inserts a book with copies total and available copies.
func CreateBook(t *testing.T, db *bun.DB, copies int) *models.Book {
	t.Helper()

	n := next()
	now := time.Now().UTC()
	book := &models.Book{
		CreatedAt:       now,
		UpdatedAt:       now,
		Title:           fmt.Sprintf("Book %d", n),
		Author:          fmt.Sprintf("Author %d", n),
		ISBN:            fmt.Sprintf("978%010d", n),
		TotalCopies:     copies,
		AvailableCopies: copies,
	}
	_, err := db.NewInsert().Model(book).Exec(context.Background())
	require.NoError(t, err)
	return book
}

// CreateStudent inserts a student with a unique roll number and email.
func CreateStudent(t *testing.T, db *bun.DB) *models.Student {
	t.Helper()

	n := next()
	now := time.Now().UTC()
	student := &models.Student{
		CreatedAt:  now,
		UpdatedAt:  now,
		Name:       fmt.Sprintf("Student %d", n),
		RollNo:     fmt.Sprintf("R%04d", n),
		Department: "Physics",
		Email:      fmt.Sprintf("student%d@example.com", n),
	}
	_, err := db.NewInsert().Model(student).Exec(context.Background())
	require.NoError(t, err)
	return student
}

// ReloadBook reads the book's current row.
func ReloadBook(t *testing.T, db *bun.DB, id int) *models.Book {
	t.Helper()

	book := &models.Book{}
	err := db.NewSelect().Model(book).Where("b.id = ?", id).Scan(context.Background())
	require.NoError(t, err)
	return book
}
