package migrations

import (
	"context"
	"testing"

	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun/migrate"
)

func TestBringUpToDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.New(config.NewForTest())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)

	// A second run has nothing left to apply.
	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, group.ID)

	_, err = db.ExecContext(ctx, `INSERT INTO books (title, author, isbn, total_copies, available_copies) VALUES ('T', 'A', '1', 1, 2)`)
	require.Error(t, err, "available copies above total must be rejected")

	_, err = db.ExecContext(ctx, `INSERT INTO books (title, author, isbn, total_copies, available_copies) VALUES ('T', 'A', '1', 0, 0)`)
	require.Error(t, err, "a book needs at least one copy")
}

func TestRollback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := database.New(config.NewForTest())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = BringUpToDate(ctx, db)
	require.NoError(t, err)

	migrator := migrate.NewMigrator(db, Migrations)
	_, err = migrator.Rollback(ctx)
	require.NoError(t, err)

	var count int
	err = db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'borrow_records'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
