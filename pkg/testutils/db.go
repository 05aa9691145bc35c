// Package testutils holds helpers shared by package tests: migrated databases
// and seed rows.
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/database"
	"github.com/shishobooks/libris/pkg/migrations"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// NewDB returns a migrated in-memory database that is closed when the test
// ends.
func NewDB(t *testing.T) *bun.DB {
	t.Helper()
	return newDB(t, config.NewForTest())
}

// NewFileDB returns a migrated database backed by a temp file, for tests that
// race goroutines against the same data.
func NewFileDB(t *testing.T) *bun.DB {
	t.Helper()
	cfg := config.NewForTest()
	cfg.DatabaseFilePath = filepath.Join(t.TempDir(), "libris.db")
	return newDB(t, cfg)
}

func newDB(t *testing.T, cfg *config.Config) *bun.DB {
	t.Helper()

	db, err := database.New(cfg)
	require.NoError(t, err)

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
