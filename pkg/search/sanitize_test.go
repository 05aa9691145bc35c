package search

import (
	"context"
	"strings"
	"testing"

	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikePattern(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", LikePattern("   "))
	assert.Equal(t, "%tolkien%", LikePattern(" Tolkien "))
	assert.Equal(t, `%100\%\_off%`, LikePattern("100%_off"))
	assert.Len(t, LikePattern(strings.Repeat("a", 500)), maxQueryLength+2)
}

func TestFilter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := testutils.NewDB(t)

	hobbit := testutils.CreateBook(t, db, 1)
	_, err := db.NewUpdate().Model(hobbit).Set("title = ?", "The Hobbit").Set("author = ?", "J.R.R. Tolkien").WherePK().Exec(ctx)
	require.NoError(t, err)
	dune := testutils.CreateBook(t, db, 1)
	_, err = db.NewUpdate().Model(dune).Set("title = ?", "Dune 100%").Set("author = ?", "Frank Herbert").WherePK().Exec(ctx)
	require.NoError(t, err)

	find := func(input string) []int {
		var books []*models.Book
		q := db.NewSelect().Model(&books).Order("b.id ASC")
		require.NoError(t, Filter(q, input, "b.title", "b.author").Scan(ctx))
		ids := []int{}
		for _, b := range books {
			ids = append(ids, b.ID)
		}
		return ids
	}

	assert.Equal(t, []int{hobbit.ID}, find("tolk"))
	assert.Equal(t, []int{hobbit.ID}, find("HOBBIT"))
	assert.Equal(t, []int{dune.ID}, find("100%"))
	assert.Equal(t, []int{hobbit.ID, dune.ID}, find(""))
	assert.Equal(t, []int{dune.ID}, find("%"))
	assert.Empty(t, find("_"))
}
