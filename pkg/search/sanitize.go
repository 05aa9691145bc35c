// Package search builds case-insensitive substring filters for list
// endpoints.
package search

import (
	"strings"

	"github.com/uptrace/bun"
)

const maxQueryLength = 100

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern turns user input into a LIKE pattern that matches it as a
// literal substring. It returns "" for blank input.
func LikePattern(input string) string {
	input = strings.TrimSpace(input)
	if len(input) > maxQueryLength {
		input = input[:maxQueryLength]
	}
	if input == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(strings.ToLower(input)) + "%"
}

// Filter restricts q to rows where any of columns contains input, ignoring
// case. Blank input leaves q untouched.
func Filter(q *bun.SelectQuery, input string, columns ...string) *bun.SelectQuery {
	pattern := LikePattern(input)
	if pattern == "" || len(columns) == 0 {
		return q
	}
	return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
		for _, col := range columns {
			q = q.WhereOr("LOWER("+col+`) LIKE ? ESCAPE '\'`, pattern)
		}
		return q
	})
}
