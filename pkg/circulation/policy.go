package circulation

import (
	"context"
	"fmt"

	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
)

// IssuePolicy decides whether a student may borrow a book. Returning an error
// (typically an errcodes value) rejects the issue before any copy is taken.
type IssuePolicy interface {
	CanIssue(ctx context.Context, ic IssueContext) error
}

// IssueContext is the state a policy decides on, read inside the issuing
// transaction.
type IssueContext struct {
	Student *models.Student
	Book    *models.Book
	// OpenLoans is the number of ISSUED records the student already holds.
	OpenLoans int
}

// IssuePolicyFunc adapts a function to IssuePolicy.
type IssuePolicyFunc func(ctx context.Context, ic IssueContext) error

func (f IssuePolicyFunc) CanIssue(ctx context.Context, ic IssueContext) error {
	return f(ctx, ic)
}

// AllowAll is the default policy.
var AllowAll IssuePolicy = IssuePolicyFunc(func(context.Context, IssueContext) error {
	return nil
})

// MaxLoans rejects an issue when the student already holds limit open loans.
// A limit of zero or less means no limit.
func MaxLoans(limit int) IssuePolicy {
	if limit <= 0 {
		return AllowAll
	}
	return IssuePolicyFunc(func(_ context.Context, ic IssueContext) error {
		if ic.OpenLoans >= limit {
			return errcodes.Conflict(fmt.Sprintf("Student already has %d books issued.", ic.OpenLoans))
		}
		return nil
	})
}
