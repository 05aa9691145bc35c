package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOverdue(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	returned := due.Add(48 * time.Hour)

	tests := []struct {
		name     string
		record   *BorrowRecord
		now      time.Time
		expected bool
	}{
		{"issued one second before due", &BorrowRecord{Status: StatusIssued, DueDate: due}, due.Add(-time.Second), false},
		{"issued exactly at due", &BorrowRecord{Status: StatusIssued, DueDate: due}, due, false},
		{"issued one second after due", &BorrowRecord{Status: StatusIssued, DueDate: due}, due.Add(time.Second), true},
		{"returned late is not overdue", &BorrowRecord{Status: StatusReturned, DueDate: due, ReturnDate: &returned}, due.Add(72 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsOverdue(tt.record, tt.now))
		})
	}
}

func TestWithOverdue(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	records := WithOverdue([]*BorrowRecord{
		{ID: 1, Status: StatusIssued, DueDate: now.Add(-time.Hour)},
		{ID: 2, Status: StatusIssued, DueDate: now.Add(time.Hour)},
	}, now)

	assert.True(t, records[0].Overdue)
	assert.False(t, records[1].Overdue)
}

func TestRoles(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidRole(RoleLibrarian))
	assert.False(t, IsValidRole("viewer"))

	u := &User{Role: RoleLibrarian}
	assert.True(t, u.HasRole(StaffRoles...))
	assert.False(t, u.HasRole(RoleStudent))
}
