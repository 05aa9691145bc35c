package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Student struct {
	bun.BaseModel `bun:"table:students,alias:s"`

	ID         int        `bun:",pk,nullzero" json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Name       string     `bun:",nullzero" json:"name"`
	RollNo     string     `bun:",nullzero" json:"roll_no"`
	Department string     `bun:",nullzero" json:"department"`
	Email      string     `bun:",nullzero" json:"email"`
	JoinDate   *time.Time `json:"join_date"`
}
