package circulation

type ListRecordsQuery struct {
	Limit     int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=200"`
	Offset    int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Status    *string `query:"status" json:"status,omitempty" validate:"omitempty,oneof=ISSUED RETURNED"`
	StudentID *int    `query:"student_id" json:"student_id,omitempty" validate:"omitempty,min=1"`
	BookID    *int    `query:"book_id" json:"book_id,omitempty" validate:"omitempty,min=1"`
	Overdue   bool    `query:"overdue" json:"overdue,omitempty"`
}

type IssuePayload struct {
	StudentID int `json:"student_id" validate:"required,min=1"`
	BookID    int `json:"book_id" validate:"required,min=1"`
}
