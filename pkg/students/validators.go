package students

type ListStudentsQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

type CreateStudentPayload struct {
	Name       string `json:"name" mod:"trim" validate:"required,max=100"`
	RollNo     string `json:"roll_no" mod:"trim" validate:"required,max=50"`
	Department string `json:"department" mod:"trim" validate:"required,max=100"`
	Email      string `json:"email" mod:"trim,lcase" validate:"required,email"`
	JoinDate   string `json:"join_date,omitempty" validate:"date"`
}

// UpdateStudentPayload only touches the fields that are sent.
type UpdateStudentPayload struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	RollNo     *string `json:"roll_no,omitempty" validate:"omitempty,min=1,max=50"`
	Department *string `json:"department,omitempty" validate:"omitempty,min=1,max=100"`
	Email      *string `json:"email,omitempty" validate:"omitempty,email"`
	JoinDate   *string `json:"join_date,omitempty" validate:"omitempty,date"`
}
