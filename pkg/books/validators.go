package books

type ListBooksQuery struct {
	Limit  int     `query:"limit" json:"limit,omitempty" default:"50" validate:"min=1,max=100"`
	Offset int     `query:"offset" json:"offset,omitempty" validate:"min=0"`
	Search *string `query:"search" json:"search,omitempty" validate:"omitempty,max=100"`
}

// BookPayload is the body for both create and update. Updates replace every
// field.
type BookPayload struct {
	Title       string `json:"title" mod:"trim" validate:"required,max=300"`
	Author      string `json:"author" mod:"trim" validate:"required,max=200"`
	ISBN        string `json:"isbn" mod:"trim" validate:"required,isbn"`
	TotalCopies int    `json:"total_copies" validate:"min=1,max=10000"`
}
