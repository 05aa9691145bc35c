package auth

// LoginPayload represents the login request body.
type LoginPayload struct {
	Email    string `json:"email" mod:"trim" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterPayload represents the registration request body.
type RegisterPayload struct {
	Name     string `json:"name" mod:"trim" validate:"required,max=100"`
	Email    string `json:"email" mod:"trim,lcase" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" mod:"trim,lcase" default:"student" validate:"oneof=admin librarian student"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}
