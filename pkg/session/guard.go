package session

import (
	"slices"
	"time"
)

// Roles mirror the server's account roles.
const (
	RoleAdmin     = "admin"
	RoleLibrarian = "librarian"
	RoleStudent   = "student"
)

// Decision is the outcome of a guard check. Denials are redirects, never
// errors.
type Decision int

const (
	Allow Decision = iota
	// RedirectLogin is returned when there is no usable session.
	RedirectLogin
	// RedirectHome is returned when the session's role may not open the page,
	// or when a logged-in user opens a guest-only page.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	}
	return "unknown"
}

const (
	LoginPath = "/login"
	RootPath  = "/"
)

// Access describes who may open a page. Empty Roles with GuestOnly unset
// means any logged-in user.
type Access struct {
	Roles []string
	// GuestOnly pages (login, register) are for visitors without a session.
	GuestOnly bool
}

var (
	staff      = []string{RoleAdmin, RoleLibrarian}
	everyone   = []string{RoleAdmin, RoleLibrarian, RoleStudent}
	adminOnly  = []string{RoleAdmin}
	studentSet = []string{RoleStudent}
)

// Pages is the client's page table keyed by path.
var Pages = map[string]Access{
	"/login":             {GuestOnly: true},
	"/register":          {GuestOnly: true},
	"/":                  {},
	"/admin-dashboard":   {Roles: staff},
	"/books":             {Roles: everyone},
	"/books/add":         {Roles: staff},
	"/students":          {Roles: staff},
	"/students/add":      {Roles: adminOnly},
	"/issue-book":        {Roles: staff},
	"/return-book":       {Roles: staff},
	"/student-dashboard": {Roles: studentSet},
	"/my-books":          {Roles: studentSet},
}

// Home is the landing page for a role.
func Home(role string) string {
	if role == RoleStudent {
		return "/student-dashboard"
	}
	return "/admin-dashboard"
}

type Guard struct {
	now func() time.Time
}

func NewGuard() *Guard {
	return &Guard{now: time.Now}
}

// Check decides whether sess may open a page with the given access rules.
func (g *Guard) Check(sess *Session, access Access) Decision {
	valid := sess.Valid(g.now())

	if access.GuestOnly {
		if valid {
			return RedirectHome
		}
		return Allow
	}
	if !valid {
		return RedirectLogin
	}
	if len(access.Roles) > 0 && !slices.Contains(access.Roles, sess.User.Role) {
		return RedirectHome
	}
	return Allow
}

// Resolve checks a page by path and returns where the user ends up. Unknown
// paths and the root resolve to the session's home.
func (g *Guard) Resolve(sess *Session, path string) (Decision, string) {
	access, ok := Pages[path]
	if !ok {
		access = Access{}
	}

	d := g.Check(sess, access)
	switch d {
	case RedirectLogin:
		return d, LoginPath
	case RedirectHome:
		return d, Home(sess.User.Role)
	}
	if !ok || path == RootPath {
		return RedirectHome, Home(sess.User.Role)
	}
	return Allow, path
}
