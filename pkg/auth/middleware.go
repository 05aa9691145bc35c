package auth

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
)

const (
	contextKeyUser = "user"
	bearerPrefix   = "Bearer "
)

// Middleware provides authentication middleware.
type Middleware struct {
	authService *Service
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService *Service) *Middleware {
	return &Middleware{
		authService: authService,
	}
}

// Authenticate validates the bearer token, reloads the user so role changes
// and deletions take effect immediately, and stores it on the context. Any
// failure is a 401.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token := bearerToken(c)
		if token == "" {
			return errcodes.Unauthorized("Authentication required")
		}

		claims, err := m.authService.ValidateToken(token)
		if err != nil {
			return errcodes.Unauthorized("Invalid or expired token")
		}

		user, err := m.authService.GetUserByID(c.Request().Context(), claims.UserID)
		if err != nil {
			return errcodes.Unauthorized("User not found")
		}

		c.Set(contextKeyUser, user)
		return next(c)
	}
}

// AuthenticateOptional stores the user when a valid token is present and
// otherwise lets the request through anonymously.
func (m *Middleware) AuthenticateOptional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if token := bearerToken(c); token != "" {
			if claims, err := m.authService.ValidateToken(token); err == nil {
				if user, err := m.authService.GetUserByID(c.Request().Context(), claims.UserID); err == nil {
					c.Set(contextKeyUser, user)
				}
			}
		}
		return next(c)
	}
}

// RequireRole returns middleware that rejects users whose role isn't listed.
// Must be used after Authenticate.
func (m *Middleware) RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := GetUserFromContext(c)
			if user == nil {
				return errcodes.Unauthorized("Authentication required")
			}
			if !user.HasRole(roles...) {
				return errcodes.Forbidden("This action for role " + user.Role)
			}
			return next(c)
		}
	}
}

// GetUserFromContext returns the authenticated user, or nil.
func GetUserFromContext(c echo.Context) *models.User {
	user, _ := c.Get(contextKeyUser).(*models.User)
	return user
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(bearerPrefix):])
}
