package auth

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the auth routes. Login and register are
// public; /me needs a token.
func RegisterRoutesWithGroup(g *echo.Group, authService *Service, authMiddleware *Middleware) {
	h := &handler{
		authService: authService,
	}

	g.POST("/login", h.login)
	g.POST("/register", h.register, authMiddleware.AuthenticateOptional)
	g.GET("/me", h.me, authMiddleware.Authenticate)
}
