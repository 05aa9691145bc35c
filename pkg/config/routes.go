package config

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers the read-only config endpoint behind the
// given middleware (authentication and role checks live with the caller).
func RegisterRoutesWithGroup(g *echo.Group, cfg *Config, mw ...echo.MiddlewareFunc) {
	h := &handler{cfg: cfg}

	g.GET("", h.retrieve, mw...)
}
