package books

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers book routes on a group that has already
// been authenticated. Every role can read the catalog; only staff can change it.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, authMiddleware *auth.Middleware) {
	h := &handler{bookService: NewService(db)}
	staff := authMiddleware.RequireRole(models.StaffRoles...)

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, staff)
	g.PUT("/:id", h.update, staff)
	g.DELETE("/:id", h.delete, staff)
}
