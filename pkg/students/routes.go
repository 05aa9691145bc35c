package students

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers roster routes on an authenticated group.
// The roster is staff-only and only admins can enroll new students.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, circulationService *circulation.Service, authMiddleware *auth.Middleware) {
	h := &handler{
		studentService:     NewService(db),
		circulationService: circulationService,
	}

	g.Use(authMiddleware.RequireRole(models.StaffRoles...))

	g.GET("", h.list)
	g.GET("/:id", h.retrieve)
	g.POST("", h.create, authMiddleware.RequireRole(models.RoleAdmin))
	g.PUT("/:id", h.update)
	g.DELETE("/:id", h.delete)
	g.GET("/:id/borrow-history", h.borrowHistory)
}
