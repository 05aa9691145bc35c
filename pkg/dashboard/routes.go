package dashboard

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/uptrace/bun"
)

func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, circulationService *circulation.Service, authMiddleware *auth.Middleware) {
	h := &handler{
		dashboardService:   NewService(db),
		circulationService: circulationService,
	}

	g.GET("/stats", h.stats, authMiddleware.RequireRole(models.StaffRoles...))
	g.GET("/my-stats", h.myStats, authMiddleware.RequireRole(models.RoleStudent))
}
