package circulation

import (
	"github.com/labstack/echo/v4"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/models"
)

// RegisterRoutesWithGroup registers borrow record routes on an authenticated
// group. Staff run the desk; any signed-in user can read their own history.
func RegisterRoutesWithGroup(g *echo.Group, circulationService *Service, authMiddleware *auth.Middleware) {
	h := &handler{circulationService: circulationService}
	staff := authMiddleware.RequireRole(models.StaffRoles...)

	g.GET("", h.list, staff)
	g.GET("/my-history", h.myHistory)
	g.GET("/:id", h.retrieve, staff)
	g.POST("/issue", h.issue, staff)
	g.POST("/:id/return", h.returnBook, staff)
}
