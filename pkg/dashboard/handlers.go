package dashboard

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/circulation"
)

type handler struct {
	dashboardService   *Service
	circulationService *circulation.Service
}

func (h *handler) stats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.dashboardService.Stats(ctx, h.circulationService.Now())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, stats))
}

func (h *handler) myStats(c echo.Context) error {
	ctx := c.Request().Context()

	student, err := h.circulationService.StudentForUser(ctx, auth.GetUserFromContext(c))
	if err != nil {
		return err
	}

	stats, err := h.dashboardService.StudentStats(ctx, student.ID, h.circulationService.Now())
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, stats))
}
