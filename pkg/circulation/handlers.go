package circulation

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/errcodes"
)

type handler struct {
	circulationService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListRecordsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := ListRecordsOptions{
		Limit:     &params.Limit,
		Offset:    &params.Offset,
		Status:    params.Status,
		StudentID: params.StudentID,
		BookID:    params.BookID,
	}
	if params.Overdue {
		now := h.circulationService.Now()
		opts.OverdueAt = &now
	}

	records, total, err := h.circulationService.ListRecordsWithTotal(ctx, opts)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"records": records,
		"total":   total,
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrow record")
	}

	record, err := h.circulationService.RetrieveRecord(ctx, RetrieveRecordOptions{ID: id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, record))
}

func (h *handler) issue(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := IssuePayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	record, err := h.circulationService.Issue(ctx, IssueOptions{
		StudentID: params.StudentID,
		BookID:    params.BookID,
	})
	if err != nil {
		return err
	}

	log.Info("book issued", logger.Data{
		"record_id":  record.ID,
		"book_id":    record.BookID,
		"student_id": record.StudentID,
		"due_date":   record.DueDate,
	})

	return errors.WithStack(c.JSON(http.StatusCreated, record))
}

func (h *handler) returnBook(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Borrow record")
	}

	record, err := h.circulationService.Return(ctx, id)
	if err != nil {
		return err
	}

	log.Info("book returned", logger.Data{"record_id": record.ID, "book_id": record.BookID})

	return errors.WithStack(c.JSON(http.StatusOK, record))
}

func (h *handler) myHistory(c echo.Context) error {
	ctx := c.Request().Context()

	records, err := h.circulationService.ListForUser(ctx, auth.GetUserFromContext(c))
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	}))
}
