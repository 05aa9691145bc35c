package students

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/libris/pkg/binder"
	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
)

const dateLayout = binder.DateLayout

type handler struct {
	studentService     *Service
	circulationService *circulation.Service
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, errcodes.ValidationError(`"join_date" should be in the format of YYYY-MM-DD`)
	}
	return &t, nil
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListStudentsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	students, total, err := h.studentService.ListStudentsWithTotal(ctx, ListStudentsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
		Search: params.Search,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"students": students,
		"total":    total,
	}))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Student")
	}

	student, err := h.studentService.RetrieveStudent(ctx, RetrieveStudentOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, student))
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateStudentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	joinDate, err := parseDate(params.JoinDate)
	if err != nil {
		return err
	}

	student := &models.Student{
		Name:       params.Name,
		RollNo:     params.RollNo,
		Department: params.Department,
		Email:      params.Email,
		JoinDate:   joinDate,
	}
	if err := h.studentService.CreateStudent(ctx, student); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("student created", logger.Data{"student_id": student.ID})

	return errors.WithStack(c.JSON(http.StatusCreated, student))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Student")
	}

	params := UpdateStudentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	student, err := h.studentService.RetrieveStudent(ctx, RetrieveStudentOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateStudentOptions{}
	setString := func(value *string, field *string, column string) {
		if value == nil {
			return
		}
		v := strings.TrimSpace(*value)
		if v != *field {
			*field = v
			opts.Columns = append(opts.Columns, column)
		}
	}
	setString(params.Name, &student.Name, "name")
	setString(params.RollNo, &student.RollNo, "roll_no")
	setString(params.Department, &student.Department, "department")
	if params.Email != nil {
		lowered := strings.ToLower(*params.Email)
		setString(&lowered, &student.Email, "email")
	}
	if params.JoinDate != nil {
		joinDate, err := parseDate(*params.JoinDate)
		if err != nil {
			return err
		}
		student.JoinDate = joinDate
		opts.Columns = append(opts.Columns, "join_date")
	}

	if err := h.studentService.UpdateStudent(ctx, student, opts); err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, student))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Student")
	}

	if err := h.studentService.DeleteStudent(ctx, id); err != nil {
		return err
	}

	logger.FromContext(ctx).Info("student deleted", logger.Data{"student_id": id})

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) borrowHistory(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Student")
	}

	records, err := h.circulationService.ListForStudent(ctx, id)
	if err != nil {
		return err
	}

	return errors.WithStack(c.JSON(http.StatusOK, map[string]any{
		"records": records,
		"total":   len(records),
	}))
}
