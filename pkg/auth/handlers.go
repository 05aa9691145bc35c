package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shishobooks/libris/pkg/models"
)

type handler struct {
	authService *Service
}

func toUserResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
		Role:  user.Role,
	}
}

func (h *handler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(status, AuthResponse{
		Token: token,
		User:  toUserResponse(user),
	}))
}

func (h *handler) login(c echo.Context) error {
	ctx := c.Request().Context()

	params := LoginPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Authenticate(ctx, params.Email, params.Password)
	if err != nil {
		return err
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

func (h *handler) register(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	params := RegisterPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	user, err := h.authService.Register(ctx, RegisterOptions{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
		Role:     params.Role,
		Caller:   GetUserFromContext(c),
	})
	if err != nil {
		return err
	}

	log.Info("user registered", logger.Data{"user_id": user.ID, "role": user.Role})

	return h.respondWithToken(c, http.StatusCreated, user)
}

func (h *handler) me(c echo.Context) error {
	user := GetUserFromContext(c)
	return errors.WithStack(c.JSON(http.StatusOK, toUserResponse(user)))
}
