package config

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// PublicConfig is the subset of the configuration exposed to staff clients.
type PublicConfig struct {
	LoanPeriodDays              int `json:"loan_period_days"`
	MaxLoansPerStudent          int `json:"max_loans_per_student"`
	OverdueCheckIntervalSeconds int `json:"overdue_check_interval_seconds"`
	TokenExpirySeconds          int `json:"token_expiry_seconds"`
}

type handler struct {
	cfg *Config
}

func (h *handler) retrieve(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, h.cfg.Public()))
}

// Public returns the client-visible settings.
func (c *Config) Public() PublicConfig {
	return PublicConfig{
		LoanPeriodDays:              c.LoanPeriodDays,
		MaxLoansPerStudent:          c.MaxLoansPerStudent,
		OverdueCheckIntervalSeconds: int(c.OverdueCheckInterval.Seconds()),
		TokenExpirySeconds:          int(c.TokenExpiry.Seconds()),
	}
}
