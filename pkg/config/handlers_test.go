package config

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrieve(t *testing.T) {
	t.Parallel()

	cfg := NewForTest()
	cfg.LoanPeriodDays = 21
	cfg.MaxLoansPerStudent = 3
	cfg.OverdueCheckInterval = 30 * time.Minute

	e := echo.New()
	RegisterRoutesWithGroup(e.Group("/config"), cfg)

	req := httptest.NewRequest(http.MethodGet, "/config", nil)
	rr := httptest.NewRecorder()
	e.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var got PublicConfig
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, 21, got.LoanPeriodDays)
	assert.Equal(t, 3, got.MaxLoansPerStudent)
	assert.Equal(t, 1800, got.OverdueCheckIntervalSeconds)
	assert.Equal(t, 86400, got.TokenExpirySeconds)
}
