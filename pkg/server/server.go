package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/shishobooks/libris/pkg/auth"
	"github.com/shishobooks/libris/pkg/binder"
	"github.com/shishobooks/libris/pkg/books"
	"github.com/shishobooks/libris/pkg/circulation"
	"github.com/shishobooks/libris/pkg/config"
	"github.com/shishobooks/libris/pkg/dashboard"
	"github.com/shishobooks/libris/pkg/errcodes"
	"github.com/shishobooks/libris/pkg/models"
	"github.com/shishobooks/libris/pkg/students"
	"github.com/shishobooks/libris/pkg/version"
	"github.com/uptrace/bun"
)

// Group catch-all routes capture echo.NotFoundHandler when they're registered,
// so it's swapped before any server is built.
func init() {
	echo.NotFoundHandler = notFoundHandler
}

func New(cfg *config.Config, db *bun.DB, circulationService *circulation.Service) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	if len(cfg.CORSAllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSAllowedOrigins,
			AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, echo.HeaderXRequestID},
		}))
	} else {
		e.Use(middleware.CORS())
	}

	health.RegisterRoutes(e)

	authService := auth.NewService(db, cfg.JWTSecret, cfg.TokenExpiry)
	authMiddleware := auth.NewMiddleware(authService)

	api := e.Group("/api")
	api.GET("/version", versionHandler)

	// Login and registration handle their own authentication.
	auth.RegisterRoutesWithGroup(api.Group("/auth"), authService, authMiddleware)

	registerProtectedRoutes(api, db, cfg, circulationService, authMiddleware)

	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

// registerProtectedRoutes registers every route that needs a bearer token.
// Role checks happen inside each package's routes.
func registerProtectedRoutes(api *echo.Group, db *bun.DB, cfg *config.Config, circulationService *circulation.Service, authMiddleware *auth.Middleware) {
	books.RegisterRoutesWithGroup(api.Group("/books", authMiddleware.Authenticate), db, authMiddleware)

	students.RegisterRoutesWithGroup(api.Group("/students", authMiddleware.Authenticate), db, circulationService, authMiddleware)

	circulation.RegisterRoutesWithGroup(api.Group("/borrow-records", authMiddleware.Authenticate), circulationService, authMiddleware)

	dashboard.RegisterRoutesWithGroup(api.Group("/dashboard", authMiddleware.Authenticate), db, circulationService, authMiddleware)

	config.RegisterRoutesWithGroup(api.Group("/config", authMiddleware.Authenticate), cfg, authMiddleware.RequireRole(models.StaffRoles...))
}

func versionHandler(c echo.Context) error {
	return errors.WithStack(c.JSON(http.StatusOK, map[string]string{"version": version.Version}))
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
