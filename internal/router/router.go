package router

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"sweetshop/internal/auth"
	"sweetshop/internal/handler"
	"sweetshop/internal/middleware"
)

// Handlers groups everything Register mounts.
type Handlers struct {
	Auth   *handler.AuthHandler
	Sweets *handler.SweetHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, logger *slog.Logger, jwtService *auth.JWTService, h Handlers) {
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, middleware.TokenHeader},
	}))

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Sweet Shop API Running")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	requireAuth := middleware.RequireAuth(jwtService)

	// Public routes
	api.POST("/auth/register", h.Auth.Register)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/auth/me", h.Auth.Me, requireAuth)

	// Secured routes
	sweets := api.Group("/sweets", requireAuth)
	sweets.POST("", h.Sweets.Create)
	sweets.GET("", h.Sweets.List)
	sweets.GET("/search", h.Sweets.Search)
	sweets.GET("/:id", h.Sweets.Get)
	sweets.PUT("/:id", h.Sweets.Update)
	sweets.POST("/:id/purchase", h.Sweets.Purchase)

	// Admin routes
	sweets.DELETE("/:id", h.Sweets.Delete, middleware.RequireAdmin)
	sweets.POST("/:id/restock", h.Sweets.Restock, middleware.RequireAdmin)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
