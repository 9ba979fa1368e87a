package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mailforge/internal/auth"
	"mailforge/internal/config"
	apperrors "mailforge/internal/errors"
	"mailforge/internal/handler"
	guard "mailforge/internal/middleware"
	"mailforge/internal/service"
)

// Handlers groups the HTTP handlers served by the API.
type Handlers struct {
	Auth     *handler.AuthHandler
	Template *handler.TemplateHandler
	Admin    *handler.AdminHandler
}

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	logger *zap.Logger,
	codec *auth.TokenCodec,
	accounts service.AccountService,
	h Handlers,
) {
	e.HTTPErrorHandler = apperrors.NewEchoErrorHandler(logger)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	session := guard.SessionGuard(codec, accounts)

	// Public routes
	limiter := authRateLimit(cfg)
	authGroup := api.Group("/auth")
	authGroup.POST("/register", h.Auth.Register, limiter)
	authGroup.POST("/login", h.Auth.Login, limiter)
	authGroup.GET("/me", h.Auth.Me, session)
	authGroup.PUT("/me", h.Auth.UpdateMe, session)

	// Template routes
	templates := api.Group("/templates", session)
	templates.GET("", h.Template.List)
	templates.GET("/my-templates", h.Template.MyTemplates)
	templates.GET("/favorites", h.Template.Favorites)
	templates.GET("/:id", h.Template.Get)
	templates.GET("/:id/preview", h.Template.Preview)
	templates.POST("", h.Template.Create)
	templates.PUT("/:id", h.Template.Update)
	templates.DELETE("/:id", h.Template.Delete)
	templates.POST("/:id/clone", h.Template.Clone)
	templates.POST("/:id/favorite", h.Template.ToggleFavorite)
	templates.POST("/:id/rate", h.Template.Rate)

	// Admin routes
	admin := api.Group("/admin", session, guard.RequireAdmin())
	admin.GET("/dashboard", h.Admin.Dashboard)
	admin.GET("/users", h.Admin.ListUsers)
	admin.PUT("/users/:id/role", h.Admin.ChangeRole)
	admin.DELETE("/users/:id", h.Admin.DeactivateUser)
	admin.POST("/users/:id/activate", h.Admin.ActivateUser)
	admin.GET("/templates", h.Admin.ListTemplates)
	admin.GET("/templates/:id", h.Admin.GetTemplate)
	admin.POST("/templates", h.Admin.CreateTemplate)
	admin.PUT("/templates/:id", h.Admin.UpdateTemplate)
	admin.DELETE("/templates/:id", h.Admin.DeleteTemplate)
}

// authRateLimit limits credential endpoints per client IP.
func authRateLimit(cfg *config.Config) echo.MiddlewareFunc {
	limit := rate.Limit(cfg.AuthRateLimit)
	if limit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(cfg.AuthRateLimit)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:  limit,
			Burst: burst * 2,
		}),
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, apperrors.ErrorResponse{
				Success: false,
				Message: "too many requests, please try again later",
				Code:    "RATE_LIMITED",
			})
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
