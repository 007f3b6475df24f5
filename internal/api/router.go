package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/krush/market-core/internal/api/handler"
	"github.com/krush/market-core/internal/api/middleware"
	"github.com/krush/market-core/internal/core/ports"
)

// ActionSendMessage is the rate-limit bucket for chat message sends.
const ActionSendMessage = "chat_message"

// Dependencies holds everything the router wires into handlers.
type Dependencies struct {
	Mongo handler.MongoPinger
	Redis handler.RedisPinger

	Chat     ports.ChatService
	Inbox    ports.InboxService
	Products ports.ProductService
	Resolver ports.IdentityResolver
	Limiter  middleware.Limiter

	// AuthCookie names the cookie read when no Authorization header is sent.
	AuthCookie string
	// Registry receives HTTP metrics and backs /metrics. Defaults to the
	// process-wide Prometheus registry.
	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(deps.Log))
	e.Use(metricsMiddleware(deps.Registry))

	// --- Operational routes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", metricsHandler(deps.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	api := e.Group("/api", middleware.Auth(deps.Resolver, deps.AuthCookie))

	chatHandler := handler.NewChatHandler(deps.Chat)
	chats := api.Group("/chats")
	chats.GET("", chatHandler.List)
	chats.POST("/product/:productId", chatHandler.Open)
	chats.GET("/:roomId", chatHandler.Get)
	chats.POST("/:roomId/message", chatHandler.Send,
		middleware.RateLimit(deps.Limiter, ActionSendMessage, deps.Log))

	alarmHandler := handler.NewAlarmHandler(deps.Inbox)
	alarms := api.Group("/alarms")
	alarms.GET("", alarmHandler.List)
	alarms.GET("/unread", alarmHandler.Unread)
	alarms.POST("/:id/read", alarmHandler.MarkRead)

	productHandler := handler.NewProductHandler(deps.Products)
	products := api.Group("/products")
	products.PUT("/:id", productHandler.Update)
	products.POST("/:id/like", productHandler.ToggleLike)
	products.GET("/:id/like", productHandler.LikeState)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		Skipper:      skipOperational,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

func metricsMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	cfg := echoprometheus.MiddlewareConfig{
		Subsystem: "krush",
		Skipper:   skipOperational,
	}
	if reg != nil {
		cfg.Registerer = reg
	}
	return echoprometheus.NewMiddlewareWithConfig(cfg)
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
}

// skipOperational keeps probes and scrapes out of access logs and metrics.
func skipOperational(c echo.Context) bool {
	p := c.Request().URL.Path
	return p == "/metrics" || strings.HasPrefix(p, "/health") || strings.HasPrefix(p, "/swagger")
}
