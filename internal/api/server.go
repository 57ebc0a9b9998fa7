package api

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"

	"ResearchAgent/internal/calendar"
	"ResearchAgent/internal/domain"
	"ResearchAgent/internal/usecase"
)

// Research is the pipeline surface exposed over HTTP.
type Research interface {
	Submit(ctx context.Context, url string) (usecase.SubmitOutput, error)
	ListResults(ctx context.Context, limit int) ([]domain.ResearchResult, error)
	GetResult(ctx context.Context, id int64) (domain.ResearchResult, error)
}

// SettingsService reads and updates the redacted settings record.
type SettingsService interface {
	Show(ctx context.Context) (usecase.SettingsView, error)
	Update(ctx context.Context, upd usecase.SettingsUpdate) (usecase.SettingsView, error)
}

// CalendarService formats follow-up events.
type CalendarService interface {
	Export(ctx context.Context, id int64) (calendar.Event, error)
}

// Deps wires use cases into the HTTP layer.
type Deps struct {
	Research Research
	Settings SettingsService
	Calendar CalendarService
	Logger   *slog.Logger
}

// NewServer creates and configures the Echo HTTP server.
func NewServer(deps Deps) *echo.Echo {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: newRequestID,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/api/health"
		},
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.InfoContext(c.Request().Context(), "http request completed",
				"request_id", v.RequestID,
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"error", v.Error)
			return nil
		},
	}))
	e.Use(middleware.Recover())

	h := &handlers{
		research: deps.Research,
		settings: deps.Settings,
		calendar: deps.Calendar,
	}

	api := e.Group("/api")
	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	api.POST("/research/submit", h.submit)
	api.GET("/research/results", h.listResults)
	api.GET("/research/results/:id", h.getResult)
	api.POST("/research/results/:id/calendar", h.exportCalendar)
	api.GET("/settings", h.showSettings)
	api.PUT("/settings", h.updateSettings)

	return e
}

func newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}
