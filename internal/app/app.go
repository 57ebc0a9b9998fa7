package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"ResearchAgent/internal/analysis"
	"ResearchAgent/internal/api"
	"ResearchAgent/internal/config"
	"ResearchAgent/internal/infrastructure/extractor"
	"ResearchAgent/internal/infrastructure/llm"
	"ResearchAgent/internal/infrastructure/scheduler"
	"ResearchAgent/internal/infrastructure/storage"
	"ResearchAgent/internal/infrastructure/telegram"
	"ResearchAgent/internal/logging"
	"ResearchAgent/internal/ports"
	"ResearchAgent/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg    config.Config
	logger *slog.Logger
	store  *storage.Store

	Pipeline *usecase.Pipeline
	Settings *usecase.Settings
	Calendar *usecase.CalendarExport

	watchlist *usecase.Scheduler
	server    *echo.Echo
}

// New opens the store and builds every component described by cfg.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	provider, err := llm.DefaultRegistry(cfg.Analysis, nil).Resolve(cfg.Analysis.Provider)
	if err != nil {
		return nil, err
	}

	store, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	contentExtractor := extractor.New(nil, extractor.Options{
		Timeout:         cfg.Extractor.Timeout.Std(),
		UserAgent:       cfg.Extractor.UserAgent,
		MaxContentChars: cfg.Extractor.MaxContentChars,
	}, baseLogger.With("component", "extractor"))

	engine := analysis.New(provider, analysis.Options{
		MaxPromptChars: cfg.Analysis.MaxPromptChars,
		Timeout:        cfg.Analysis.Timeout.Std(),
	}, baseLogger.With("component", "analysis", "provider", provider.Name()))

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.Enabled() {
		n, err := telegram.NewNotifier(tg.BotToken, tg.ChatID)
		if err != nil {
			baseLogger.Warn("telegram notifier disabled", "error", err)
		} else {
			notifier = n
		}
	}

	pipeline := usecase.NewPipeline(usecase.PipelineDeps{
		Extractor:  contentExtractor,
		Analyzer:   engine,
		Repository: store,
		Settings:   store,
		Notifier:   notifier,
		Logger:     baseLogger.With("component", "pipeline"),
	})
	settings := usecase.NewSettings(store)
	calendarExport := usecase.NewCalendarExport(store, pipeline, nil)

	var watchlist *usecase.Scheduler
	if cfg.Scheduler.Enabled() {
		if err := scheduler.Validate(cfg.Scheduler.CronExpression); err != nil {
			store.Close()
			return nil, err
		}
		driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
		watchlist = usecase.NewScheduler(driver, pipeline, cfg.Scheduler.URLs, baseLogger.With("component", "watchlist"))
	}

	server := api.NewServer(api.Deps{
		Research: pipeline,
		Settings: settings,
		Calendar: calendarExport,
		Logger:   baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		store:     store,
		Pipeline:  pipeline,
		Settings:  settings,
		Calendar:  calendarExport,
		watchlist: watchlist,
		server:    server,
	}, nil
}

// Handler exposes the HTTP API, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.server
}

// Serve runs the HTTP API and the watchlist until ctx is cancelled.
func (a *Application) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.cfg.Server.Addr, err)
	}
	a.server.Listener = listener

	if a.watchlist != nil {
		if err := a.watchlist.Start(ctx); err != nil {
			listener.Close()
			return fmt.Errorf("start watchlist: %w", err)
		}
		a.logger.Info("watchlist scheduled", "cron", a.cfg.Scheduler.CronExpression, "urls", len(a.cfg.Scheduler.URLs))
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting http server", "addr", listener.Addr().String())
		errCh <- a.server.Start("")
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown failed", "error", err)
	}
	if a.watchlist != nil {
		if err := a.watchlist.Stop(shutdownCtx); err != nil {
			a.logger.Error("watchlist stop failed", "error", err)
		}
	}

	a.logger.Info("application stopped")
	return serveErr
}

// Close releases the store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}
