package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ypg-dashboard/internal/config"
	"ypg-dashboard/internal/database"
	"ypg-dashboard/internal/event"
	"ypg-dashboard/internal/handler"
	"ypg-dashboard/internal/logger"
	"ypg-dashboard/internal/metrics"
	"ypg-dashboard/internal/repository"
	"ypg-dashboard/internal/router"
	"ypg-dashboard/internal/service"
	"ypg-dashboard/internal/storage"
	"ypg-dashboard/internal/trash"
	"ypg-dashboard/internal/websocket"
)

type App struct {
	server       *http.Server
	dashboard    *trash.Dashboard
	hub          *websocket.Hub
	cleanupFuncs []func()
}

type backingStore interface {
	EnsureSchema(ctx context.Context) error
	Health(ctx context.Context) error
	io.Closer
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, logCloser := logger.New(logger.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	slog.SetDefault(log)

	media, err := storage.New(cfg.UploadsRoot)
	if err != nil {
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	db, repo, err := openDatabase(cfg)
	if err != nil {
		_ = logCloser.Close()
		return nil, err
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready", "driver", cfg.DatabaseDriver)

	auditService, err := service.NewAuditService(cfg.AuditLogFile)
	if err != nil {
		_ = db.Close()
		_ = logCloser.Close()
		return nil, fmt.Errorf("failed to initialize audit log: %w", err)
	}

	m := metrics.New()
	bus := event.NewBus()
	hub := websocket.NewHub(bus)

	recordService := service.NewRecordService(repo, media, auditService, bus, m)

	client := trash.NewHTTPClient(cfg.APIBaseURL, cfg.TrashRequestTimeout, trash.WithActor(cfg.TrashActor))
	dashboard := trash.NewDashboard(client, trash.NewBusNotifier(bus), trash.Options{
		Concurrency: cfg.TrashBulkConcurrency,
		IntentTTL:   cfg.TrashIntentTTL,
		Metrics:     m,
	})
	slog.Info("trash dashboard configured", "api_base_url", cfg.APIBaseURL)

	appRouter := router.New(cfg, router.Handlers{
		Record:        handler.NewRecordHandler(recordService),
		Trash:         handler.NewTrashHandler(dashboard),
		Audit:         handler.NewAuditHandler(auditService),
		Notifications: handler.NewNotificationHandler(hub, cfg.CORSOrigins),
	}, m, db.Health)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:    server,
		dashboard: dashboard,
		hub:       hub,
		cleanupFuncs: []func(){
			func() {
				_ = db.Close()
			},
			func() {
				_ = logCloser.Close()
			},
		},
	}, nil
}

func openDatabase(cfg *config.Config) (backingStore, repository.RecordRepository, error) {
	ctx := context.Background()

	switch cfg.DatabaseDriver {
	case "sqlite":
		slog.Info("opening SQLite database", "dsn", cfg.DatabaseURL)
		db, err := database.OpenSQLite(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return db, repository.NewSQLiteRecordRepository(db.Conn), nil
	default:
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		return db, repository.NewPostgresRecordRepository(db.Pool), nil
	}
}

func (a *App) Run() error {
	ctx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	go a.hub.Run(ctx)

	// Warm the trash view so the first dashboard load is not empty.
	go func() {
		if _, err := a.dashboard.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			slog.Warn("initial trash refresh failed", "error", err)
		}
	}()

	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stopBackground()
	err := a.server.Shutdown(shutdownCtx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
