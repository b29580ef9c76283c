package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quic-go/quic-go/http3"

	"github.com/sydlexius/sprout/internal/api"
	"github.com/sydlexius/sprout/internal/auth"
	"github.com/sydlexius/sprout/internal/backup"
	"github.com/sydlexius/sprout/internal/config"
	"github.com/sydlexius/sprout/internal/configprop"
	"github.com/sydlexius/sprout/internal/database"
	"github.com/sydlexius/sprout/internal/event"
	"github.com/sydlexius/sprout/internal/exploration"
	"github.com/sydlexius/sprout/internal/logging"
	"github.com/sydlexius/sprout/internal/maintenance"
	"github.com/sydlexius/sprout/internal/pages"
	"github.com/sydlexius/sprout/internal/user"
	"github.com/sydlexius/sprout/internal/version"
	"github.com/sydlexius/sprout/internal/watcher"
)

func main() {
	// Handle subcommands before starting the server
	if len(os.Args) > 1 {
		var err error
		handled := true
		switch os.Args[1] {
		case "reset-credentials":
			err = resetCredentials()
		case "create-user":
			err = createUser(os.Args[2:])
		case "set-password":
			err = setPassword(os.Args[2:])
		case "load-demos":
			err = loadDemos(os.Args[2:])
		case "backup":
			err = runBackup()
		default:
			handled = false
		}
		if handled {
			if err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	configPath := os.Getenv("SP_CONFIG_PATH")
	if configPath == "" {
		configPath = "/data/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// openDatabase opens and migrates the configured database.
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close() //nolint:errcheck,gosec
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Set up structured logging via the logging Manager
	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.Format = cfg.Logging.Format
	logCfg.FilePath = cfg.Logging.FilePath
	logManager, logger := logging.NewManager(logCfg)
	defer logManager.Close() //nolint:errcheck
	slog.SetDefault(logger)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("closing database", "error", err)
		}
	}()
	logger.Info("database ready", slog.String("path", cfg.Database.Path))

	registry, err := configprop.NewRegistry(pages.Properties()...)
	if err != nil {
		return fmt.Errorf("registering config properties: %w", err)
	}
	configStore := configprop.NewStore(db, registry)

	// Runtime logging overrides stored by admins take precedence over the
	// config file.
	applyLoggingOverrides(context.Background(), configStore, logManager, logCfg, logger)

	userService := user.NewService(db)
	authService := auth.NewService(db, userService)
	explorationService := exploration.NewService(db)

	// Initialize event bus
	eventBus := event.NewBus(logger, 256)
	go eventBus.Start()
	defer eventBus.Stop()

	configStore.SetEventBus(eventBus)
	explorationService.SetEventBus(eventBus)

	eventBus.Subscribe(event.ConfigChanged, func(e event.Event) {
		switch e.Data["name"] {
		case configprop.LoggingLevel.Name, configprop.LoggingFormat.Name:
			applyLoggingOverrides(context.Background(), configStore, logManager, logCfg, logger)
		}
	})
	eventBus.Subscribe(event.DemoLoaded, func(e event.Event) {
		logger.Info("demo exploration loaded", "id", e.Data["id"], "title", e.Data["title"])
	})

	logger.Info("starting sprout",
		slog.String("version", version.Version),
		slog.String("commit", version.Commit),
	)

	if cfg.Demos.LoadOnStart {
		loaded, err := explorationService.LoadMissingDemos(context.Background())
		if err != nil {
			return fmt.Errorf("loading demos: %w", err)
		}
		if len(loaded) > 0 {
			logger.Info("seeded demo explorations", "ids", loaded)
		}
	}

	maintenanceService := maintenance.NewService(db, cfg.Database.Path, authService, logger)
	backupService := newBackupService(cfg, db, logger)
	pageHandlers := pages.New(configStore, userService, explorationService, logger)
	staticAssets := api.NewStaticAssets(cfg.Static.Dir, cfg.Server.BasePath, logger)

	router := api.NewRouter(api.RouterDeps{
		AuthService:        authService,
		UserService:        userService,
		ConfigStore:        configStore,
		ExplorationService: explorationService,
		MaintenanceService: maintenanceService,
		BackupService:      backupService,
		Pages:              pageHandlers,
		StaticAssets:       staticAssets,
		Logger:             logger,
		BasePath:           cfg.Server.BasePath,
		SecureCookies:      cfg.Server.TLSEnabled(),
	})

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler := router.Handler(ctx)

	var h3 *http3.Server
	if cfg.Server.HTTP3 {
		h3 = &http3.Server{
			Addr:      fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:   handler,
			TLSConfig: &tls.Config{MinVersion: tls.VersionTLS13},
		}
		handler = advertiseHTTP3(h3, handler, logger)
	}

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Hourly housekeeping: expired sessions, planner stats, WAL truncation
	go maintenanceService.StartScheduler(ctx, time.Hour)

	if cfg.Backup.Enabled {
		go backupService.StartScheduler(ctx, time.Duration(cfg.Backup.IntervalHours)*time.Hour)
	}

	if cfg.Static.Watch {
		watcherService := watcher.NewService(staticAssets.Dir(), staticAssets, eventBus, logger)
		go watcherService.Start(ctx)
	}

	serveErr := make(chan error, 2)
	go func() {
		logger.Info("server starting",
			slog.String("addr", addr),
			slog.String("base_path", cfg.Server.BasePath),
			slog.Bool("tls", cfg.Server.TLSEnabled()))
		var err error
		if cfg.Server.TLSEnabled() {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("http server: %w", err)
		}
	}()
	if h3 != nil {
		go func() {
			logger.Info("http3 server starting", slog.String("addr", h3.Addr))
			if err := h3.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				serveErr <- fmt.Errorf("http3 server: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		return err
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if h3 != nil {
		if err := h3.Close(); err != nil {
			logger.Warn("closing http3 server", "error", err)
		}
	}
	return srv.Shutdown(shutdownCtx)
}

func newBackupService(cfg *config.Config, db *sql.DB, logger *slog.Logger) *backup.Service {
	return backup.NewService(db, cfg.BackupDir(), backup.Policy{
		Retention:  cfg.Backup.RetentionCount,
		MaxAgeDays: cfg.Backup.MaxAgeDays,
	}, logger)
}

// advertiseHTTP3 adds the Alt-Svc header so clients on TCP learn about the
// QUIC listener.
func advertiseHTTP3(h3 *http3.Server, next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h3.SetQUICHeaders(w.Header()); err != nil {
			logger.Debug("setting alt-svc header", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

// applyLoggingOverrides layers the stored logging properties over the
// startup config and reconfigures the manager.
func applyLoggingOverrides(ctx context.Context, store *configprop.Store, mgr *logging.Manager, base logging.Config, logger *slog.Logger) {
	level, err := store.String(ctx, configprop.LoggingLevel)
	if err != nil {
		logger.Error("reading logging level override", "error", err)
		return
	}
	format, err := store.String(ctx, configprop.LoggingFormat)
	if err != nil {
		logger.Error("reading logging format override", "error", err)
		return
	}
	next := base.WithOverrides(level, format)
	if next == mgr.Config() {
		return
	}
	mgr.Reconfigure(next)
	logger.Info("applied logging overrides", "config", next.String())
}
