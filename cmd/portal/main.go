// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/olegiv/portal/internal/auth"
	"github.com/olegiv/portal/internal/authz"
	"github.com/olegiv/portal/internal/cache"
	"github.com/olegiv/portal/internal/config"
	"github.com/olegiv/portal/internal/demo"
	"github.com/olegiv/portal/internal/handler"
	"github.com/olegiv/portal/internal/handler/api"
	"github.com/olegiv/portal/internal/i18n"
	"github.com/olegiv/portal/internal/metrics"
	"github.com/olegiv/portal/internal/middleware"
	"github.com/olegiv/portal/internal/render"
	"github.com/olegiv/portal/internal/scheduler"
	"github.com/olegiv/portal/internal/service"
	"github.com/olegiv/portal/internal/session"
	"github.com/olegiv/portal/internal/storage"
	"github.com/olegiv/portal/internal/store"
	"github.com/olegiv/portal/internal/version"
	"github.com/olegiv/portal/web"
)

const cmdGrantAdmin = "grant-admin"

func main() {
	// Parse CLI flags
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Portal - school news, staff and activities\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "       %s %s <email>\n\n", os.Args[0], cmdGrantAdmin)
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nCommands:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  %s <email>   Give an existing account the admin role\n", cmdGrantAdmin)
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_SESSION_SECRET  Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_JWT_SECRET      API token signing key (default: session secret)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_DB_PATH         SQLite database path (default: ./data/portal.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_UPLOADS_DIR     Storage bucket root (default: ./uploads)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_SERVER_PORT     Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_ENV             Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_REDIS_URL       Redis URL for distributed caching (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  PORTAL_JANITOR_EMAIL   Admin account the storage janitor runs as (optional)\n")
	}

	flag.Parse()

	// Handle -h/-help flag
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	// Handle -v/-version flag
	if *showVersion {
		_, _ = fmt.Println(version.Get().String())
		os.Exit(0)
	}

	var err error
	switch flag.Arg(0) {
	case "":
		err = run()
	case cmdGrantAdmin:
		if flag.NArg() != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = grantAdmin(flag.Arg(1))
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown command %q\n\n", flag.Arg(0))
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration, installs the logger and opens the migrated
// database.
func setup() (*config.Config, *slog.Logger, *sql.DB, error) {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Ensure data directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, nil, nil, fmt.Errorf("creating data directory: %w", err)
	}

	// A demo instance starts from a clean slate once a day
	if cfg.DemoMode {
		if _, err := (demo.Reset{DBPath: cfg.DBPath, UploadsDir: cfg.UploadsDir, Logger: logger}).IfStale(); err != nil {
			return nil, nil, nil, fmt.Errorf("resetting demo data: %w", err)
		}
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("initializing database: %w", err)
	}

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, nil, fmt.Errorf("running migrations: %w", err)
	}
	return cfg, logger, db, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}

// grantAdmin is the operator bootstrap: it writes the admin role directly,
// without an authenticated caller.
func grantAdmin(email string) error {
	_, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer closeDB(db)

	st := store.New(db, store.WithLogger(logger))
	ra, err := st.GrantAdmin(context.Background(), email)
	if err != nil {
		return fmt.Errorf("granting admin to %s: %w", email, err)
	}
	_, _ = fmt.Printf("granted %s to %s (assignment %s)\n", ra.Role, email, ra.ID)
	return nil
}

func run() error {
	cfg, logger, db, err := setup()
	if err != nil {
		return err
	}
	defer closeDB(db)

	info := version.Get()

	if err := i18n.Init(logger); err != nil {
		return fmt.Errorf("initializing i18n: %w", err)
	}
	slog.Info("i18n system initialized", "languages", i18n.SupportedLanguages)

	m := metrics.New(info.Version, info.GitCommit)

	st := store.New(db,
		store.WithLogger(logger),
		store.WithAuthzOptions(authz.WithObserver(m.ObserveAuthz), authz.WithLogger(logger)),
	)

	ctx := context.Background()
	if cfg.DoSeed {
		hash, err := auth.HashPassword(cfg.AdminPassword)
		if err != nil {
			return fmt.Errorf("hashing admin password: %w", err)
		}
		if err := st.SeedAdmin(ctx, cfg.AdminEmail, hash, "Administrator"); err != nil {
			return fmt.Errorf("seeding admin: %w", err)
		}
	}
	if cfg.DemoMode {
		if err := st.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seeding demo content: %w", err)
		}
	}

	cacher := cache.New(ctx, cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTLDuration(),
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = cacher.Close() }()

	content := service.NewContent(st, cacher, cfg.CacheTTLDuration(), logger)

	objects, err := storage.New(cfg.UploadsDir, st.Authorizer(), logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	slog.Info("session manager initialized")

	isAdmin := func(ctx context.Context) bool {
		ok, err := st.IsAdmin(ctx, middleware.CallerFrom(ctx))
		if err != nil {
			slog.Warn("admin check failed", "error", err)
		}
		return ok
	}

	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates,
		SessionManager: sessionManager,
		IsAdmin:        isAdmin,
	})
	if err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	slog.Info("template renderer initialized")

	loginProtection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	defer loginProtection.Stop()

	accounts := service.NewAccounts(st, loginProtection, logger)
	tokens, err := auth.NewTokens(cfg.TokenSecret(), cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("initializing api tokens: %w", err)
	}

	sched := scheduler.New(logger)
	if cfg.JanitorEnabled() {
		janitor := scheduler.NewJanitor(st, objects, scheduler.JanitorConfig{
			IdentityEmail: cfg.JanitorIdentityEmail,
			GracePeriod:   cfg.JanitorGracePeriod,
			Observe:       m.ObserveJanitor,
		}, logger)
		if err := sched.Add(scheduler.JanitorJobName, "Delete uploads no row references", cfg.JanitorSchedule, janitor.Job); err != nil {
			return fmt.Errorf("scheduling storage janitor: %w", err)
		}
	}
	sched.Start()
	defer sched.Stop()

	publicHandler := handler.NewPublicHandler(content, renderer)
	authHandler := handler.NewAuthHandler(accounts, renderer, sessionManager)
	adminHandler := handler.NewAdminHandler(content, objects, renderer, sessionManager, cfg.MaxUploadSize)
	storageHandler := handler.NewStorageHandler(objects, renderer)
	healthHandler := handler.NewHealthHandler(db, cfg.UploadsDir, info.Version, isAdmin).WithJobs(sched.Jobs)
	apiHandler := api.NewHandler(api.Config{
		Content:       content,
		Storage:       objects,
		Accounts:      accounts,
		Tokens:        tokens,
		Jobs:          sched,
		MaxUploadSize: cfg.MaxUploadSize,
	})

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(m.Instrument)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.Use(middleware.Timeout(middleware.DefaultRequestTimeout))
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.RequestPath)

	// Static files (long cache)
	r.With(middleware.StaticCache(31536000)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServerFS(web.Static)))

	// Operational endpoints
	handler.RegisterHealthRoutes(r, healthHandler)
	r.Handle("/metrics", m.Handler())

	// REST API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.NoStore)
		r.Use(middleware.IPRateLimit(20, 40))
		r.Use(middleware.BearerCaller(tokens, st))
		r.Use(middleware.RequireJSON)
		r.Use(middleware.DemoGuard(cfg.DemoMode))
		apiHandler.Routes(r)
	})
	slog.Info("REST API v1 mounted at /api/v1")

	// HTML site: sessions, language and CSRF protection
	r.Group(func(r chi.Router) {
		r.Use(sessionManager.LoadAndSave)
		r.Use(middleware.Language(sessionManager))
		r.Use(middleware.LoadCaller(sessionManager, st))
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.IsDevelopment(), cfg.ServerAddr())))

		handler.RegisterPublicRoutes(r, publicHandler)
		handler.RegisterAuthRoutes(r, authHandler, loginProtection.Middleware())
		r.Get(handler.RouteStorageObject, storageHandler.Serve)

		r.Route(handler.RouteAdmin, func(r chi.Router) {
			r.Use(middleware.RequireLogin(handler.RouteLogin))
			r.Use(middleware.NoStore)
			r.Use(middleware.DemoGuard(cfg.DemoMode))
			handler.RegisterAdminRoutes(r, adminHandler)
		})

		r.NotFound(publicHandler.NotFound)
	})

	// Create server with appropriate timeouts
	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           r,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	// Start server in goroutine
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
