package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pdf2tables/backend/internal/api"
	"github.com/pdf2tables/backend/internal/config"
	"github.com/pdf2tables/backend/internal/pipeline"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/pdf2tables/backend/internal/scheduler"
	"github.com/pdf2tables/backend/internal/storage"
	"github.com/pdf2tables/backend/internal/tablestore"
	"github.com/pdf2tables/backend/internal/web"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize working storage
	workspace, err := storage.NewWorkspace(cfg.Storage.WorkDirectory, cfg.Storage.MaxUploadBytes)
	if err != nil {
		fmt.Printf("Failed to initialize workspace: %v\n", err)
		os.Exit(1)
	}

	// Initialize the request registry
	reg := registry.NewRegistry()

	// Start background registry cleanup
	go func() {
		ticker := time.NewTicker(cfg.CleanupInterval())
		defer ticker.Stop()
		for range ticker.C {
			if removed := reg.CleanupOldRequests(cfg.RegistryMaxAge()); removed > 0 {
				fmt.Printf("[Registry] removed %d stale requests\n", removed)
			}
		}
	}()

	// Initialize the extracted-table store
	tables, err := tablestore.Open(cfg.Storage.WorkDirectory)
	if err != nil {
		fmt.Printf("Failed to open table store: %v\n", err)
		os.Exit(1)
	}
	defer tables.Close()

	// Initialize the extraction pipeline
	runner := pipeline.New(pipeline.Config{
		OCRCommand: cfg.Pipeline.OCRCommand,
		OCRArgs:    cfg.Pipeline.OCRArgs,
		Languages:  cfg.Pipeline.OCRLanguages,
		DeepTables: cfg.Pipeline.UseDeepTables,
	})

	// Initialize the background scheduler
	sched := scheduler.New(scheduler.Config{
		Registry:  reg,
		Workspace: workspace,
		Runner:    runner,
		Tables:    tables,
		Sync:      cfg.Processing.SyncPipeline,
		Retention: cfg.Retention(),
		Workers:   cfg.Processing.Workers,
	})

	e := echo.New()
	e.HideBanner = true
	e.Renderer = web.NewRenderer()

	// Configure middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return strings.HasPrefix(path, "/api/status/") ||
				strings.HasPrefix(path, "/status-partial/") ||
				path == "/healthz"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize:         1024 * 4,
		DisablePrintStack: false,
	}))

	e.Use(middleware.Gzip())
	e.Use(middleware.BodyLimit(fmt.Sprintf("%dM", cfg.Storage.MaxUploadBytes/(1024*1024)+1)))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	api.SetupMiddleware(e)

	handlers := api.NewHandlers(&api.Dependencies{
		Registry:  reg,
		Workspace: workspace,
		Scheduler: sched,
		Runner:    runner,
		Tables:    tables,
		Version:   Version,
	})
	api.RegisterRoutes(e, handlers)
	api.RegisterWebSocketRoutes(e, handlers)

	s := &http.Server{
		Addr:         cfg.ServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	fmt.Printf("pdf2tables server %s (built %s)\n", Version, BuildTime)
	fmt.Printf("Listening on http://%s, work dir %s\n", cfg.ServerAddr(), cfg.Storage.WorkDirectory)

	go func() {
		if err := e.StartServer(s); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	// Wait for shutdown signal, then drain in-flight extractions
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		fmt.Printf("Server shutdown error: %v\n", err)
	}
	if err := sched.Shutdown(ctx); err != nil {
		fmt.Printf("Scheduler shutdown error: %v\n", err)
	}
}
