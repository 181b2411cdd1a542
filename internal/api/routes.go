// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/pipeline"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/pdf2tables/backend/internal/storage"
	"github.com/pdf2tables/backend/internal/tablestore"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Registry  *registry.Registry
	Workspace *storage.Workspace
	Scheduler JobScheduler
	Runner    pipeline.Runner
	Tables    *tablestore.Store
	Version   string
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Upload   UploadHandler
	Status   StatusHandler
	Extract  ExtractHandler
	Download DownloadHandler
	Tables   TablesHandler
	Views    ViewHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Version),
		Upload:   NewUploadHandler(deps.Registry, deps.Workspace, deps.Scheduler),
		Status:   NewStatusHandler(deps.Registry),
		Extract:  NewExtractHandler(deps.Registry, deps.Workspace, deps.Runner),
		Download: NewDownloadHandler(deps.Registry),
		Tables:   NewTablesHandler(deps.Registry, deps.Tables),
		Views:    NewViewHandler(deps.Registry, deps.Workspace.MaxBytes()),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Health check
	e.GET("/healthz", handlers.Health.HandleHealth)

	// Server rendered pages
	e.GET("/", handlers.Views.HandleIndex)
	e.POST("/upload", handlers.Upload.HandleUpload)
	e.GET("/result/:requestId", handlers.Views.HandleResult)
	e.GET("/status-partial/:requestId", handlers.Views.HandleStatusPartial)

	// JSON API
	apiGroup := e.Group("/api")
	apiGroup.POST("/extract", handlers.Extract.HandleExtract)
	apiGroup.GET("/status/:requestId", handlers.Status.HandleStatus)
	apiGroup.GET("/status/:requestId/msgpack", handlers.Status.HandleStatusMsgpack)
	apiGroup.POST("/cancel/:requestId/:fileSlug", handlers.Status.HandleCancel)
	apiGroup.GET("/download/:requestId/:fileSlug", handlers.Download.HandleDownload)
	apiGroup.GET("/tables/:requestId/:fileSlug", handlers.Tables.HandleTables)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/ws/status/:requestId", handlers.Status.HandleStatusStream)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
