// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/scheduler"
)

// UploadHandler accepts multipart uploads and starts background processing
type UploadHandler interface {
	HandleUpload(c echo.Context) error
}

// StatusHandler serves polling, cancellation and the live status stream
type StatusHandler interface {
	HandleStatus(c echo.Context) error
	HandleStatusMsgpack(c echo.Context) error
	HandleCancel(c echo.Context) error
	HandleStatusStream(c echo.Context) error
}

// ExtractHandler runs the pipeline synchronously for a single file
type ExtractHandler interface {
	HandleExtract(c echo.Context) error
}

// DownloadHandler streams produced artifacts
type DownloadHandler interface {
	HandleDownload(c echo.Context) error
}

// TablesHandler queries extracted table rows from the table store
type TablesHandler interface {
	HandleTables(c echo.Context) error
}

// ViewHandler renders the HTML result page and polling partial
type ViewHandler interface {
	HandleIndex(c echo.Context) error
	HandleResult(c echo.Context) error
	HandleStatusPartial(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// JobScheduler is the scheduling interface the upload handler needs.
// This allows mocking in tests.
type JobScheduler interface {
	Enqueue(requestID, requestDir string, files []scheduler.QueuedFile)
}
