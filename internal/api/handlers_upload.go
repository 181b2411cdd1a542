// handlers_upload.go - Upload intake and request creation
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/pipeline"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/pdf2tables/backend/internal/scheduler"
	"github.com/pdf2tables/backend/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	registry  *registry.Registry
	workspace *storage.Workspace
	scheduler JobScheduler
}

// NewUploadHandler creates a new upload handler instance
func NewUploadHandler(reg *registry.Registry, ws *storage.Workspace, sched JobScheduler) UploadHandler {
	return &UploadHandlerImpl{
		registry:  reg,
		workspace: ws,
		scheduler: sched,
	}
}

// HandleUpload accepts one or more files, creates a tracked request and
// hands it to the background scheduler, then redirects to the result
// view. Client errors (no files, unsupported type, oversize) fail the
// whole request before any file entry is queued.
func (h *UploadHandlerImpl) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}
	files := form.File["files"]
	if len(files) == 0 {
		return NewValidationError("files")
	}

	for _, fh := range files {
		if !storage.AllowedMIME(fh.Header.Get("Content-Type")) {
			return NewUnsupportedMediaError(fmt.Sprintf("unsupported media type for %s", fh.Filename))
		}
	}

	requestID := uuid.New().String()
	requestDir, err := h.workspace.CreateRequestDir(requestID)
	if err != nil {
		return NewInternalError("failed to create working storage", err)
	}
	if _, err := h.registry.CreateRequest(requestID, requestDir); err != nil {
		return NewInternalError("failed to create request", err)
	}

	// Any per-file failure from here on fails the whole request, so the
	// half-built request must not stay tracked or on disk.
	discard := func() {
		h.registry.Cleanup(requestID)
		h.workspace.RemoveRequestDir(requestDir)
	}

	queued := make([]scheduler.QueuedFile, 0, len(files))
	for _, fh := range files {
		displayName := fh.Filename
		if displayName == "" {
			displayName = "uploaded"
		}
		slug := storage.Slug(displayName)

		src, err := fh.Open()
		if err != nil {
			discard()
			return NewInternalError("failed to open uploaded file", err)
		}
		savedPath, err := h.workspace.SaveUpload(requestDir, slug, src)
		src.Close()
		if err != nil {
			discard()
			if errors.Is(err, storage.ErrTooLarge) {
				return NewPayloadTooLargeError(fmt.Sprintf("%s exceeds the upload size limit", displayName))
			}
			return NewInternalError("failed to save upload", err)
		}

		if err := h.registry.AddFile(requestID, models.NewFileStatus(slug, displayName)); err != nil {
			discard()
			return NewInternalError("failed to track file", err)
		}
		queuedStatus := models.StatusQueued
		progress := pipeline.StageProgress(pipeline.StageReceived)
		if err := h.registry.UpdateFile(requestID, slug, registry.Update{
			Status:   &queuedStatus,
			Progress: &progress,
		}); err != nil {
			discard()
			return NewInternalError("failed to queue file", err)
		}
		queued = append(queued, scheduler.QueuedFile{Slug: slug, SourcePath: savedPath})
	}

	h.scheduler.Enqueue(requestID, requestDir, queued)

	return c.Redirect(http.StatusSeeOther, "/result/"+requestID)
}
