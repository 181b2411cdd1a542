// handlers_extract.go - Synchronous single-file extraction
package api

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/pipeline"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/pdf2tables/backend/internal/storage"
)

// ExtractHandlerImpl implements the ExtractHandler interface
type ExtractHandlerImpl struct {
	registry  *registry.Registry
	workspace *storage.Workspace
	runner    pipeline.Runner
}

// NewExtractHandler creates a new extract handler instance
func NewExtractHandler(reg *registry.Registry, ws *storage.Workspace, runner pipeline.Runner) ExtractHandler {
	return &ExtractHandlerImpl{registry: reg, workspace: ws, runner: runner}
}

type extractRequest struct {
	RequestID string `json:"requestId"`
	FileName  string `json:"fileName"`
}

// HandleExtract runs the pipeline synchronously for one already
// uploaded file, bypassing the background scheduler.
func (h *ExtractHandlerImpl) HandleExtract(c echo.Context) error {
	var req extractRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	record, ok := h.registry.Get(req.RequestID)
	if !ok {
		return NewNotFoundError("request", req.RequestID)
	}
	if _, ok := h.registry.GetFile(req.RequestID, req.FileName); !ok {
		return NewNotFoundError("file", req.FileName)
	}

	sourcePath := filepath.Join(record.Directory, req.FileName)
	if _, err := os.Stat(sourcePath); err != nil {
		return NewNotFoundError("source file", req.FileName)
	}

	result, err := h.runner.Run(c.Request().Context(), sourcePath)
	if err != nil {
		return NewInternalError("extraction failed", err)
	}

	outputDir, err := h.workspace.OutputDir(record.Directory, req.FileName)
	if err != nil {
		return NewInternalError("failed to create output directory", err)
	}
	htmlPath := filepath.Join(outputDir, storage.ArtifactHTML)
	if err := os.WriteFile(htmlPath, []byte(result.HTML), 0644); err != nil {
		return NewInternalError("failed to write html artifact", err)
	}
	metadata, err := pipeline.SerializeMetadata(result.Metadata)
	if err != nil {
		return NewInternalError("failed to serialize metadata", err)
	}
	jsonPath := filepath.Join(outputDir, storage.ArtifactJSON)
	if err := os.WriteFile(jsonPath, metadata, 0644); err != nil {
		return NewInternalError("failed to write json artifact", err)
	}

	finished := models.StatusFinished
	progress := 100
	if err := h.registry.UpdateFile(req.RequestID, req.FileName, registry.Update{
		Status:   &finished,
		Progress: &progress,
		HTMLPath: &htmlPath,
		JSONPath: &jsonPath,
	}); err != nil {
		return NewInternalError("failed to record result", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status": "ok",
		"tables": len(result.Tables),
	})
}
