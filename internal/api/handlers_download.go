// handlers_download.go - Artifact download resolution
package api

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/registry"
)

// DownloadHandlerImpl implements the DownloadHandler interface
type DownloadHandlerImpl struct {
	registry *registry.Registry
}

// NewDownloadHandler creates a new download handler instance
func NewDownloadHandler(reg *registry.Registry) DownloadHandler {
	return &DownloadHandlerImpl{registry: reg}
}

// HandleDownload resolves "<slug>.<ext>" to a recorded artifact path
// and streams it under the original display name.
func (h *DownloadHandlerImpl) HandleDownload(c echo.Context) error {
	id := c.Param("requestId")
	fileParam := c.Param("fileSlug")

	if _, ok := h.registry.Get(id); !ok {
		return NewNotFoundError("request", id)
	}

	dot := strings.LastIndex(fileParam, ".")
	if dot <= 0 || dot == len(fileParam)-1 {
		return NewBadRequestError("invalid download path", nil)
	}
	slug, ext := fileParam[:dot], fileParam[dot+1:]

	if ext != "html" && ext != "json" {
		return NewUnsupportedMediaError("unsupported download format: " + ext)
	}

	status, ok := h.registry.GetFile(id, slug)
	if !ok {
		return NewNotFoundError("file", slug)
	}

	target := status.HTMLPath
	if ext == "json" {
		target = status.JSONPath
	}
	if target == "" {
		return NewNotFoundError("artifact", fileParam)
	}
	if _, err := os.Stat(target); err != nil {
		return NewNotFoundError("artifact", fileParam)
	}

	stem := strings.TrimSuffix(status.DisplayName, filepath.Ext(status.DisplayName))
	return c.Attachment(target, stem+"."+ext)
}
