// handlers_views.go - Server rendered upload and result pages
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/registry"
)

// ViewHandlerImpl implements the ViewHandler interface
type ViewHandlerImpl struct {
	registry *registry.Registry
	maxBytes int64
}

// NewViewHandler creates a new view handler instance
func NewViewHandler(reg *registry.Registry, maxBytes int64) ViewHandler {
	return &ViewHandlerImpl{registry: reg, maxBytes: maxBytes}
}

type resultPage struct {
	RequestID string
	Files     []models.FileStatus
}

// HandleIndex renders the upload form.
func (h *ViewHandlerImpl) HandleIndex(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", map[string]interface{}{
		"MaxUploadMB": h.maxBytes / (1024 * 1024),
	})
}

// HandleResult renders the result page for a request.
func (h *ViewHandlerImpl) HandleResult(c echo.Context) error {
	id := c.Param("requestId")
	if _, ok := h.registry.Get(id); !ok {
		return NewNotFoundError("request", id)
	}
	return c.Render(http.StatusOK, "result.html", resultPage{
		RequestID: id,
		Files:     h.registry.ListFiles(id),
	})
}

// HandleStatusPartial renders the polling fragment swapped into the
// result page.
func (h *ViewHandlerImpl) HandleStatusPartial(c echo.Context) error {
	id := c.Param("requestId")
	if _, ok := h.registry.Get(id); !ok {
		return NewNotFoundError("request", id)
	}
	return c.Render(http.StatusOK, "status_partial.html", resultPage{
		RequestID: id,
		Files:     h.registry.ListFiles(id),
	})
}
