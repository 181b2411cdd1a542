// handlers_status.go - Polling status projection and cancellation
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/vmihailenco/msgpack/v5"
)

// StatusHandlerImpl implements the StatusHandler interface
type StatusHandlerImpl struct {
	registry *registry.Registry
}

// NewStatusHandler creates a new status handler instance
func NewStatusHandler(reg *registry.Registry) *StatusHandlerImpl {
	return &StatusHandlerImpl{registry: reg}
}

type fileStatusPayload struct {
	Name     string  `json:"name" msgpack:"name"`
	Slug     string  `json:"slug" msgpack:"slug"`
	Status   string  `json:"status" msgpack:"status"`
	Progress int     `json:"progress" msgpack:"progress"`
	Error    *string `json:"error" msgpack:"error"`
}

type statusResponse struct {
	Files []fileStatusPayload `json:"files" msgpack:"files"`
	Done  bool                `json:"done" msgpack:"done"`
}

// buildStatus projects registry state into the polling response. Done
// is true once every file is terminal; cancelled counts as done so a
// cancelled-only request does not poll forever.
func buildStatus(files []models.FileStatus) statusResponse {
	resp := statusResponse{Files: make([]fileStatusPayload, 0, len(files)), Done: true}
	for _, fs := range files {
		var errMsg *string
		if fs.Error != "" {
			msg := fs.Error
			errMsg = &msg
		}
		resp.Files = append(resp.Files, fileStatusPayload{
			Name:     fs.DisplayName,
			Slug:     fs.Name,
			Status:   string(fs.Status),
			Progress: fs.Progress,
			Error:    errMsg,
		})
		if !fs.Status.IsTerminal() {
			resp.Done = false
		}
	}
	return resp
}

// HandleStatus returns the aggregate polling status for a request
func (h *StatusHandlerImpl) HandleStatus(c echo.Context) error {
	id := c.Param("requestId")
	files := h.registry.ListFiles(id)
	if len(files) == 0 {
		return NewNotFoundError("request", id)
	}
	return c.JSON(http.StatusOK, buildStatus(files))
}

// HandleStatusMsgpack returns the same payload MessagePack-encoded for
// bandwidth-sensitive pollers
func (h *StatusHandlerImpl) HandleStatusMsgpack(c echo.Context) error {
	id := c.Param("requestId")
	files := h.registry.ListFiles(id)
	if len(files) == 0 {
		return NewNotFoundError("request", id)
	}
	data, err := msgpack.Marshal(buildStatus(files))
	if err != nil {
		return NewInternalError("failed to encode status", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// HandleCancel marks a file cancelled. The acknowledgement is returned
// regardless of the file's current state; cancelling a terminal entry
// has no observable effect.
func (h *StatusHandlerImpl) HandleCancel(c echo.Context) error {
	id := c.Param("requestId")
	slug := c.Param("fileSlug")

	if _, ok := h.registry.Get(id); !ok {
		return NewNotFoundError("request", id)
	}
	if _, ok := h.registry.GetFile(id, slug); !ok {
		return NewNotFoundError("file", slug)
	}

	h.registry.Cancel(id, slug)
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}
