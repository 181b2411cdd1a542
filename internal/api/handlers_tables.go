// handlers_tables.go - Extracted table row queries
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/pdf2tables/backend/internal/tablestore"
)

// TablesHandlerImpl implements the TablesHandler interface
type TablesHandlerImpl struct {
	registry *registry.Registry
	tables   *tablestore.Store
}

// NewTablesHandler creates a new tables handler instance
func NewTablesHandler(reg *registry.Registry, tables *tablestore.Store) TablesHandler {
	return &TablesHandlerImpl{registry: reg, tables: tables}
}

// HandleTables returns the stored table grids for one finished file.
func (h *TablesHandlerImpl) HandleTables(c echo.Context) error {
	id := c.Param("requestId")
	slug := c.Param("fileSlug")

	if _, ok := h.registry.Get(id); !ok {
		return NewNotFoundError("request", id)
	}
	if _, ok := h.registry.GetFile(id, slug); !ok {
		return NewNotFoundError("file", slug)
	}

	tables, err := h.tables.Tables(c.Request().Context(), id, slug)
	if err != nil {
		return NewInternalError("failed to query tables", err)
	}
	if tables == nil {
		tables = []models.Table{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"requestId": id,
		"slug":      slug,
		"tables":    tables,
	})
}
