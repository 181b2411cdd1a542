// handlers_download_test.go - Tests for artifact download resolution
package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/registry"
)

func seedDownloadRequest(t *testing.T, reg *registry.Registry, dir string) {
	t.Helper()
	if _, err := reg.CreateRequest("req-1", dir); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := reg.AddFile("req-1", models.NewFileStatus("abc123", "Report Q3.pdf")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	htmlPath := filepath.Join(dir, "tables.html")
	jsonPath := filepath.Join(dir, "tables.json")
	if err := os.WriteFile(htmlPath, []byte("<table></table>"), 0644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}
	if err := os.WriteFile(jsonPath, []byte("{}"), 0644); err != nil {
		t.Fatalf("writing artifact: %v", err)
	}

	finished := models.StatusFinished
	if err := reg.UpdateFile("req-1", "abc123", registry.Update{
		Status:   &finished,
		HTMLPath: &htmlPath,
		JSONPath: &jsonPath,
	}); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	// A second file that never produced artifacts.
	if err := reg.AddFile("req-1", models.NewFileStatus("def456", "empty.pdf")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
}

func downloadContext(requestID, fileParam string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/download/"+requestID+"/"+fileParam, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("requestId", "fileSlug")
	c.SetParamValues(requestID, fileParam)
	return c, rec
}

func TestDownloadHandler_HandleDownload(t *testing.T) {
	tests := []struct {
		name       string
		requestID  string
		fileParam  string
		wantStatus int
		errCode    string
	}{
		{
			name:       "unknown request",
			requestID:  "missing",
			fileParam:  "abc123.html",
			wantStatus: http.StatusNotFound,
			errCode:    "NOT_FOUND",
		},
		{
			name:       "missing extension",
			requestID:  "req-1",
			fileParam:  "abc123",
			wantStatus: http.StatusBadRequest,
			errCode:    "BAD_REQUEST",
		},
		{
			name:       "trailing dot",
			requestID:  "req-1",
			fileParam:  "abc123.",
			wantStatus: http.StatusBadRequest,
			errCode:    "BAD_REQUEST",
		},
		{
			name:       "unsupported format",
			requestID:  "req-1",
			fileParam:  "abc123.csv",
			wantStatus: http.StatusUnsupportedMediaType,
			errCode:    "UNSUPPORTED_MEDIA_TYPE",
		},
		{
			name:       "unknown file",
			requestID:  "req-1",
			fileParam:  "nope.html",
			wantStatus: http.StatusNotFound,
			errCode:    "NOT_FOUND",
		},
		{
			name:       "file without artifacts",
			requestID:  "req-1",
			fileParam:  "def456.html",
			wantStatus: http.StatusNotFound,
			errCode:    "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.NewRegistry()
			seedDownloadRequest(t, reg, t.TempDir())
			handler := NewDownloadHandler(reg)

			c, _ := downloadContext(tt.requestID, tt.fileParam)
			err := handler.HandleDownload(c)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			apiErr, ok := err.(*APIError)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, apiErr.Status)
			}
			if apiErr.Code != tt.errCode {
				t.Errorf("expected error code %s, got %s", tt.errCode, apiErr.Code)
			}
		})
	}
}

func TestDownloadHandler_StreamsArtifactUnderDisplayName(t *testing.T) {
	for _, ext := range []string{"html", "json"} {
		t.Run(ext, func(t *testing.T) {
			reg := registry.NewRegistry()
			seedDownloadRequest(t, reg, t.TempDir())
			handler := NewDownloadHandler(reg)

			c, rec := downloadContext("req-1", "abc123."+ext)
			if err := handler.HandleDownload(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}

			disposition := rec.Header().Get("Content-Disposition")
			if !strings.Contains(disposition, "Report Q3."+ext) {
				t.Errorf("download not named after display name: %s", disposition)
			}
			if rec.Body.Len() == 0 {
				t.Error("empty artifact body")
			}
		})
	}
}

func TestDownloadHandler_ArtifactRemovedFromDisk(t *testing.T) {
	reg := registry.NewRegistry()
	dir := t.TempDir()
	seedDownloadRequest(t, reg, dir)
	handler := NewDownloadHandler(reg)

	if err := os.Remove(filepath.Join(dir, "tables.html")); err != nil {
		t.Fatalf("removing artifact: %v", err)
	}

	c, _ := downloadContext("req-1", "abc123.html")
	err := handler.HandleDownload(c)
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Status != http.StatusNotFound {
		t.Fatalf("expected 404 APIError for deleted artifact, got %v", err)
	}
}
