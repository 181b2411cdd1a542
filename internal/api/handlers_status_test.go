// handlers_status_test.go - Tests for status projection and cancellation
package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/registry"
	"github.com/vmihailenco/msgpack/v5"
)

func seedStatusRequest(t *testing.T, reg *registry.Registry, id string, states map[string]models.Status) {
	t.Helper()
	if _, err := reg.CreateRequest(id, "/tmp/"+id); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	// Insertion order matters for listings, so seed deterministically.
	for _, slug := range []string{"file-a", "file-b", "file-c"} {
		status, ok := states[slug]
		if !ok {
			continue
		}
		if err := reg.AddFile(id, models.NewFileStatus(slug, slug+".pdf")); err != nil {
			t.Fatalf("AddFile: %v", err)
		}
		if status == models.StatusError {
			if err := reg.MarkError(id, slug, "boom"); err != nil {
				t.Fatalf("MarkError: %v", err)
			}
			continue
		}
		if status != models.StatusPending {
			s := status
			if err := reg.UpdateFile(id, slug, registry.Update{Status: &s}); err != nil {
				t.Fatalf("UpdateFile: %v", err)
			}
		}
	}
}

func statusContext(method, path, requestID string, extraParams ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	names := []string{"requestId"}
	values := []string{requestID}
	for i := 0; i+1 < len(extraParams); i += 2 {
		names = append(names, extraParams[i])
		values = append(values, extraParams[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}

func TestStatusHandler_UnknownRequest(t *testing.T) {
	handler := NewStatusHandler(registry.NewRegistry())

	c, _ := statusContext(http.MethodGet, "/api/status/missing", "missing")
	err := handler.HandleStatus(c)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Status != http.StatusNotFound {
		t.Errorf("expected 404, got %d", apiErr.Status)
	}
}

func TestStatusHandler_DoneAggregation(t *testing.T) {
	tests := []struct {
		name     string
		states   map[string]models.Status
		wantDone bool
	}{
		{
			name: "in-flight file keeps polling alive",
			states: map[string]models.Status{
				"file-a": models.StatusFinished,
				"file-b": models.StatusProcessing,
			},
			wantDone: false,
		},
		{
			name: "all finished",
			states: map[string]models.Status{
				"file-a": models.StatusFinished,
				"file-b": models.StatusFinished,
			},
			wantDone: true,
		},
		{
			name: "cancelled and errored count as done",
			states: map[string]models.Status{
				"file-a": models.StatusCancelled,
				"file-b": models.StatusError,
				"file-c": models.StatusFinished,
			},
			wantDone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := registry.NewRegistry()
			seedStatusRequest(t, reg, "req-1", tt.states)
			handler := NewStatusHandler(reg)

			c, rec := statusContext(http.MethodGet, "/api/status/req-1", "req-1")
			if err := handler.HandleStatus(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var resp statusResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if resp.Done != tt.wantDone {
				t.Errorf("done = %v, want %v", resp.Done, tt.wantDone)
			}
			if len(resp.Files) != len(tt.states) {
				t.Errorf("expected %d files, got %d", len(tt.states), len(resp.Files))
			}
		})
	}
}

func TestStatusHandler_PayloadFields(t *testing.T) {
	reg := registry.NewRegistry()
	seedStatusRequest(t, reg, "req-1", map[string]models.Status{
		"file-a": models.StatusError,
		"file-b": models.StatusProcessing,
	})
	handler := NewStatusHandler(reg)

	c, rec := statusContext(http.MethodGet, "/api/status/req-1", "req-1")
	if err := handler.HandleStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	errored := resp.Files[0]
	if errored.Name != "file-a.pdf" {
		t.Errorf("expected display name, got %s", errored.Name)
	}
	if errored.Slug != "file-a" {
		t.Errorf("expected slug, got %s", errored.Slug)
	}
	if errored.Status != "error" {
		t.Errorf("expected error status, got %s", errored.Status)
	}
	if errored.Progress != 100 {
		t.Errorf("expected progress 100, got %d", errored.Progress)
	}
	if errored.Error == nil || *errored.Error != "boom" {
		t.Errorf("expected error message boom, got %v", errored.Error)
	}

	inflight := resp.Files[1]
	if inflight.Error != nil {
		t.Errorf("expected nil error for healthy file, got %v", *inflight.Error)
	}
}

func TestStatusHandler_Msgpack(t *testing.T) {
	reg := registry.NewRegistry()
	seedStatusRequest(t, reg, "req-1", map[string]models.Status{
		"file-a": models.StatusFinished,
	})
	handler := NewStatusHandler(reg)

	c, rec := statusContext(http.MethodGet, "/api/status/req-1/msgpack", "req-1")
	if err := handler.HandleStatusMsgpack(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/x-msgpack" {
		t.Errorf("unexpected content type: %s", got)
	}

	var resp statusResponse
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding msgpack: %v", err)
	}
	if !resp.Done {
		t.Error("expected done = true")
	}
	if len(resp.Files) != 1 || resp.Files[0].Slug != "file-a" {
		t.Errorf("unexpected payload: %+v", resp.Files)
	}
}

func TestStatusHandler_HandleCancel(t *testing.T) {
	reg := registry.NewRegistry()
	seedStatusRequest(t, reg, "req-1", map[string]models.Status{
		"file-a": models.StatusProcessing,
		"file-b": models.StatusFinished,
	})
	handler := NewStatusHandler(reg)

	t.Run("unknown request", func(t *testing.T) {
		c, _ := statusContext(http.MethodPost, "/api/cancel/missing/file-a", "missing", "fileSlug", "file-a")
		err := handler.HandleCancel(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Fatalf("expected 404 APIError, got %v", err)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		c, _ := statusContext(http.MethodPost, "/api/cancel/req-1/missing", "req-1", "fileSlug", "missing")
		err := handler.HandleCancel(c)
		apiErr, ok := err.(*APIError)
		if !ok || apiErr.Status != http.StatusNotFound {
			t.Fatalf("expected 404 APIError, got %v", err)
		}
	})

	t.Run("cancels in-flight file", func(t *testing.T) {
		c, rec := statusContext(http.MethodPost, "/api/cancel/req-1/file-a", "req-1", "fileSlug", "file-a")
		if err := handler.HandleCancel(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		fs, _ := reg.GetFile("req-1", "file-a")
		if fs.Status != models.StatusCancelled {
			t.Errorf("expected cancelled, got %s", fs.Status)
		}
	})

	t.Run("acknowledges terminal file without change", func(t *testing.T) {
		c, rec := statusContext(http.MethodPost, "/api/cancel/req-1/file-b", "req-1", "fileSlug", "file-b")
		if err := handler.HandleCancel(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		fs, _ := reg.GetFile("req-1", "file-b")
		if fs.Status != models.StatusFinished {
			t.Errorf("finished entry overwritten: %s", fs.Status)
		}
	})
}
