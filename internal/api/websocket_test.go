// websocket_test.go - Tests for the live status stream
package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pdf2tables/backend/internal/models"
	"github.com/pdf2tables/backend/internal/registry"
)

func dialStatusStream(t *testing.T, reg *registry.Registry, requestID string) *websocket.Conn {
	t.Helper()
	e := echo.New()
	handler := NewStatusHandler(reg)
	e.GET("/api/ws/status/:requestId", handler.HandleStatusStream)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/ws/status/" + requestID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing stream: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestStatusStream_PushesUntilDone(t *testing.T) {
	reg := registry.NewRegistry()
	if _, err := reg.CreateRequest("req-1", "/tmp/req-1"); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := reg.AddFile("req-1", models.NewFileStatus("slug-a", "Report.pdf")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	finished := models.StatusFinished
	if err := reg.UpdateFile("req-1", "slug-a", registry.Update{Status: &finished}); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	conn := dialStatusStream(t, reg, "req-1")

	var msg WSStatusMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading stream message: %v", err)
	}
	if msg.Type != MsgTypeStatus {
		t.Errorf("expected %s message, got %s", MsgTypeStatus, msg.Type)
	}
	if msg.RequestID != "req-1" {
		t.Errorf("unexpected request id: %s", msg.RequestID)
	}
	if !msg.Payload.Done {
		t.Error("expected done payload for all-terminal request")
	}
	if len(msg.Payload.Files) != 1 || msg.Payload.Files[0].Slug != "slug-a" {
		t.Errorf("unexpected payload files: %+v", msg.Payload.Files)
	}

	// After the done push the server closes the stream.
	if err := conn.ReadJSON(&msg); err == nil {
		t.Error("expected stream to close after done")
	}
}

func TestStatusStream_StreamsProgressTransitions(t *testing.T) {
	reg := registry.NewRegistry()
	if _, err := reg.CreateRequest("req-1", "/tmp/req-1"); err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := reg.AddFile("req-1", models.NewFileStatus("slug-a", "Report.pdf")); err != nil {
		t.Fatalf("AddFile: %v", err)
	}

	conn := dialStatusStream(t, reg, "req-1")

	var first WSStatusMessage
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("reading first message: %v", err)
	}
	if first.Payload.Done {
		t.Fatal("stream reported done for a pending file")
	}

	finished := models.StatusFinished
	if err := reg.UpdateFile("req-1", "slug-a", registry.Update{Status: &finished}); err != nil {
		t.Fatalf("UpdateFile: %v", err)
	}

	// The stream keeps pushing until it observes the terminal state.
	for {
		var msg WSStatusMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("stream ended before reporting done: %v", err)
		}
		if msg.Payload.Done {
			if msg.Payload.Files[0].Progress != 100 {
				t.Errorf("done payload progress = %d, want 100", msg.Payload.Files[0].Progress)
			}
			return
		}
	}
}

func TestStatusStream_UnknownRequest(t *testing.T) {
	conn := dialStatusStream(t, registry.NewRegistry(), "missing")

	var msg WSErrorMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("reading error message: %v", err)
	}
	if msg.Type != MsgTypeError {
		t.Errorf("expected %s message, got %s", MsgTypeError, msg.Type)
	}
}
