// websocket.go - Live status push over WebSocket
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// Server -> client message types for the status stream.
const (
	MsgTypeStatus = "status"
	MsgTypeError  = "error"
)

// writeWait bounds each individual push. The stream outlives the
// http.Server write timeout, so the deadline must be reset per write
// instead of inheriting the connection-wide one set before the upgrade.
const writeWait = 10 * time.Second

// WSStatusMessage is the envelope pushed on every tick.
type WSStatusMessage struct {
	Type      string         `json:"type"`
	RequestID string         `json:"requestId"`
	Payload   statusResponse `json:"payload"`
	Timestamp int64          `json:"timestamp"`
}

// WSErrorMessage reports a stream-level failure before closing.
type WSErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Same-origin policy is handled by the CORS middleware; the
	// polling data is not sensitive.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleStatusStream upgrades the connection and pushes the status
// payload every tick until all files are terminal or the client goes
// away.
func (h *StatusHandlerImpl) HandleStatusStream(c echo.Context) error {
	id := c.Param("requestId")

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return NewBadRequestError("websocket upgrade failed", err)
	}
	defer conn.Close()

	if len(h.registry.ListFiles(id)) == 0 {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		conn.WriteJSON(WSErrorMessage{Type: MsgTypeError, Message: "request not found"})
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			files := h.registry.ListFiles(id)
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if len(files) == 0 {
				conn.WriteJSON(WSErrorMessage{Type: MsgTypeError, Message: "request evicted"})
				return nil
			}
			status := buildStatus(files)
			msg := WSStatusMessage{
				Type:      MsgTypeStatus,
				RequestID: id,
				Payload:   status,
				Timestamp: time.Now().UnixMilli(),
			}
			if err := conn.WriteJSON(msg); err != nil {
				return nil
			}
			if status.Done {
				return nil
			}
		case <-timeout.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			conn.WriteJSON(WSErrorMessage{Type: MsgTypeError, Message: "stream timeout"})
			return nil
		}
	}
}
