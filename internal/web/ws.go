package web

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/DesigningLevers0/tab-to-notes/internal/logging"
)

const (
	readDeadline  = 60 * time.Second
	writeDeadline = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Local preview tool; same-origin policy is not enforced.
		return true
	},
}

// handleWebSocket answers one conversion per received message until the
// client goes away. Conversion problems are reported in-band; only
// transport errors end the loop.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", "error", err)
		return
	}

	count := s.clients.Add(1)
	logging.WebSocketEvent("client_connected", int(count))
	defer func() {
		conn.Close()
		remaining := s.clients.Add(-1)
		logging.WebSocketEvent("client_disconnected", int(remaining))
	}()

	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	for {
		var req ConvertRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				logging.Error("websocket unexpected close", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readDeadline))

		resp := s.convert(req)
		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := conn.WriteJSON(resp); err != nil {
			logging.Error("websocket write failed", "error", err)
			return
		}
	}
}
