package editor

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the editor is served from the same local process
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ws streams preview events for the session until the client goes away.
func (h *Handler) ws(c *gin.Context) {
	sess := session(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	sess.hub.Add(conn)
	slog.Info("editor: preview client connected", "session", sess.ID)

	sess.hub.BroadcastJSON(Event{Type: EventWelcome, Clients: sess.hub.Count()})

	// incoming messages are ignored; reading detects the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	sess.hub.Remove(conn)
	slog.Info("editor: preview client disconnected", "session", sess.ID)
}
