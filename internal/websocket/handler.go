package websocket

import (
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches an upgraded connection to the hub. Replay frames are
// written first, in ledger order, while live events buffer in the Send
// channel; an event present in both comes through twice and subscribers
// dedupe by sequence.
func ServeWs(hub *Hub, c *websocket.Conn, sessionID uuid.UUID, replay [][]byte) {
	client := &Client{Hub: hub, Conn: c, SessionID: sessionID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	for _, frame := range replay {
		c.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.WriteMessage(websocket.TextMessage, frame); err != nil {
			client.Hub.unregister <- client
			c.Close()
			return
		}
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
