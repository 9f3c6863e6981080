package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds how long a single frame write may block.
	writeWait = 10 * time.Second
	// readWait is generous: an idle student staring at a question is
	// still a live connection, the timer pushes keep it warm.
	readWait = 5 * time.Minute
)

// WriteEvent marshals v as JSON and sends it with a write deadline.
func WriteEvent(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends an ErrorResponse frame.
func WriteError(conn *websocket.Conn, msg string) error {
	return WriteEvent(conn, ErrorResponse{Event: EventError, Error: msg})
}

// RefreshReadDeadline extends the read deadline. Callers invoke it before
// each ReadMessage so the deadline tracks activity rather than connection
// age.
func RefreshReadDeadline(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(readWait))
}
