package websocket

import "time"

// Connection is the subset of *websocket.Conn the client pumps rely on.
type Connection interface {
	WriteMessage(messageType int, data []byte) error
	ReadMessage() (messageType int, p []byte, err error)
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(appData string) error)
	RemoteAddr() string
}

// Broadcaster publishes dataset events to connected dashboards.
type Broadcaster interface {
	BroadcastUpdate(updateType, subtype, action string, data any)
	BroadcastUpdateWithTrace(updateType, subtype, action string, data any, traceID string)
	ClientCount() int
}
