package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/models"
)

// WebSocket message types for the status feed
const (
	// Client -> Server messages
	MsgTypePing      = "ping"
	MsgTypeSubscribe = "subscribe"

	// Server -> Client messages
	MsgTypePong      = "pong"
	MsgTypeConnected = "connected"
	MsgTypeRunStatus = "run:status"
	MsgTypeError     = "error"
)

// WSMessage is the envelope for all status feed traffic.
type WSMessage struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSRunStatusPayload mirrors the run snapshot pushed to clients.
type WSRunStatusPayload struct {
	RunID    string  `json:"runId"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Stage    string  `json:"stage,omitempty"`
	Error    string  `json:"error,omitempty"`
}

// StatusFeed pushes analysis run updates to connected WebSocket clients.
// Writes are serialized per connection; a slow client that cannot keep up
// is dropped rather than allowed to block the feed.
type StatusFeed struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]chan WSMessage
}

// NewStatusFeed creates an empty feed.
func NewStatusFeed() *StatusFeed {
	return &StatusFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
		},
		clients: make(map[*websocket.Conn]chan WSMessage),
	}
}

// Publish broadcasts a run snapshot to every connected client. Safe to call
// from any goroutine; session.Manager uses it as its Notifier.
func (f *StatusFeed) Publish(run models.AnalysisRun) {
	msg := WSMessage{
		Type:      MsgTypeRunStatus,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSRunStatusPayload{
			RunID:    run.ID,
			Status:   string(run.Status),
			Progress: run.Progress,
			Stage:    run.Stage,
			Error:    run.Error,
		}),
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for conn, send := range f.clients {
		select {
		case send <- msg:
		default:
			fmt.Printf("[WebSocket] Dropping slow client %s\n", conn.RemoteAddr())
		}
	}
}

// HandleStatusFeed upgrades the connection and streams run updates until the
// client disconnects.
func (f *StatusFeed) HandleStatusFeed(c echo.Context) error {
	ws, err := f.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	fmt.Println("[WebSocket] Client connected to status feed")

	send := make(chan WSMessage, 16)
	f.mu.Lock()
	f.clients[ws] = send
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.clients, ws)
		f.mu.Unlock()
		fmt.Println("[WebSocket] Client disconnected from status feed")
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg WSMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					fmt.Printf("[WebSocket] Connection error: %v\n", err)
				}
				return
			}
			if msg.Type == MsgTypePing {
				// Never block here: once the writer loop exits nothing
				// drains send, and this goroutine must still reach the
				// read error that ends it.
				select {
				case send <- WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}:
				default:
				}
			}
		}
	}()

	f.writeMessage(ws, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	for {
		select {
		case msg := <-send:
			if err := ws.WriteJSON(msg); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func (f *StatusFeed) writeMessage(ws *websocket.Conn, msg WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		fmt.Printf("[WebSocket] Failed to send message: %v\n", err)
	}
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
