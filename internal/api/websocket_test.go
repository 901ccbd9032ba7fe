// websocket_test.go - Tests for the status feed
package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/insightflow/backend/internal/models"
)

func dialStatusFeed(t *testing.T, feed *StatusFeed) (*websocket.Conn, func()) {
	t.Helper()

	e := echo.New()
	e.GET("/ws", feed.HandleStatusFeed)
	srv := httptest.NewServer(e)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dialing feed: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestStatusFeedPingPong(t *testing.T) {
	feed := NewStatusFeed()
	conn, cleanup := dialStatusFeed(t, feed)
	defer cleanup()

	var hello WSMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading welcome: %v", err)
	}
	if hello.Type != MsgTypeConnected {
		t.Errorf("expected %s, got %s", MsgTypeConnected, hello.Type)
	}

	if err := conn.WriteJSON(WSMessage{Type: MsgTypePing}); err != nil {
		t.Fatalf("sending ping: %v", err)
	}
	var pong WSMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatalf("reading pong: %v", err)
	}
	if pong.Type != MsgTypePong {
		t.Errorf("expected %s, got %s", MsgTypePong, pong.Type)
	}
}

func TestStatusFeedPublishSurvivesPingFlood(t *testing.T) {
	feed := NewStatusFeed()
	conn, cleanup := dialStatusFeed(t, feed)
	defer cleanup()

	var hello WSMessage
	if err := conn.ReadJSON(&hello); err != nil {
		t.Fatalf("reading welcome: %v", err)
	}

	// Far more pings than the per-client send buffer holds. Excess pongs
	// must be dropped without wedging the read loop.
	for i := 0; i < 64; i++ {
		if err := conn.WriteJSON(WSMessage{Type: MsgTypePing}); err != nil {
			t.Fatalf("sending ping %d: %v", i, err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		run := models.AnalysisRun{
			ID:       "run-1",
			Status:   models.RunStatusRunning,
			Progress: 42,
			Stage:    "Reading documents...",
		}
		for {
			feed.Publish(run)
			select {
			case <-stop:
				return
			case <-time.After(25 * time.Millisecond):
			}
		}
	}()

	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("feed stalled: %v", err)
		}
		if msg.Type != MsgTypeRunStatus {
			continue
		}
		var payload WSRunStatusPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if payload.RunID != "run-1" || payload.Progress != 42 {
			t.Errorf("unexpected payload: %+v", payload)
		}
		return
	}
}
