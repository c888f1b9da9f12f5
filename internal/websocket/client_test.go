// Lodestone - Data Mining Workbench and Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lodestone

package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// setupWebSocketServer creates a test server that upgrades connections
// and hands them to the supplied handler.
func setupWebSocketServer(t *testing.T, handler func(t *testing.T, conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("Failed to upgrade connection: %v", err)
			return
		}
		defer conn.Close()
		handler(t, conn)
	}))
}

// dialWebSocket establishes a WebSocket connection to the test server
func dialWebSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		t.Fatalf("Failed to dial websocket: %v", err)
	}
	return conn
}

// waitForChannel waits for a channel signal with timeout
func waitForChannel(t *testing.T, ch <-chan bool, timeout time.Duration, msg string) {
	t.Helper()
	select {
	case <-ch:
		// Success
	case <-time.After(timeout):
		t.Errorf("%s: timeout after %v", msg, timeout)
	}
}

// verifyConstant checks if a duration constant matches expected value
func verifyConstant(t *testing.T, got, want time.Duration, name string) {
	t.Helper()
	if got != want {
		t.Errorf("Expected %s %v, got %v", name, want, got)
	}
}

func TestNewClient(t *testing.T) {
	hub := NewHub()

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)

	if client == nil {
		t.Fatal("NewClient returned nil")
	}
	if client.hub != hub {
		t.Error("Client hub not set correctly")
	}
	if client.conn != conn {
		t.Error("Client connection not set correctly")
	}
	if client.send == nil {
		t.Error("Client send channel not initialized")
	}
	if cap(client.send) != 256 {
		t.Errorf("Expected send channel capacity 256, got %d", cap(client.send))
	}
	if client.ID() == 0 {
		t.Error("Expected non-zero connection ID")
	}
}

func TestNewClient_IDsIncrease(t *testing.T) {
	hub := NewHub()

	first := NewClient(hub, nil)
	second := NewClient(hub, nil)

	if second.ID() <= first.ID() {
		t.Errorf("Expected increasing connection IDs, got %d then %d", first.ID(), second.ID())
	}
}

func TestClient_Constants(t *testing.T) {
	verifyConstant(t, writeWait, 10*time.Second, "writeWait")
	verifyConstant(t, pongWait, 60*time.Second, "pongWait")
	verifyConstant(t, pingPeriod, (pongWait*9)/10, "pingPeriod")
	if maxMessageSize != 64*1024 {
		t.Errorf("Expected maxMessageSize %d, got %d", 64*1024, maxMessageSize)
	}
}

func TestClient_WritePump_SendMessage(t *testing.T) {
	hub := NewHub()

	messageReceived := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			t.Errorf("Failed to read message: %v", err)
			return
		}
		if msg.Type != "test" {
			t.Errorf("Expected message type 'test', got '%s'", msg.Type)
		}
		messageReceived <- true
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.writePump()

	testMessage := Message{Type: "test", Data: "test data"}
	client.send <- testMessage

	waitForChannel(t, messageReceived, 1*time.Second, "Message not received")
}

func TestClient_ReadPump_PingPong(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	time.Sleep(10 * time.Millisecond)

	receivedPong := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		pingMsg := Message{Type: MessageTypePing, Data: nil}
		if err := conn.WriteJSON(pingMsg); err != nil {
			t.Errorf("Failed to write ping: %v", err)
			return
		}

		var pongMsg Message
		if err := conn.ReadJSON(&pongMsg); err != nil {
			t.Errorf("Failed to read pong: %v", err)
			return
		}

		if pongMsg.Type == MessageTypePong {
			receivedPong <- true
		}
		time.Sleep(100 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.readPump()
	go client.writePump()

	waitForChannel(t, receivedPong, 1*time.Second, "Pong not received")
}

func TestClient_Start(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	time.Sleep(10 * time.Millisecond)

	messageReceived := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		var msg Message
		if err := conn.ReadJSON(&msg); err == nil {
			messageReceived <- true
		}
		time.Sleep(200 * time.Millisecond)
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	client.Start()

	// Allow goroutines to initialize (100ms for CI reliability under load)
	time.Sleep(100 * time.Millisecond)

	testMessage := Message{Type: "test", Data: "test data"}
	client.send <- testMessage

	waitForChannel(t, messageReceived, 1*time.Second, "Message not received")
}

func TestClient_ReadPump_ConnectionClose(t *testing.T) {
	// The hub loop is not started here so this test's goroutine is the
	// only receiver on Unregister.
	hub := NewHub()

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		conn.Close()
	})
	defer server.Close()

	conn := dialWebSocket(t, server)

	client := NewClient(hub, conn)
	hub.mu.Lock()
	hub.clients[client] = true
	hub.mu.Unlock()

	unregistered := make(chan bool, 1)
	go func() {
		select {
		case <-hub.Unregister:
			unregistered <- true
		case <-time.After(2 * time.Second):
			// Timeout
		}
	}()

	go client.readPump()

	waitForChannel(t, unregistered, 1*time.Second, "Client not unregistered after connection close")
}

func TestClient_WritePump_ChannelClose(t *testing.T) {
	hub := NewHub()

	receivedClose := make(chan bool, 1)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		for {
			messageType, _, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					receivedClose <- true
				}
				return
			}
			if messageType == websocket.CloseMessage {
				receivedClose <- true
				return
			}
		}
	})
	defer server.Close()

	conn := dialWebSocket(t, server)

	client := NewClient(hub, conn)
	go client.writePump()

	// Allow writePump goroutine to start (100ms for CI reliability under load)
	time.Sleep(100 * time.Millisecond)
	close(client.send)

	// Close message may or may not be received due to timing
	select {
	case <-receivedClose:
		// Success
	case <-time.After(1 * time.Second):
		// Acceptable, the connection may close before the message is read
	}
}

func TestClient_WritePump_PingInterval(t *testing.T) {
	hub := NewHub()

	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		conn.SetPingHandler(func(string) error {
			return conn.WriteControl(websocket.PongMessage, []byte{}, time.Now().Add(time.Second))
		})

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	go client.writePump()

	// pingPeriod is 54 seconds by default, too long for a unit test.
	// Just verify the write pump starts without error.
	time.Sleep(100 * time.Millisecond)
}

func TestClient_Integration(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	time.Sleep(10 * time.Millisecond)

	messagesReceived := make(chan Message, 10)
	server := setupWebSocketServer(t, func(t *testing.T, conn *websocket.Conn) {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			messagesReceived <- msg
		}
	})
	defer server.Close()

	conn := dialWebSocket(t, server)
	defer conn.Close()

	client := NewClient(hub, conn)
	client.Start()

	hub.Register <- client

	// Allow registration to process (100ms for CI reliability under load)
	time.Sleep(100 * time.Millisecond)

	hub.BroadcastTrainingProgress("training", 2, 15, 0.37, "corr-7")

	select {
	case msg := <-messagesReceived:
		if msg.Type != MessageTypeTrainingProgress {
			t.Errorf("Expected message type %q, got %q", MessageTypeTrainingProgress, msg.Type)
		}
		data, ok := msg.Data.(map[string]interface{})
		if !ok {
			t.Fatalf("Expected map data after JSON round trip, got %T", msg.Data)
		}
		if data["stage"] != "training" {
			t.Errorf("Expected stage 'training', got %v", data["stage"])
		}
	case <-time.After(1 * time.Second):
		t.Error("Message not received within timeout")
	}
}
