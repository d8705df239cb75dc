// Package handlers provides HTTP request handlers for the reconkit API.
// This file implements the WebSocket endpoint that streams engine events.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anstrom/reconkit/internal/api/middleware"
	"github.com/anstrom/reconkit/internal/events"
)

const (
	// WebSocket configuration constants.
	writeWait       = 10 * time.Second                                   // Time allowed to write a message to the peer
	pongWait        = 60 * time.Second                                   // Time to read next pong message from peer
	pingPeriodRatio = 0.9                                                // Ratio of pongWait for pingPeriod
	pingPeriod      = time.Duration(float64(pongWait) * pingPeriodRatio) // Send pings to peer (must be < pongWait)
	maxMessageSize  = 512                                                // Maximum message size allowed from peer
)

// EventStream relays hub events to WebSocket clients. Each connection holds
// its own hub subscription, optionally narrowed with ?topics=ip_scan,capture.
type EventStream struct {
	hub      *events.Hub
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	shutdown chan struct{}
	closed   bool
	clients  sync.WaitGroup
}

// NewEventStream creates a stream over hub.
func NewEventStream(hub *events.Hub, logger *slog.Logger) *EventStream {
	return &EventStream{
		hub:    hub,
		logger: logger.With("handler", "websocket"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// The API has no authentication layer; origin policy is left to CORS.
				return true
			},
		},
		shutdown: make(chan struct{}),
	}
}

// ParseTopics turns a comma separated topic list into hub topics. An empty
// list subscribes to everything.
func ParseTopics(raw string) ([]events.Topic, error) {
	var topics []events.Topic
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.ToLower(part))
		if part == "" {
			continue
		}
		switch t := events.Topic(part); t {
		case events.TopicIPScan, events.TopicPortScan, events.TopicCapture:
			topics = append(topics, t)
		default:
			return nil, fmt.Errorf("unknown event topic %q", part)
		}
	}
	return topics, nil
}

// Events handles GET /ws/events.
func (s *EventStream) Events(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r)

	topics, err := ParseTopics(r.URL.Query().Get("topics"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err)
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		writeError(w, r, http.StatusServiceUnavailable, fmt.Errorf("event stream is shutting down"))
		return
	}
	s.clients.Add(1)
	s.mu.Unlock()
	defer s.clients.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade WebSocket connection", "request_id", requestID, "error", err)
		return
	}

	sub := s.hub.Subscribe(topics...)
	s.logger.Info("Event stream connected",
		"request_id", requestID,
		"remote_addr", r.RemoteAddr,
		"topics", topics)

	gone := make(chan struct{})
	go s.readPump(conn, requestID, gone)
	s.writePump(conn, sub, requestID, gone)

	sub.Close()
	if err := conn.Close(); err != nil {
		s.logger.Debug("Error closing WebSocket connection", "request_id", requestID, "error", err)
	}
	s.logger.Info("Event stream disconnected", "request_id", requestID)
}

// readPump drains client frames so control messages are processed, and
// closes gone once the peer disconnects.
func (s *EventStream) readPump(conn *websocket.Conn, requestID string, gone chan<- struct{}) {
	defer close(gone)

	conn.SetReadLimit(maxMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error("Failed to set read deadline", "request_id", requestID, "error", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("WebSocket unexpected close", "request_id", requestID, "error", err)
			}
			return
		}
		// Incoming messages are ignored; the topic set is fixed at connect time.
	}
}

// writePump is the only writer on conn.
func (s *EventStream) writePump(conn *websocket.Conn, sub *events.Subscription, requestID string, gone <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case e, ok := <-sub.C:
			if !ok {
				s.closeConn(conn, websocket.CloseGoingAway, "event hub closed")
				return
			}
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(e); err != nil {
				s.logger.Debug("Write failed, closing connection", "request_id", requestID, "error", err)
				return
			}

		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("Ping failed, closing connection", "request_id", requestID, "error", err)
				return
			}

		case <-s.shutdown:
			s.closeConn(conn, websocket.CloseGoingAway, "server shutting down")
			return

		case <-gone:
			return
		}
	}
}

func (s *EventStream) closeConn(conn *websocket.Conn, code int, text string) {
	msg := websocket.FormatCloseMessage(code, text)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

// Close disconnects every client and refuses new ones. It returns once all
// connection handlers have exited.
func (s *EventStream) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.shutdown)
	}
	s.mu.Unlock()
	s.clients.Wait()
}
