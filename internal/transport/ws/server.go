// Package ws serves the game over WebSocket. Every connection gets its own
// Session; requests on one connection are answered in order.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jwebster45206/map-quest/internal/logger"
	"github.com/jwebster45206/map-quest/internal/services"
)

const (
	// Time allowed to write a message to the client.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong from the client.
	pongWait = 60 * time.Second
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Largest request accepted from a client.
	maxMessageSize = 4096

	requestTimeout = 15 * time.Second
	sendBuffer     = 16
)

// Handler upgrades HTTP requests on /v1/ws.
type Handler struct {
	game     *services.GameService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler. Origins are not checked; put the
// server behind a proxy that does if that matters.
func NewHandler(game *services.GameService, logger *slog.Logger) *Handler {
	return &Handler{
		game:   game,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type client struct {
	conn    *websocket.Conn
	session *Session
	send    chan []byte
	logger  *slog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the HTTP error.
		logger.WithError(h.logger, err).Warn("Failed to upgrade connection", "remote_addr", r.RemoteAddr)
		return
	}
	connectionsActive.Inc()

	connLog := h.logger.With("remote_addr", r.RemoteAddr)
	connLog.Info("WebSocket connection established")

	c := &client{
		conn:    conn,
		session: NewSession(h.game, connLog),
		send:    make(chan []byte, sendBuffer),
		logger:  connLog,
	}

	// The connection outlives the upgrade request, so it gets its own
	// context, canceled when the read loop ends.
	ctx, cancel := context.WithCancel(context.Background())
	go c.writePump()
	go func() {
		defer connectionsActive.Dec()
		defer cancel()
		c.readPump(ctx)
	}()
}

// readPump reads requests and answers them one at a time.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.session.Close()
		close(c.send)
		c.logger.Info("WebSocket connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.WithError(c.logger, err).Warn("WebSocket read error")
			}
			return
		}

		var resp Response
		var req Request
		if err := json.Unmarshal(message, &req); err != nil {
			resp = Response{Error: "invalid JSON request", Code: "bad_request"}
		} else {
			reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
			resp = c.session.Handle(reqCtx, req)
			cancel()
			requestsTotal.WithLabelValues(opLabel(req.Op), okLabel(resp.OK)).Inc()
		}

		payload, err := json.Marshal(resp)
		if err != nil {
			logger.WithError(c.logger, err).Error("Failed to marshal response", "op", req.Op)
			payload, _ = json.Marshal(Response{ID: req.ID, Error: "internal error", Code: "error"})
		}
		c.send <- payload
	}
}

// writePump sends responses and keepalive pings. It owns all writes to the
// connection and closes it when the send channel is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.WithError(c.logger, err).Warn("Failed to write message")
				c.abort()
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.WithError(c.logger, err).Debug("Failed to send ping")
				c.abort()
				return
			}
		}
	}
}

// abort closes the socket to stop readPump, then drains send until readPump
// closes it.
func (c *client) abort() {
	_ = c.conn.Close()
	for range c.send {
	}
}

func opLabel(op string) string {
	if op == OpStart || op == OpResume || boundOps[op] {
		return op
	}
	return "unknown"
}

func okLabel(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
