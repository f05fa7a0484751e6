// Package notify fans out post lifecycle events to connected WebSocket
// clients. Delivery is best-effort at-most-once: a slow or disconnected
// client misses events, and nothing is persisted or retried.
package notify

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type Event struct {
	Action string      `json:"action"`
	Post   interface{} `json:"post"`
}

// Publisher is the write side of the hub; services depend on this rather
// than the concrete hub.
type Publisher interface {
	Publish(event Event)
}

const (
	writeWait      = 10 * time.Second
	clientSendSize = 16
	broadcastSize  = 64
)

type client struct {
	conn *websocket.Conn
	send chan Event
}

type Hub struct {
	register   chan *client
	unregister chan *client
	broadcast  chan Event
	clients    map[*client]struct{}
	upgrader   websocket.Upgrader
}

// New builds the hub; the caller must start Run exactly once before the
// server begins accepting requests. An empty origin allowlist admits any
// origin.
func New(allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		allowed[trimmed] = struct{}{}
	}
	return &Hub{
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, broadcastSize),
		clients:    make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// Run pumps registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for cl := range h.clients {
				close(cl.send)
				delete(h.clients, cl)
			}
			return
		case cl := <-h.register:
			h.clients[cl] = struct{}{}
		case cl := <-h.unregister:
			if _, ok := h.clients[cl]; ok {
				close(cl.send)
				delete(h.clients, cl)
			}
		case event := <-h.broadcast:
			for cl := range h.clients {
				select {
				case cl.send <- event:
				default:
					// Client cannot keep up; drop it rather than
					// block every other listener.
					close(cl.send)
					delete(h.clients, cl)
				}
			}
		}
	}
}

// Publish never blocks the triggering request. If the hub's buffer is full
// the event is dropped and logged, which is within the at-most-once
// contract.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		logutil.GetLogger(context.Background()).Warn("notifier buffer full, event dropped",
			zap.String("action", event.Action))
	}
}

// Serve upgrades the request and attaches the client to the hub.
func (h *Hub) Serve(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn, send: make(chan Event, clientSendSize)}
	h.register <- cl
	go cl.writePump(h)
	go cl.readPump(h)
}

func (cl *client) writePump(h *Hub) {
	defer cl.conn.Close()
	for event := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := cl.conn.WriteJSON(event); err != nil {
			h.unregister <- cl
			return
		}
	}
	_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames; it exists to notice the close handshake.
func (cl *client) readPump(h *Hub) {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			h.unregister <- cl
			return
		}
	}
}
