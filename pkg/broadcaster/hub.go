// Package broadcaster fans lifecycle events out to websocket observers and
// accepts EXPECT_ASA commands from them.
package broadcaster

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/xythum/darkpool-relayer/pkg/logger"
	"github.com/xythum/darkpool-relayer/pkg/metrics"
	"github.com/xythum/darkpool-relayer/pkg/models"
)

const (
	DefaultSendBuffer      = 256
	DefaultBroadcastBuffer = 256

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// CommandHandler receives well-formed EXPECT_ASA requests
type CommandHandler interface {
	HandleExpect(ctx context.Context, req models.ExpectRequest) error
}

type observer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *Hub
}

// Hub tracks connected observers and delivers every published event to each of them
type Hub struct {
	observers  map[*observer]struct{}
	broadcast  chan []byte
	register   chan *observer
	unregister chan *observer
	handler    CommandHandler
	sendBuffer int
	logger     logger.Logger

	ctx context.Context
	mu  sync.RWMutex
}

func NewHub(handler CommandHandler, sendBuffer int, log logger.Logger) *Hub {
	if sendBuffer <= 0 {
		sendBuffer = DefaultSendBuffer
	}
	return &Hub{
		observers:  make(map[*observer]struct{}),
		broadcast:  make(chan []byte, DefaultBroadcastBuffer),
		register:   make(chan *observer),
		unregister: make(chan *observer),
		handler:    handler,
		sendBuffer: sendBuffer,
		logger:     log,
		ctx:        context.Background(),
	}
}

// Run is the hub event loop; it returns when ctx is done and disconnects every observer
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	for {
		select {
		case o := <-h.register:
			h.mu.Lock()
			h.observers[o] = struct{}{}
			count := len(h.observers)
			h.mu.Unlock()
			metrics.Observers.Set(float64(count))
			h.logger.Debug("Observer %s connected (%d connected)", o.id, count)

		case o := <-h.unregister:
			h.remove(o)

		case data := <-h.broadcast:
			h.deliver(data)

		case <-ctx.Done():
			h.mu.Lock()
			for o := range h.observers {
				delete(h.observers, o)
				close(o.send)
			}
			h.mu.Unlock()
			metrics.Observers.Set(0)
			return
		}
	}
}

// Publish queues an event for every observer without blocking the caller
func (h *Hub) Publish(event models.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Failed to marshal %s event: %v", event.Type, err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		metrics.DroppedEvents.WithLabelValues("broadcast_full").Inc()
		h.logger.Error("Broadcast queue full, dropping %s event for swap %s", event.Type, event.SwapID)
	}
}

// deliver hands data to each observer; an observer whose queue is full is disconnected
func (h *Hub) deliver(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for o := range h.observers {
		select {
		case o.send <- data:
		default:
			delete(h.observers, o)
			close(o.send)
			metrics.DroppedEvents.WithLabelValues("slow_observer").Inc()
			h.logger.Notice("Dropping slow observer %s", o.id)
		}
	}
	metrics.Observers.Set(float64(len(h.observers)))
}

func (h *Hub) remove(o *observer) {
	h.mu.Lock()
	if _, ok := h.observers[o]; ok {
		delete(h.observers, o)
		close(o.send)
	}
	count := len(h.observers)
	h.mu.Unlock()
	metrics.Observers.Set(float64(count))
	h.logger.Debug("Observer %s disconnected (%d connected)", o.id, count)
}

// ObserverCount returns the number of connected observers
func (h *Hub) ObserverCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

func (h *Hub) context() context.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx
}

// ServeHTTP upgrades the request and attaches a new observer
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("WebSocket upgrade failed: %v", err)
		return
	}

	o := &observer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, h.sendBuffer),
		hub:  h,
	}

	select {
	case h.register <- o:
	case <-h.context().Done():
		_ = conn.Close()
		return
	}

	go o.writePump()
	go o.readPump()
}

// handleMessage parses an inbound frame; anything that is not a well-formed EXPECT_ASA is logged and ignored
func (h *Hub) handleMessage(ctx context.Context, from string, data []byte) {
	var req models.ExpectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		metrics.ObserverCommands.WithLabelValues("malformed").Inc()
		h.logger.Notice("Ignoring malformed message from observer %s: %v", from, err)
		return
	}

	if req.Type != models.CommandExpectASA {
		metrics.ObserverCommands.WithLabelValues("unknown").Inc()
		h.logger.Debug("Ignoring %q message from observer %s", req.Type, from)
		return
	}

	if strings.TrimSpace(req.Amount.String()) == "" || strings.TrimSpace(req.TargetEvm) == "" {
		metrics.ObserverCommands.WithLabelValues("malformed").Inc()
		h.logger.Notice("Ignoring EXPECT_ASA from observer %s: amount and targetEvm are required", from)
		return
	}

	if strings.TrimSpace(req.SwapID) == "" {
		req.SwapID = uuid.NewString()
	}

	if err := h.handler.HandleExpect(ctx, req); err != nil {
		metrics.ObserverCommands.WithLabelValues("rejected").Inc()
		h.logger.Error("EXPECT_ASA %s from observer %s rejected: %v", req.SwapID, from, err)
		return
	}
	metrics.ObserverCommands.WithLabelValues("accepted").Inc()
}

func (o *observer) readPump() {
	defer func() {
		o.hub.unregisterObserver(o)
		_ = o.conn.Close()
	}()

	o.conn.SetReadLimit(maxMessageSize)
	_ = o.conn.SetReadDeadline(time.Now().Add(pongWait))
	o.conn.SetPongHandler(func(string) error {
		return o.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := o.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				o.hub.logger.Debug("Observer %s read error: %v", o.id, err)
			}
			return
		}
		o.hub.handleMessage(o.hub.context(), o.id, message)
	}
}

func (h *Hub) unregisterObserver(o *observer) {
	select {
	case h.unregister <- o:
	case <-h.context().Done():
	}
}

func (o *observer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = o.conn.Close()
	}()

	for {
		select {
		case message, ok := <-o.send:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = o.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := o.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := o.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
