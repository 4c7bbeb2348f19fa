// Package ws streams emitted frames to websocket clients and exposes the
// health and control endpoints of the preview server.
package ws

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

// Control carries the hub's callbacks into the owning layer. Any hook may be
// nil.
type Control struct {
	Play          func(name string) error
	Stop          func()
	SetFrameDelay func(ms int)
}

// Hub fans frames out to connected clients. It satisfies the display sink
// interface so the playback scheduler and the device link can both feed it.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	frameID uint64
	start   time.Time
	last    pattern.Pattern

	control Control
	log     zerolog.Logger
}

func NewHub(control Control, log zerolog.Logger) *Hub {
	return &Hub{
		clients: map[*websocket.Conn]bool{},
		start:   time.Now(),
		control: control,
		log:     log,
	}
}

type framePayload struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	Rows    []int  `json:"rows"`
}

// Show broadcasts one frame to every client.
func (h *Hub) Show(p pattern.Pattern) error {
	h.mu.Lock()
	h.frameID++
	id := h.frameID
	h.last = p.Clone()
	h.mu.Unlock()

	rows := make([]int, len(p))
	for i, b := range p {
		rows[i] = int(b)
	}
	b, _ := json.Marshal(framePayload{T: time.Now().UnixNano(), FrameID: id, Rows: rows})

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			h.log.Debug().Err(err).Msg("write frame")
		}
	}
	return nil
}

// Close drops all clients.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		_ = c.Close()
	}
	h.clients = map[*websocket.Conn]bool{}
	return nil
}

func upgrader() websocket.Upgrader {
	return websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
}

// HandleFrames registers a frame-stream client and replays the last frame so
// a new client is not dark until the next emit.
func (h *Hub) HandleFrames(w http.ResponseWriter, r *http.Request) {
	up := upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.RLock()
	last := h.last
	h.mu.RUnlock()

	// replay before registering: once the conn is in the client set the
	// broadcast goroutine writes to it, and a websocket conn does not
	// tolerate a second concurrent writer
	if last != nil {
		rows := make([]int, len(last))
		for i, b := range last {
			rows[i] = int(b)
		}
		b, _ := json.Marshal(framePayload{T: time.Now().UnixNano(), Rows: rows})
		_ = conn.WriteMessage(websocket.TextMessage, b)
	}

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(h.clients, conn)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleControl applies playback commands from a client.
func (h *Hub) HandleControl(w http.ResponseWriter, r *http.Request) {
	up := upgrader()
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		h.applyControl(msg)
	}
}

func (h *Hub) applyControl(msg map[string]any) {
	if name, ok := msg["play"].(string); ok && h.control.Play != nil {
		if err := h.control.Play(name); err != nil {
			h.log.Warn().Err(err).Str("name", name).Msg("play request failed")
		}
	}
	if stop, ok := msg["stop"].(bool); ok && stop && h.control.Stop != nil {
		h.control.Stop()
	}
	if ms, ok := msg["frameDelayMs"].(float64); ok && h.control.SetFrameDelay != nil {
		h.control.SetFrameDelay(int(ms))
	}
}

// HandleHealth reports hub liveness.
func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resp := map[string]any{
		"frame_id": h.frameID,
		"uptime_s": time.Since(h.start).Seconds(),
		"clients":  len(h.clients),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
