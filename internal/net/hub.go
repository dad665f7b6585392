package net

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	HubPath = "/hubs/usercount"

	TypeUpdateUserCount = "updateusercount"

	sendBuffer = 16
	writeWait  = 5 * time.Second
)

// CountMessage is what every viewer receives when the count changes.
type CountMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub counts connected viewers and tells all of them whenever someone
// joins or leaves.
type Hub struct {
	mu      sync.Mutex
	viewers map[*viewer]struct{}
	closed  bool

	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		viewers:  make(map[*viewer]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }},
		log:      log,
	}
}

// Count is the number of viewers connected right now.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// ServeHTTP upgrades the request and holds the viewer until it
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	v := &viewer{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.add(v) {
		_ = conn.Close()
		return
	}
	go h.writeLoop(v)

	// Viewers only listen; reading is how we notice they left.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(v)
}

func (h *Hub) add(v *viewer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.viewers[v] = struct{}{}
	h.log.Info().Str("remote", v.conn.RemoteAddr().String()).Int("count", len(h.viewers)).Msg("viewer connected")
	h.broadcastLocked()
	return true
}

func (h *Hub) remove(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.viewers[v]; !ok {
		return
	}
	delete(h.viewers, v)
	close(v.send)
	h.log.Info().Str("remote", v.conn.RemoteAddr().String()).Int("count", len(h.viewers)).Msg("viewer disconnected")
	h.broadcastLocked()
}

func (h *Hub) broadcastLocked() {
	data, err := json.Marshal(CountMessage{Type: TypeUpdateUserCount, Count: len(h.viewers)})
	if err != nil {
		h.log.Error().Err(err).Msg("encode count")
		return
	}
	for v := range h.viewers {
		select {
		case v.send <- data:
		default:
			h.log.Warn().Str("remote", v.conn.RemoteAddr().String()).Msg("viewer too slow, dropping update")
		}
	}
}

func (h *Hub) writeLoop(v *viewer) {
	defer v.conn.Close()
	for data := range v.send {
		if err := v.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug().Err(err).Msg("write to viewer")
			return
		}
	}
}

// Close disconnects every viewer and refuses new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for v := range h.viewers {
		_ = v.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
			time.Now().Add(writeWait))
		_ = v.conn.Close()
	}
	return nil
}

// ListenAndServe serves the hub on port until ctx is done.
func (h *Hub) ListenAndServe(ctx context.Context, port int) error {
	mux := http.NewServeMux()
	mux.Handle(HubPath, h)
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeWait)
		defer cancel()
		_ = h.Close()
		_ = srv.Shutdown(shutdownCtx)
	}()

	h.log.Info().Int("port", port).Str("path", HubPath).Msg("presence hub listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("presence hub: %w", err)
	}
	return nil
}

// Watch connects to a hub at url and calls fn with every count it
// announces. It returns when ctx is done (nil) or the connection drops.
func Watch(ctx context.Context, url string, fn func(count int)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial hub: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read hub: %w", err)
		}
		var msg CountMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != TypeUpdateUserCount {
			continue
		}
		fn(msg.Count)
	}
}
