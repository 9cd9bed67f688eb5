package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luwei/stocklab/internal/market"
	"github.com/luwei/stocklab/pkg/logger"
)

// StreamHandler pushes market overview ticks over a websocket
// ⭐ SSOT: 行情推送只在这个结构体
type StreamHandler struct {
	overview *market.Service
	logger   *logger.Logger
	interval time.Duration
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(overview *market.Service, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		overview: overview,
		logger:   log,
		interval: 5 * time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Demo frontend is served from anywhere
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Stream upgrades the connection and pushes the overview payload on a fixed
// cadence until the client goes away
// GET /api/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	h.logger.WithField("remote", conn.RemoteAddr().String()).Debug("Stream client connected")

	// Reader goroutine: drain control frames, signal close
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	// Push immediately, then on each tick
	if !h.push(r, conn) {
		return
	}

	for {
		select {
		case <-done:
			h.logger.Debug("Stream client disconnected")
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !h.push(r, conn) {
				return
			}
		}
	}
}

// push sends one overview payload; returns false when the conn is dead
func (h *StreamHandler) push(r *http.Request, conn *websocket.Conn) bool {
	payload, err := h.overview.Overview(r.Context(), "")
	if err != nil {
		h.logger.WithError(err).Warn("Stream overview build failed")
		return true // transient; keep the connection
	}

	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(payload); err != nil {
		h.logger.WithError(err).Debug("Stream write failed")
		return false
	}
	return true
}
