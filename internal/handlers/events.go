package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BatmanBruc/image-credits/internal/contextkeys"
	"github.com/BatmanBruc/image-credits/internal/recharge"
)

const keepAliveInterval = 25 * time.Second

// Events streams balance updates for the signed-in user as server-sent events.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	user, ok := contextkeys.GetUser(r.Context())
	if !ok {
		h.sendError(w, r, recharge.ErrUnauthenticated)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, err := h.events.Subscribe(r.Context(), user.Email)
	if err != nil {
		h.logger.Error("failed to subscribe to balance updates", zap.String("email", user.Email), zap.Error(err))
		http.Error(w, "events unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case update, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: balance\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
