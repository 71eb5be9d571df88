package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/danielpache7/hackathon-AlphaRamos/internal/logger"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/metrics"
	"github.com/danielpache7/hackathon-AlphaRamos/internal/pubsub"
)

var keepaliveInterval = 30 * time.Second

// EventsSSE provides Server-Sent Events for realtime updates. Scoreboard
// updates carry the full snapshot so dashboards never poll.
func (h *APIHandlers) EventsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	eventChan := h.bus.Subscribe()
	defer h.bus.Unsubscribe(eventChan)

	metrics.SSEClients.Inc()
	defer metrics.SSEClients.Dec()

	writeEvent(w, pubsub.Event{Type: "connected"})
	if snap := h.board.Snapshot(); snap != nil {
		writeEvent(w, pubsub.Event{
			Type:    pubsub.EventScoreboardUpdated,
			Payload: map[string]any{"snapshot": snap},
		})
	}

	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if event.Type == pubsub.EventScoreboardUpdated {
				snap := h.board.Snapshot()
				if snap == nil {
					continue
				}
				event = pubsub.Event{Type: event.Type, Payload: map[string]any{"snapshot": snap}}
			}
			writeEvent(w, event)
		case <-r.Context().Done():
			logger.Debug("SSE client disconnected")
			return
		case <-keepalive.C:
			fmt.Fprintf(w, ": keepalive\n\n")
			flush(w)
		}
	}
}

func writeEvent(w http.ResponseWriter, event pubsub.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		logger.Warn("Failed to encode SSE event", "type", event.Type, "error", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
