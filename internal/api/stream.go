package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/notifier"
)

// streamBuffer is how many snapshots may queue for a slow client. Older
// snapshots are dropped first; each one is complete so only the newest
// matters.
const streamBuffer = 4

func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	switch collection := chi.URLParam(r, "collection"); collection {
	case domain.CollectionReservations:
		streamSnapshots(h, w, r, collection, h.svc.SubscribeReservations)
	case domain.CollectionOrders:
		streamSnapshots(h, w, r, collection, h.svc.SubscribeOrders)
	case domain.CollectionGuests:
		streamSnapshots(h, w, r, collection, h.svc.SubscribeGuests)
	case domain.CollectionDocuments:
		streamSnapshots(h, w, r, collection, h.svc.SubscribeDocuments)
	default:
		writeProblem(w, http.StatusNotFound, "not_found", fmt.Sprintf("unknown collection %q", collection))
	}
}

func streamSnapshots[T any](h *Handler, w http.ResponseWriter, r *http.Request, collection string,
	subscribe func(notifier.Listener[T]) func()) {

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "internal", "streaming not supported")
		return
	}

	snaps := make(chan []T, streamBuffer)
	unsubscribe := subscribe(func(snap []T) {
		// Deliveries for one collection are serialized, so this is the
		// only sender.
		for {
			select {
			case snaps <- snap:
				return
			default:
			}
			select {
			case <-snaps:
			default:
			}
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	h.log.Debug("stream_opened", map[string]any{"collection": collection})
	defer h.log.Debug("stream_closed", map[string]any{"collection": collection})

	ticker := time.NewTicker(h.heartbeat)
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
		case snap := <-snaps:
			body, err := json.Marshal(snap)
			if err != nil {
				h.log.Error("stream_encode_failed", err, map[string]any{"collection": collection})
				return
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", collection, body); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
