package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamManager fans change messages out to SSE subscribers per document.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
	logger      *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

func (sm *StreamManager) Subscribe(docID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[docID]; !ok {
		sm.subscribers[docID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[docID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[docID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, docID)
			}
		}
	}
}

// Subscribers returns the number of live subscriptions to docID.
func (sm *StreamManager) Subscribers(docID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[docID])
}

func (sm *StreamManager) Broadcast(docID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[docID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: Client buffer full, dropping message", "document", docID)
		}
	}
}

// SubscribeEvents handles GET /documents/{docID}/events (SSE).
// The optional ops query parameter ("move,remove") filters by operation.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	docID := chi.URLParam(r, "docID")
	if _, err := s.Service.Get(r.Context(), docID); err != nil {
		s.writeError(w, err, nil)
		return
	}

	ops := make(map[domain.Op]bool)
	if raw := r.URL.Query().Get("ops"); raw != "" {
		for _, op := range strings.Split(raw, ",") {
			ops[domain.Op(strings.TrimSpace(op))] = true
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(docID)
	defer cancel()
	s.logger.Info("SSE: Subscribed", "document", docID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "document", docID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if len(ops) > 0 {
				var change ChangeMessage
				if err := json.Unmarshal([]byte(msg), &change); err == nil && !ops[change.Op] {
					continue
				}
			}
			fmt.Fprintf(w, "event: change\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
