package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	"github.com/aretw0/lattice/pkg/codec"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

// Server exposes a DocumentService over REST.
type Server struct {
	Service ports.DocumentService
	Streams *StreamManager

	logger   *slog.Logger
	metrics  http.Handler
	validate *validator.Validate
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler mounts h (typically promhttp.HandlerFor) at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewServer creates a Server over svc.
func NewServer(svc ports.DocumentService, opts ...Option) *Server {
	s := &Server{
		Service:  svc,
		Streams:  NewStreamManager(),
		logger:   logging.NewNop(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates the HTTP handler for svc.
func NewHandler(svc ports.DocumentService, opts ...Option) http.Handler {
	return NewServer(svc, opts...).Routes()
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.ListDocuments)
		r.Post("/", s.CreateDocument)
		r.Route("/{docID}", func(r chi.Router) {
			r.Get("/", s.GetDocument)
			r.Delete("/", s.DeleteDocument)
			r.Get("/export", s.ExportDocument)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/nodes", s.InsertNode)
			r.Patch("/nodes/{nodeID}", s.UpdateNode)
			r.Delete("/nodes/{nodeID}", s.RemoveNode)
			r.Post("/move", s.MoveNode)
			r.Put("/selection", s.SetSelection)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "lattice-http",
		"version": strings.TrimSpace(lattice.Version),
	})
}

// ListDocuments handles GET /documents.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Service.List(r.Context())
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"documents": ids})
}

// CreateDocument handles POST /documents.
func (s *Server) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var body CreateDocumentRequest
	if !s.decode(w, r, &body) {
		return
	}

	doc := domain.NewDocument(body.ID, domain.Variant(body.Variant))
	doc.Title = body.Title
	doc.Roots = body.Roots

	created, err := s.Service.Create(r.Context(), doc)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.Header().Set("Location", "/documents/"+created.ID)
	s.writeJSON(w, http.StatusCreated, created)
}

// GetDocument handles GET /documents/{docID}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.Service.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/{docID}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.Delete(r.Context(), chi.URLParam(r, "docID")); err != nil {
		s.writeError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportDocument handles GET /documents/{docID}/export?format=json|yaml.
func (s *Server) ExportDocument(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(codec.FormatJSON)
	}
	format, err := codec.ParseFormat(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	doc, err := s.Service.Get(r.Context(), chi.URLParam(r, "docID"))
	if err != nil {
		s.writeError(w, err, nil)
		return
	}
	data, err := codec.Encode(doc, format)
	if err != nil {
		s.writeError(w, err, nil)
		return
	}

	contentType := "application/json"
	if format == codec.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.ID+"."+string(format)))
	_, _ = w.Write(data)
}

// InsertNode handles POST /documents/{docID}/nodes.
func (s *Server) InsertNode(w http.ResponseWriter, r *http.Request) {
	var body InsertNodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	index := math.MaxInt
	if body.Index != nil {
		index = *body.Index
	}
	node := body.Node.toDomain()

	s.edit(w, r, func(ed *lattice.Editor) error {
		_, err := ed.Insert(index, node, domain.ID(body.ParentID))
		return err
	})
}

// UpdateNode handles PATCH /documents/{docID}/nodes/{nodeID}.
func (s *Server) UpdateNode(w http.ResponseWriter, r *http.Request) {
	var body UpdateNodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	id := domain.ID(chi.URLParam(r, "nodeID"))

	s.edit(w, r, func(ed *lattice.Editor) error {
		_, err := ed.Update(id, domain.Attributes(body.Attributes))
		return err
	})
}

// RemoveNode handles DELETE /documents/{docID}/nodes/{nodeID}.
func (s *Server) RemoveNode(w http.ResponseWriter, r *http.Request) {
	id := domain.ID(chi.URLParam(r, "nodeID"))
	s.edit(w, r, func(ed *lattice.Editor) error {
		_, err := ed.Remove(id)
		return err
	})
}

// MoveNode handles POST /documents/{docID}/move.
func (s *Server) MoveNode(w http.ResponseWriter, r *http.Request) {
	var body MoveNodeRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.edit(w, r, func(ed *lattice.Editor) error {
		_, err := ed.Move(domain.ID(body.ActiveID), domain.ID(body.OverID), body.Inside)
		return err
	})
}

// SetSelection handles PUT /documents/{docID}/selection. An empty node_id clears it.
func (s *Server) SetSelection(w http.ResponseWriter, r *http.Request) {
	var body SelectionRequest
	if !s.decode(w, r, &body) {
		return
	}
	s.edit(w, r, func(ed *lattice.Editor) error {
		if body.NodeID == "" {
			ed.ClearSelection()
			return nil
		}
		_, err := ed.Select(domain.ID(body.NodeID))
		return err
	})
}

// edit runs fn through the service, broadcasts the committed changes and
// writes the resulting document.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*lattice.Editor) error) {
	docID := chi.URLParam(r, "docID")

	var events []ChangeMessage
	doc, err := s.Service.Edit(r.Context(), docID, func(ed *lattice.Editor) error {
		unsubscribe := ed.Subscribe(func(evt domain.ChangeEvent) {
			events = append(events, ChangeMessage{
				Op:         evt.Op,
				NodeID:     evt.NodeID,
				Generation: evt.Tree.Generation,
				Diff:       evt.Diff,
			})
		})
		defer unsubscribe()
		return fn(ed)
	})
	if err != nil {
		s.writeError(w, err, doc)
		return
	}

	for _, evt := range events {
		if data, err := json.Marshal(evt); err == nil {
			s.Streams.Broadcast(docID, string(data))
		}
	}
	s.writeJSON(w, http.StatusOK, DocumentResponse{Document: doc})
}

// decode reads and validates a JSON body, writing 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(out); err != nil {
		s.logger.Warn("Invalid request body", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("invalid request body: %v", err)})
		return false
	}
	if err := s.validate.Struct(out); err != nil {
		s.logger.Warn("Request rejected by validation", "path", r.URL.Path, "err", err)
		s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationMessage(err)})
		return false
	}
	return true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrNodeNotFound) && !errors.Is(err, domain.ErrMoveRolledBack):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDocumentExists),
		errors.Is(err, domain.ErrNestingForbidden),
		errors.Is(err, domain.ErrNotContainer),
		errors.Is(err, domain.ErrDuplicateID),
		errors.Is(err, domain.ErrTooDeep),
		errors.Is(err, domain.ErrMoveRolledBack):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidKind):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error, doc *domain.Document) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "err", err)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Document: doc})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}
