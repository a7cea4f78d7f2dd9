package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/dshills/textcore/internal/engine"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ErrNotFound is returned for an unknown document id.
var ErrNotFound = errors.New("document not found")

// maxLines bounds a single lines request.
const maxLines = 1000

// Server serves open documents and their edit feed.
type Server struct {
	hub      *Hub
	gatherer prometheus.Gatherer
	logger   *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*entry
}

type entry struct {
	session *Session
	detach  func()
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer serves gatherer on /metrics.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithServerLogger sets the server logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a Server publishing edits through hub.
func NewServer(hub *Hub, opts ...ServerOption) *Server {
	s := &Server{
		hub:      hub,
		logger:   slog.New(slog.DiscardHandler),
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts a session for doc and attaches it to the hub. An empty id is
// replaced by a random one. The session is returned so the caller can edit
// the document through it.
func (s *Server) Open(id string, doc *engine.Document) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	sess := NewSession(id, doc)
	var detach func()
	// Subscribing touches the document, so it runs on the session goroutine.
	_ = sess.Do(context.Background(), func(d *engine.Document) error {
		detach = s.hub.Attach(id, d)
		return nil
	})

	s.mu.Lock()
	old := s.sessions[id]
	s.sessions[id] = &entry{session: sess, detach: detach}
	s.mu.Unlock()
	if old != nil {
		s.closeEntry(old)
	}
	s.logger.Info("document opened", "doc", id, "file", doc.Filename())
	return sess
}

// Session returns the session for id.
func (s *Server) Session(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// CloseDocument detaches and stops the session for id.
func (s *Server) CloseDocument(id string) error {
	s.mu.Lock()
	e, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.closeEntry(e)
	return nil
}

func (s *Server) closeEntry(e *entry) {
	_ = e.session.Do(context.Background(), func(*engine.Document) error {
		if e.detach != nil {
			e.detach()
		}
		return nil
	})
	e.session.Close()
}

// Close stops every session and disconnects the feed clients.
func (s *Server) Close() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*entry)
	s.mu.Unlock()
	for _, e := range all {
		s.closeEntry(e)
	}
	s.hub.Close()
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.hub.ServeHTTP)
	r.Route("/documents", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/lines", s.handleLines)
		r.Get("/{id}/runnables", s.handleRunnables)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	slices.Sort(ids)

	out := make([]DocumentInfo, 0, len(ids))
	for _, id := range ids {
		info, err := s.info(r.Context(), id)
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrSessionClosed) {
			continue
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, info)
	}
	respondJSON(w, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	info, err := s.info(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusOf(err), err)
		return
	}
	respondJSON(w, info)
}

func (s *Server) info(ctx context.Context, id string) (DocumentInfo, error) {
	sess, ok := s.Session(id)
	if !ok {
		return DocumentInfo{}, ErrNotFound
	}
	var info DocumentInfo
	err := sess.Do(ctx, func(d *engine.Document) error {
		info = DocumentInfo{
			ID:       id,
			Filename: d.Filename(),
			Language: d.Language(),
			Lines:    d.LineCount(),
			Length:   d.Len(),
			Revision: d.Revision(),
		}
		return nil
	})
	return info, err
}

// handleLines serves the tokens of lines [start, end). end defaults to
// start+100 and is clamped to the document.
func (s *Server) handleLines(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.Session(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrNotFound)
		return
	}
	start, err := intParam(r, "start", 0)
	if err != nil || start < 0 {
		respondError(w, http.StatusBadRequest, errors.New("invalid start"))
		return
	}
	end, err := intParam(r, "end", start+100)
	if err != nil || end < start {
		respondError(w, http.StatusBadRequest, errors.New("invalid end"))
		return
	}
	end = min(end, start+maxLines)

	resp := LinesResponse{Doc: id, Start: start, Lines: [][]TokenPayload{}}
	err = sess.Do(r.Context(), func(d *engine.Document) error {
		resp.Language = d.Language()
		resp.Revision = d.Revision()
		for _, line := range d.Tokens(start, min(end, d.LineCount())) {
			row := make([]TokenPayload, len(line))
			for i, t := range line {
				row[i] = TokenPayload{Kind: t.Kind, Text: t.Text}
			}
			resp.Lines = append(resp.Lines, row)
		}
		return nil
	})
	if err != nil {
		respondError(w, statusOf(err), err)
		return
	}
	respondJSON(w, resp)
}

func (s *Server) handleRunnables(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.Session(id)
	if !ok {
		respondError(w, http.StatusNotFound, ErrNotFound)
		return
	}
	resp := RunnablesResponse{Doc: id, Runnables: []RunnablePayload{}}
	err := sess.Do(r.Context(), func(d *engine.Document) error {
		for _, rn := range d.Runnables() {
			cmd, _ := d.RunCommand(rn.Line)
			resp.Runnables = append(resp.Runnables, RunnablePayload{Runnable: rn, Command: cmd})
		}
		return nil
	})
	if err != nil {
		respondError(w, statusOf(err), err)
		return
	}
	respondJSON(w, resp)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}{Error: err.Error(), Status: status})
}
