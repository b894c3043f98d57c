// Package http exposes a Wayfarer service as a JSON API with live
// history updates over SSE.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/seranno/wayfarer"
	"github.com/seranno/wayfarer/pkg/domain"
)

// ReaderHeader carries the reader identity on visit requests. Requests
// without it are served as guest visits.
const ReaderHeader = "X-Wayfarer-Reader"

// Server routes API requests to a wayfarer.Service.
type Server struct {
	Service *wayfarer.Service
	Streams *StreamManager

	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the HTTP handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsHandler overrides the /metrics endpoint, typically with a
// promhttp handler bound to a custom registry.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for a service.
func NewHandler(svc *wayfarer.Service, opts ...Option) http.Handler {
	server := &Server{
		Service: svc,
		Streams: NewStreamManager(),
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(server)
	}

	r := chi.NewRouter()

	r.Get("/healthz", server.health)
	r.Handle("/metrics", server.metrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/stories", server.listStories)
		r.Get("/stories/{story}", server.getStory)
		r.Get("/stories/{story}/pages/{page}", server.getPage)
		r.Post("/stories/{story}/visit", server.visit)

		r.Route("/readers/{reader}", func(r chi.Router) {
			r.Get("/histories", server.listHistories)
			r.Delete("/histories", server.deleteHistories)
			r.Get("/continue", server.resume)
			r.Get("/activity", server.activity)
			r.Get("/events", server.subscribeEvents)
			r.Get("/favorites", server.listFavorites)
			r.Put("/favorites/{story}/{page}", server.addFavorite)
			r.Delete("/favorites/{story}/{page}", server.removeFavorite)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ReaderHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": wayfarer.Version,
	})
}

func (s *Server) listStories(w http.ResponseWriter, r *http.Request) {
	stories, err := s.Service.Stories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stories)
}

func (s *Server) getStory(w http.ResponseWriter, r *http.Request) {
	story, err := s.Service.Story(r.Context(), domain.StoryID(chi.URLParam(r, "story")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, story)
}

// getPage is the read-only peek; nothing is recorded.
func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	page, err := s.Service.Page(r.Context(),
		domain.StoryID(chi.URLParam(r, "story")),
		domain.PageID(chi.URLParam(r, "page")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// VisitRequest is the POST /visit body. Page left empty resolves to the
// story root; Prev present marks the visit as link navigation.
type VisitRequest struct {
	Page      string `json:"page,omitempty"`
	Prev      string `json:"prev,omitempty"`
	HistoryID *int   `json:"historyId,omitempty"`
	Forward   bool   `json:"forward"`
	Preview   bool   `json:"preview,omitempty"`
}

func (s *Server) visit(w http.ResponseWriter, r *http.Request) {
	var body VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.logger.Warn("visit: invalid request body", "err", err)
		return
	}

	readerID := r.Header.Get(ReaderHeader)
	v := domain.Visit{
		Story:      domain.StoryID(chi.URLParam(r, "story")),
		Page:       domain.PageID(body.Page),
		Prev:       domain.PageID(body.Prev),
		HistoryRef: body.HistoryID,
		Forward:    body.Forward,
		Preview:    body.Preview,
		Guest:      readerID == "",
	}
	switch {
	case body.Page == "":
		v.Kind = domain.VisitRoot
	case body.Prev != "":
		v.Kind = domain.VisitLinked
	default:
		v.Kind = domain.VisitExternal
	}

	result, err := s.Service.Visit(r.Context(), readerID, v)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		// The store refused the write; nothing was committed.
		writeError(w, http.StatusServiceUnavailable, "visit not committed")
		s.logger.Error("visit failed", "reader", readerID, "story", v.Story, "err", err)
		return
	}

	if result.Op != domain.OpNone {
		s.broadcast(readerID, v, result)
	}

	writeJSON(w, http.StatusOK, result)
}

// broadcast pushes the committed change to the reader's SSE subscribers.
func (s *Server) broadcast(readerID string, v domain.Visit, result *wayfarer.VisitResult) {
	update := domain.HistoryUpdate{
		Reader:     readerID,
		Story:      v.Story,
		Page:       v.Page,
		Op:         result.Op,
		HistoryID:  result.HistoryID,
		HistoryKey: result.HistoryKey,
		Appended:   result.Appended,
		Absorbed:   result.Absorbed,
	}
	payload, err := json.Marshal(update)
	if err != nil {
		s.logger.Error("history update marshal failed", "err", err)
		return
	}
	s.Streams.Broadcast(readerID, string(payload))
}

func (s *Server) listHistories(w http.ResponseWriter, r *http.Request) {
	histories, err := s.Service.Histories(r.Context(), chi.URLParam(r, "reader"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if histories == nil {
		histories = []domain.History{}
	}
	writeJSON(w, http.StatusOK, histories)
}

func (s *Server) deleteHistories(w http.ResponseWriter, r *http.Request) {
	if err := s.Service.DeleteReader(r.Context(), chi.URLParam(r, "reader")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	target, ok, err := s.Service.Continue(r.Context(), chi.URLParam(r, "reader"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "nothing to continue")
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (s *Server) activity(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	records, err := s.Service.Activity(r.Context(), chi.URLParam(r, "reader"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if records == nil {
		records = []domain.ActivityRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) listFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.Service.Favorites(r.Context(), chi.URLParam(r, "reader"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if favs == nil {
		favs = []domain.Favorite{}
	}
	writeJSON(w, http.StatusOK, favs)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	fav := domain.Favorite{
		Story: domain.StoryID(chi.URLParam(r, "story")),
		Page:  domain.PageID(chi.URLParam(r, "page")),
	}
	if err := s.Service.AddFavorite(r.Context(), chi.URLParam(r, "reader"), fav); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request) {
	fav := domain.Favorite{
		Story: domain.StoryID(chi.URLParam(r, "story")),
		Page:  domain.PageID(chi.URLParam(r, "page")),
	}
	if err := s.Service.RemoveFavorite(r.Context(), chi.URLParam(r, "reader"), fav); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// subscribeEvents streams history updates for one reader as SSE.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	readerID := chi.URLParam(r, "reader")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(readerID)
	defer cancel()

	s.logger.Info("sse subscribed", "reader", readerID)
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "reader", readerID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // reader -> set of channels
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

func (sm *StreamManager) Subscribe(readerID string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[readerID]; !ok {
		sm.subscribers[readerID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[readerID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[readerID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, readerID)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(readerID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if subs, ok := sm.subscribers[readerID]; ok {
		for ch := range subs {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client).
			}
		}
	}
}

// -- Helpers --

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrReaderRequired), errors.Is(err, domain.ErrInvalidReader):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, domain.ErrStoryNotFound) || errors.Is(err, domain.ErrPageNotFound)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
