package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"icalq/internal/config"
	"icalq/internal/ics"
	appLog "icalq/internal/log"
	"icalq/internal/model"
	"icalq/internal/timeline"
)

// staleAfter bounds how old the cached event set may get before a request
// triggers an on-demand refresh. The cron loop in cmd/icalq normally keeps
// the cache warmer than this.
const staleAfter = 30 * time.Minute

// Server exposes the timeline query API over the configured ICS feeds.
type Server struct {
	cfg     *config.Config
	fetcher *ics.Fetcher
	mux     *http.ServeMux

	eventsMu  sync.RWMutex
	events    []model.Event
	updatedAt time.Time
}

// NewServer constructs a Server. It does not fetch anything yet; call
// Refresh (or let the first request do it).
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:     cfg,
		fetcher: ics.NewFetcher(cfg.CacheDir),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/events", s.handleEvents)
	return s
}

// Handler returns the http.Handler for this server, wrapped with basic
// auth when configured.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// Refresh fetches all configured feeds, parses them and swaps in the new
// event set. Per-feed failures fall back to cached bodies inside the
// fetcher; a feed with no body at all is skipped.
func (s *Server) Refresh(ctx context.Context) error {
	sources := make([]ics.Source, 0, len(s.cfg.Sources))
	for _, sc := range s.cfg.Sources {
		sources = append(sources, ics.Source{ID: sc.ID, URL: sc.URL})
	}

	results, errs := s.fetcher.FetchAll(ctx, sources)
	events := make([]model.Event, 0)
	for _, res := range results {
		components, err := ics.ParseString(string(res.Body))
		if err != nil {
			appLog.Error("feed parse failed", err, "id", res.Source.ID)
			continue
		}
		events = append(events, ics.Events(res.Source.ID, components)...)
	}

	s.eventsMu.Lock()
	s.events = events
	s.updatedAt = time.Now()
	s.eventsMu.Unlock()

	appLog.Info("timeline refreshed", "events", len(events), "feeds", len(results), "feed_errors", len(errs))
	if len(results) == 0 && len(errs) > 0 {
		return fmt.Errorf("all %d feeds failed", len(errs))
	}
	return nil
}

// snapshot returns a timeline over the current event set, refreshing it
// first when empty or stale.
func (s *Server) snapshot(ctx context.Context) *timeline.Timeline {
	s.eventsMu.RLock()
	fresh := !s.updatedAt.IsZero() && time.Since(s.updatedAt) < staleAfter
	events := s.events
	s.eventsMu.RUnlock()

	if !fresh {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("on-demand refresh failed", err)
		}
		s.eventsMu.RLock()
		events = s.events
		s.eventsMu.RUnlock()
	}

	entries := make([]timeline.Entry, len(events))
	for i := range events {
		entries[i] = &events[i]
	}
	return timeline.New(entries...)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// eventsResponse is the JSON response shape for /api/events.
type eventsResponse struct {
	Mode   string     `json:"mode"`
	From   *time.Time `json:"from,omitempty"`
	To     *time.Time `json:"to,omitempty"`
	At     *time.Time `json:"at,omitempty"`
	Strict bool       `json:"strict,omitempty"`
	Events []eventDTO `json:"events"`
}

// eventDTO is a JSON-friendly view of one event.
type eventDTO struct {
	SourceID    string     `json:"source_id"`
	UID         string     `json:"uid"`
	Kind        string     `json:"kind"`
	Summary     string     `json:"summary"`
	Description string     `json:"description,omitempty"`
	Location    string     `json:"location,omitempty"`
	AllDay      bool       `json:"all_day"`
	Begin       time.Time  `json:"begin"`
	End         *time.Time `json:"end,omitempty"`
}

// handleEvents answers timeline queries over the configured feeds.
//
// GET /api/events?mode=overlapping&from=...&to=...
// GET /api/events?mode=included&from=...&to=...
// GET /api/events?mode=on&at=...&strict=1
//
// Times are RFC 3339. Defaults: mode=overlapping, from=now,
// to=now+horizon_days, at=now.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now().In(s.location())

	mode := q.Get("mode")
	if mode == "" {
		mode = "overlapping"
	}

	tl := s.snapshot(r.Context())

	var matched []timeline.Entry
	resp := eventsResponse{Mode: mode}

	switch mode {
	case "included", "overlapping":
		from, err := parseTimeDefault(q.Get("from"), now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'from': "+err.Error())
			return
		}
		to, err := parseTimeDefault(q.Get("to"), now.AddDate(0, 0, s.cfg.HorizonDays))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'to': "+err.Error())
			return
		}
		if mode == "included" {
			matched = tl.Included(from, to)
		} else {
			matched = tl.Overlapping(from, to)
		}
		resp.From, resp.To = &from, &to

	case "on":
		at, err := parseTimeDefault(q.Get("at"), now)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid 'at': "+err.Error())
			return
		}
		at = at.In(s.location())
		strict := parseBool(q.Get("strict"))
		matched = tl.On(at, strict)
		resp.At, resp.Strict = &at, strict

	default:
		writeError(w, http.StatusBadRequest, "mode must be one of included, overlapping, on")
		return
	}

	resp.Events = make([]eventDTO, 0, len(matched))
	for _, entry := range matched {
		ev, ok := entry.(*model.Event)
		if !ok {
			continue
		}
		dto := eventDTO{
			SourceID:    ev.SourceID,
			UID:         ev.UID,
			Kind:        ev.Kind,
			Summary:     ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			AllDay:      ev.AllDay,
			Begin:       ev.Begin,
		}
		if !ev.End.IsZero() {
			end := ev.End
			dto.End = &end
		}
		resp.Events = append(resp.Events, dto)
	}

	writeJSON(w, http.StatusOK, resp)
}

// location resolves the configured day-window zone, falling back to the
// process-local one.
func (s *Server) location() *time.Location {
	if s.cfg.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(s.cfg.Timezone)
	if err != nil {
		appLog.Warn("invalid timezone in config, using local", "timezone", s.cfg.Timezone)
		return time.Local
	}
	return loc
}

func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	// Empty username or password counts as disabled.
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="icalq", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func parseTimeDefault(v string, def time.Time) (time.Time, error) {
	if v == "" {
		return def, nil
	}
	return time.Parse(time.RFC3339, v)
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to encode JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
