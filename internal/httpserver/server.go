// internal/httpserver/server.go
//
// HTTP server wiring for the BeauQuote backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, access log).
//   - Public endpoints: "/", "/health".
//   - Quote endpoint: GET /api/quotes (never cached).
//   - Game endpoints: mounted under /game (see routes_game.go).
//   - Per-player tally: GET /stats/me, keyed by an anonymous cookie.
//   - Diagnostics: GET /debug/recent.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the anon cookie works).
//   - There are no accounts; a player is whoever holds the anon cookie.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/beauquote/internal/game"
	"github.com/robalobadob/beauquote/internal/journal"
	"github.com/robalobadob/beauquote/internal/quotes"
	"github.com/robalobadob/beauquote/internal/store"
	"github.com/robalobadob/beauquote/internal/validate"
)

// QuoteSource is what the server needs from *quotes.Source.
type QuoteSource interface {
	game.Fetcher
	History() quotes.History
}

// Journal records rounds; *journal.Journal implements it.
type Journal interface {
	RecordRound(ctx context.Context, r journal.Round) error
	FinishRound(ctx context.Context, id, status string, elapsed time.Duration) error
	Recent(ctx context.Context, limit int) ([]journal.Round, error)
}

// Options carries environment-dependent settings.
type Options struct {
	ClientOrigin string
	Production   bool
}

// Server bundles router, session store, quote source and journal.
type Server struct {
	r       *chi.Mux
	store   store.Store
	quotes  QuoteSource
	journal Journal
	opts    Options
}

// New constructs a Server, installs middleware, and registers routes.
// jr may be nil, in which case rounds are not journaled.
func New(st store.Store, src QuoteSource, jr Journal, opts Options) *Server {
	if opts.ClientOrigin == "" {
		opts.ClientOrigin = "http://localhost:5173"
	}
	s := &Server{r: chi.NewRouter(), store: st, quotes: src, journal: jr, opts: opts}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // zerolog access log
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(30 * time.Second)) // bound handler time; quote fetches degrade to the pool
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(cors(opts.ClientOrigin))         // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"service":"beauquote-go","endpoints":["/health","GET /api/quotes","POST /game/new","/game/{id}/*","/stats/me"]}`))
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	s.r.Get("/debug/recent", s.handleDebugRecent)

	s.r.Get("/api/quotes", s.handleQuote)
	s.mountGame(s.r)
	s.r.Get("/stats/me", s.handleStats)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr.
func (s *Server) Start(addr string) error { return http.ListenAndServe(addr, s.r) }

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ------------------------------ QUOTES -------------------------------------

// handleQuote serves one fresh puzzle. Upstream trouble only shows up in the
// metadata fields; this endpoint always answers 200.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	res := s.quotes.Fetch(r.Context())
	noStore(w)
	writeJSON(w, http.StatusOK, res)
}

// ------------------------------ STATS --------------------------------------

// handleStats returns the caller's in-process tally.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	player := s.ensureAnonID(w, r)
	noStore(w)
	writeJSON(w, http.StatusOK, map[string]any{
		"playerId": player,
		"tally":    s.store.Tally(r.Context(), player).Snapshot(),
	})
}

// ------------------------------ DEBUG --------------------------------------

// handleDebugRecent lists the dedup history and the newest journal rows.
func (s *Server) handleDebugRecent(w http.ResponseWriter, r *http.Request) {
	ids, err := s.quotes.History().IDs(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("read recent ids")
	}
	out := map[string]any{"recentIds": ids}
	if s.journal != nil {
		rounds, err := s.journal.Recent(r.Context(), 20)
		if err != nil {
			log.Warn().Err(err).Msg("read journal")
		}
		out["rounds"] = rounds
	}
	noStore(w)
	writeJSON(w, http.StatusOK, out)
}

// ------------------------------ helpers ------------------------------------

const anonCookieName = "beauquote_anon"

// ensureAnonID returns an existing anon cookie or sets a new one.
// Used to key the player's tally across sessions.
func (s *Server) ensureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	sameSite := http.SameSiteLaxMode
	if s.opts.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     anonCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.opts.Production,
		SameSite: sameSite,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
	return id
}

// errorStatus maps session errors onto HTTP status codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, game.ErrBadCell):
		return http.StatusBadRequest, "bad_cell"
	case errors.Is(err, game.ErrNotStarted):
		return http.StatusConflict, "not_started"
	case errors.Is(err, game.ErrAlreadyStarted):
		return http.StatusConflict, "already_started"
	case errors.Is(err, game.ErrRoundOver):
		return http.StatusConflict, "round_over"
	case errors.Is(err, game.ErrNotFinished):
		return http.StatusConflict, "not_finished"
	case errors.Is(err, validate.ErrShapeMismatch):
		return http.StatusInternalServerError, "shape_mismatch"
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, err error) {
	code, msg := errorStatus(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

// noStore tells browsers and proxies never to reuse the response.
func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store, max-age=0")
}
