// internal/httpserver/routes_game.go
//
// HTTP routes for a game session.
//   - POST /game/new          → create a session and start its first round
//   - GET  /game/{id}         → current snapshot
//   - POST /game/{id}/cell    → write one guess cell {word, letter, value}
//   - POST /game/{id}/check   → score the grid
//   - POST /game/{id}/giveup  → reveal the quote
//   - POST /game/{id}/next    → load a new quote
//   - POST /game/{id}/reset   → back to idle (tally kept)
//   - POST /game/{id}/start   → start a round on an idle (reset) session
//   - GET  /game/{id}/key     → the substitution key ("Show Key")
//   - DELETE /game/{id}       → drop the session (back to the menu for good)
//
// Sessions live in the store; every mutation runs under the store's
// per-session lock. Round starts and finishes are journaled best effort.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/beauquote/internal/game"
	"github.com/robalobadob/beauquote/internal/journal"
)

// mountGame registers all /game routes.
func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Post("/new", s.handleNewGame)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetGame)
			r.Delete("/", s.handleEndGame)
			r.Post("/cell", s.handleCell)
			r.Post("/check", s.handleCheck)
			r.Post("/giveup", s.handleGiveUp)
			r.Post("/next", s.handleNext)
			r.Post("/reset", s.handleReset)
			r.Post("/start", s.handleStart)
			r.Get("/key", s.handleKey)
		})
	})
}

// handleNewGame creates a session bound to the caller's tally and starts it.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	player := s.ensureAnonID(w, r)
	sess := game.NewSession(s.quotes, s.store.Tally(r.Context(), player))
	if err := sess.Start(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Save(r.Context(), sess); err != nil {
		log.Error().Err(err).Msg("save session")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save_failed"})
		return
	}
	s.recordRound(r.Context(), sess, player)

	noStore(w)
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *game.Session) error { return nil })
}

// handleEndGame journals an unfinished round as abandoned and forgets the session.
func (s *Server) handleEndGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Update(r.Context(), id, func(sess *game.Session) error {
		if sess.State().Playing() {
			s.finishRound(r.Context(), sess, "abandoned")
		}
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// cellReq is the payload for POST /game/{id}/cell.
type cellReq struct {
	Word   int    `json:"word"`
	Letter int    `json:"letter"`
	Value  string `json:"value"`
}

func (s *Server) handleCell(w http.ResponseWriter, r *http.Request) {
	var req cellReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_json"})
		return
	}
	s.withSession(w, r, func(sess *game.Session) error {
		return sess.Edit(req.Word, req.Letter, req.Value)
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *game.Session) error {
		complete, err := sess.Check()
		if err != nil {
			return err
		}
		if complete {
			s.finishRound(r.Context(), sess, "complete")
		}
		return nil
	})
}

func (s *Server) handleGiveUp(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *game.Session) error {
		if err := sess.GiveUp(); err != nil {
			return err
		}
		s.finishRound(r.Context(), sess, "gave_up")
		return nil
	})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	player := s.ensureAnonID(w, r)
	s.withSession(w, r, func(sess *game.Session) error {
		if sess.State().Playing() {
			s.finishRound(r.Context(), sess, "skipped")
		}
		if err := sess.Next(r.Context()); err != nil {
			return err
		}
		s.recordRound(r.Context(), sess, player)
		return nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(sess *game.Session) error {
		if sess.State().Playing() {
			s.finishRound(r.Context(), sess, "abandoned")
		}
		sess.Reset()
		return nil
	})
}

// handleStart takes a reset session back into play.
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	player := s.ensureAnonID(w, r)
	s.withSession(w, r, func(sess *game.Session) error {
		if err := sess.Start(r.Context()); err != nil {
			return err
		}
		s.recordRound(r.Context(), sess, player)
		return nil
	})
}

// handleKey reveals the current substitution key.
func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var out map[string]string
	err := s.store.Update(r.Context(), id, func(sess *game.Session) error {
		k, err := sess.RevealKey()
		if err != nil {
			return err
		}
		out = k.Map()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, map[string]any{"key": out})
}

// withSession runs fn under the session lock and answers with the snapshot.
func (s *Server) withSession(w http.ResponseWriter, r *http.Request, fn func(*game.Session) error) {
	id := chi.URLParam(r, "id")
	var snap game.Snapshot
	err := s.store.Update(r.Context(), id, func(sess *game.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		snap = sess.Snapshot()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	noStore(w)
	writeJSON(w, http.StatusOK, snap)
}

// recordRound journals the round the session just started.
func (s *Server) recordRound(ctx context.Context, sess *game.Session, player string) {
	if s.journal == nil {
		return
	}
	p := sess.Puzzle()
	err := s.journal.RecordRound(context.WithoutCancel(ctx), journal.Round{
		ID:             sess.RoundID(),
		SessionID:      sess.ID,
		PlayerID:       player,
		QuoteID:        p.ID,
		Author:         p.Author,
		UsedFallback:   p.UsedFallback,
		UpstreamStatus: p.UpstreamStatus,
		UpstreamError:  p.UpstreamError,
	})
	if err != nil {
		log.Warn().Err(err).Str("round", sess.RoundID()).Msg("journal round")
	}
}

// finishRound journals the end of the session's current round.
func (s *Server) finishRound(ctx context.Context, sess *game.Session, status string) {
	if s.journal == nil {
		return
	}
	if err := s.journal.FinishRound(context.WithoutCancel(ctx), sess.RoundID(), status, sess.Elapsed()); err != nil {
		log.Warn().Err(err).Str("round", sess.RoundID()).Msg("journal finish")
	}
}
