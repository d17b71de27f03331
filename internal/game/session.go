// internal/game/session.go
//
// Session state machine for a single player.
// Responsibilities:
//   - Start / Next: fetch an enciphered quote and reset the guess grid.
//   - Edit: write one cell; clears verdicts from an earlier check.
//   - Check: score the grid, detect completion, bump the tally.
//   - GiveUp / Reset: abandon the round or drop back to idle.
//
// Notes:
//   - A Session is not safe for concurrent use; callers serialise access.
//   - The Tally is shared across rounds and survives Reset.
package game

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/beauquote/internal/cipher"
	"github.com/robalobadob/beauquote/internal/quotes"
	"github.com/robalobadob/beauquote/internal/validate"
)

// Session holds one player's current round.
type Session struct {
	ID string

	fetcher Fetcher
	tally   *Tally

	state     State
	roundID   string
	startedAt time.Time
	puzzle    quotes.Result
	guess     validate.Guess
	verdicts  validate.Verdicts
}

// NewSession returns an idle session. A nil tally gets a private one.
func NewSession(f Fetcher, tally *Tally) *Session {
	if tally == nil {
		tally = &Tally{}
	}
	return &Session{ID: uuid.NewString(), fetcher: f, tally: tally, state: StateIdle}
}

// State reports the current lifecycle state.
func (s *Session) State() State { return s.state }

// RoundID identifies the current round; empty while idle.
func (s *Session) RoundID() string { return s.roundID }

// Puzzle returns the result the current round was built from.
func (s *Session) Puzzle() quotes.Result { return s.puzzle }

// Tally returns the cross-round counters this session reports into.
func (s *Session) Tally() *Tally { return s.tally }

// Start begins a round from idle: a new session, or one that was Reset.
func (s *Session) Start(ctx context.Context) error {
	if s.state != StateIdle {
		return ErrAlreadyStarted
	}
	s.load(ctx)
	return nil
}

// Next loads a fresh quote. From an unfinished round it acts as a skip and
// leaves the correct/gave-up counters alone.
func (s *Session) Next(ctx context.Context) error {
	if s.state == StateIdle {
		return ErrNotStarted
	}
	s.load(ctx)
	return nil
}

// load fetches a quote and resets the per-round state.
func (s *Session) load(ctx context.Context) {
	s.puzzle = s.fetcher.Fetch(ctx)
	s.guess = validate.NewGuess(s.puzzle.Original)
	s.verdicts = validate.NewVerdicts(s.puzzle.Original)
	s.roundID = uuid.NewString()
	s.startedAt = time.Now().UTC()
	s.state = StateActive
	s.tally.roundStarted()
}

// Edit writes value into (word, letter). Only the last rune of value is kept;
// "" clears the cell. A checked grid drops back to active with neutral verdicts.
func (s *Session) Edit(word, letter int, value string) error {
	if err := s.requirePlaying(); err != nil {
		return err
	}
	if word < 0 || word >= len(s.guess) || letter < 0 || letter >= len(s.guess[word]) {
		return ErrBadCell
	}
	s.guess[word][letter] = lastRune(value)
	if s.state == StateChecked {
		s.verdicts = validate.NewVerdicts(s.puzzle.Original)
		s.state = StateActive
	}
	return nil
}

// Check scores the grid. It returns whether the quote is fully decoded.
func (s *Session) Check() (bool, error) {
	if err := s.requirePlaying(); err != nil {
		return false, err
	}
	v, complete, err := validate.Check(s.puzzle.Original, s.guess)
	if err != nil {
		return false, err
	}
	s.verdicts = v
	if complete {
		s.state = StateComplete
		s.tally.solved()
		return true, nil
	}
	s.state = StateChecked
	return false, nil
}

// GiveUp ends the round and reveals the quote. The correct counter is untouched.
func (s *Session) GiveUp() error {
	if err := s.requirePlaying(); err != nil {
		return err
	}
	s.state = StateGaveUp
	s.tally.abandoned()
	return nil
}

// Reset clears the round and returns to idle.
func (s *Session) Reset() {
	s.state = StateIdle
	s.roundID = ""
	s.startedAt = time.Time{}
	s.puzzle = quotes.Result{}
	s.guess = nil
	s.verdicts = nil
}

// RevealKey returns the substitution key of the current round.
func (s *Session) RevealKey() (cipher.Key, error) {
	if s.state == StateIdle {
		return cipher.Key{}, ErrNotStarted
	}
	return s.puzzle.Key, nil
}

// Original returns the plaintext once the round is over.
func (s *Session) Original() (string, error) {
	switch {
	case s.state == StateIdle:
		return "", ErrNotStarted
	case !s.state.Finished():
		return "", ErrNotFinished
	}
	return s.puzzle.Original, nil
}

// Elapsed reports time since the current round started.
func (s *Session) Elapsed() time.Duration {
	if s.startedAt.IsZero() {
		return 0
	}
	return time.Since(s.startedAt)
}

func (s *Session) requirePlaying() error {
	switch {
	case s.state == StateIdle:
		return ErrNotStarted
	case s.state.Finished():
		return ErrRoundOver
	}
	return nil
}

// lastRune keeps the final character of v, so typing over a filled cell
// replaces it.
func lastRune(v string) string {
	r := []rune(v)
	if len(r) == 0 {
		return ""
	}
	return string(r[len(r)-1])
}
