// internal/game/types.go
//
// Core type definitions for a BeauQuote round.
// Defines:
//   - State: where a session is in its round lifecycle.
//   - Fetcher: anything that can hand out the next enciphered quote.
//   - Session errors.

package game

import (
	"context"
	"errors"

	"github.com/robalobadob/beauquote/internal/quotes"
)

// State is the lifecycle position of a session.
//
//	idle → active ⇄ checked → complete | gave_up → (next) active
//
// reset returns any state to idle.
type State string

const (
	StateIdle     State = "idle"
	StateActive   State = "active"
	StateChecked  State = "checked"
	StateComplete State = "complete"
	StateGaveUp   State = "gave_up"
)

// Playing reports whether guesses may still be edited and checked.
func (s State) Playing() bool { return s == StateActive || s == StateChecked }

// Finished reports whether the round is over (won or abandoned).
func (s State) Finished() bool { return s == StateComplete || s == StateGaveUp }

// Fetcher supplies puzzles. *quotes.Source implements it.
type Fetcher interface {
	Fetch(ctx context.Context) quotes.Result
}

var (
	ErrNotStarted     = errors.New("game: no round in progress")
	ErrAlreadyStarted = errors.New("game: round already started")
	ErrRoundOver      = errors.New("game: round is already over")
	ErrBadCell        = errors.New("game: cell index out of range")
	ErrNotFinished    = errors.New("game: round is not finished")
)
