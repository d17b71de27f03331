// internal/validate/validate.go
//
// Scores a player's guess grid against the original quote.
// Defines:
//   - Verdict: per-cell result (none, correct-word, correct-letter, incorrect-letter).
//   - Guess / Verdicts: word-major grids shaped like the quote.
//   - Check: per-word verdicts plus an independent completion flag.
//
// The quote is split on single spaces; each rune of a word is one cell, so
// punctuation attached to a word ("be,") is a cell the player fills too.

package validate

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Verdict is the evaluation of a single guess cell.
type Verdict string

const (
	VerdictNone        Verdict = ""
	VerdictCorrectWord Verdict = "correct-word"
	VerdictCorrect     Verdict = "correct-letter"
	VerdictIncorrect   Verdict = "incorrect-letter"
)

// ErrShapeMismatch means the guess grid does not match the quote's words.
var ErrShapeMismatch = errors.New("validate: guess shape does not match quote")

// Guess holds one string per cell; "" is an empty cell.
type Guess [][]string

// Verdicts has the same shape as Guess.
type Verdicts [][]Verdict

// Words splits the original text on single spaces.
func Words(original string) []string {
	return strings.Split(original, " ")
}

// NewGuess returns an all-empty grid shaped like original.
func NewGuess(original string) Guess {
	words := Words(original)
	g := make(Guess, len(words))
	for i, w := range words {
		g[i] = make([]string, len([]rune(w)))
	}
	return g
}

// NewVerdicts returns an all-none grid shaped like original.
func NewVerdicts(original string) Verdicts {
	words := Words(original)
	v := make(Verdicts, len(words))
	for i, w := range words {
		v[i] = make([]Verdict, len([]rune(w)))
	}
	return v
}

// Fits returns ErrShapeMismatch unless g has one row per word, one cell per
// rune, and every cell is empty or a single character.
func (g Guess) Fits(original string) error {
	words := Words(original)
	if len(g) != len(words) {
		return ErrShapeMismatch
	}
	for i, w := range words {
		if len(g[i]) != len([]rune(w)) {
			return ErrShapeMismatch
		}
		for _, cell := range g[i] {
			if utf8.RuneCountInString(cell) > 1 {
				return ErrShapeMismatch
			}
		}
	}
	return nil
}

// Clone returns a deep copy.
func (g Guess) Clone() Guess {
	out := make(Guess, len(g))
	for i := range g {
		out[i] = append([]string(nil), g[i]...)
	}
	return out
}

// Clone returns a deep copy.
func (v Verdicts) Clone() Verdicts {
	out := make(Verdicts, len(v))
	for i := range v {
		out[i] = append([]Verdict(nil), v[i]...)
	}
	return out
}

// Check scores g against original.
//
// A word whose joined cells equal the original word (case-insensitive, same
// rune length) is marked correct-word in every cell. Other words are scored
// cell by cell: empty → none, match → correct-letter, else incorrect-letter.
//
// complete is computed from the whole flattened text, not from the per-word
// verdicts.
func Check(original string, g Guess) (Verdicts, bool, error) {
	if err := g.Fits(original); err != nil {
		return nil, false, err
	}
	words := Words(original)
	out := make(Verdicts, len(words))
	joined := make([]string, len(words))

	for wi, word := range words {
		want := []rune(word)
		cells := g[wi]
		guessWord := strings.Join(cells, "")
		joined[wi] = guessWord

		row := make([]Verdict, len(want))
		if strings.EqualFold(guessWord, word) && len([]rune(guessWord)) == len(want) {
			for i := range row {
				row[i] = VerdictCorrectWord
			}
			out[wi] = row
			continue
		}
		for i, r := range want {
			row[i] = scoreCell(cells[i], r)
		}
		out[wi] = row
	}

	complete := strings.ToLower(strings.Join(joined, " ")) == strings.ToLower(strings.Join(words, " "))
	return out, complete, nil
}

// scoreCell compares one guessed cell with the original rune.
func scoreCell(cell string, want rune) Verdict {
	if cell == "" {
		return VerdictNone
	}
	if strings.EqualFold(cell, string(want)) {
		return VerdictCorrect
	}
	return VerdictIncorrect
}
