// internal/quotes/pool.go
//
// Quote type and the built-in fallback pool.
//
// Pool loading:
//   1. If a path is given (FALLBACK_QUOTES_FILE), load that JSON file.
//   2. Otherwise use the embedded assets/fallback.json.
//
// Constraints:
//   • Entries need a non-empty id and content; others are skipped.
//   • Ids are expected to carry the "fallback-" prefix so clients can tell them apart.
//   • An empty pool is an error: the game must always be able to start a round.

package quotes

import (
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/robalobadob/beauquote/assets"
)

// FallbackPrefix marks ids of pool quotes.
const FallbackPrefix = "fallback-"

// Quote is an immutable quote instance.
type Quote struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

// Pool is the small fixed set of quotes used when upstream gives us nothing.
type Pool struct {
	quotes []Quote
}

// NewPool builds a pool from explicit quotes.
func NewPool(qs ...Quote) (*Pool, error) {
	var out []Quote
	for _, q := range qs {
		q.ID = strings.TrimSpace(q.ID)
		if q.ID == "" || strings.TrimSpace(q.Content) == "" {
			continue
		}
		if q.Author == "" {
			q.Author = "Unknown"
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, errors.New("quotes: fallback pool is empty")
	}
	return &Pool{quotes: out}, nil
}

// LoadPool loads the pool from path, or from the embedded asset when path is empty.
func LoadPool(path string) (*Pool, error) {
	var (
		raw []assets.FallbackQuote
		err error
	)
	if path != "" {
		raw, err = assets.FallbackQuotesFile(path)
	} else {
		raw, err = assets.FallbackQuotes()
	}
	if err != nil {
		return nil, err
	}
	qs := make([]Quote, 0, len(raw))
	for _, r := range raw {
		qs = append(qs, Quote{ID: r.ID, Content: r.Content, Author: r.Author})
	}
	return NewPool(qs...)
}

// Quotes returns a copy of the pool contents.
func (p *Pool) Quotes() []Quote {
	return append([]Quote(nil), p.quotes...)
}

// Len reports the pool size.
func (p *Pool) Len() int { return len(p.quotes) }

// Contains reports whether id belongs to the pool.
func (p *Pool) Contains(id string) bool {
	for _, q := range p.quotes {
		if q.ID == id {
			return true
		}
	}
	return false
}

// Pick chooses uniformly among quotes for which recent returns false.
// When every quote is recent it picks from the whole pool.
func (p *Pool) Pick(r *rand.Rand, recent func(id string) bool) Quote {
	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}
	var fresh []Quote
	for _, q := range p.quotes {
		if recent == nil || !recent(q.ID) {
			fresh = append(fresh, q)
		}
	}
	if len(fresh) > 0 {
		return fresh[intN(len(fresh))]
	}
	return p.quotes[intN(len(p.quotes))]
}
