// internal/quotes/source.go
//
// Source picks the next puzzle quote and enciphers it.
//
// Fetch protocol:
//   1. Up to MaxAttempts sequential upstream requests.
//   2. Transport failure → optional single relaxed-TLS retry, then stop trying.
//   3. 2xx with an id not in History → accept.
//   4. 2xx duplicate or non-2xx → next attempt.
//   5. Nothing accepted → fallback pool (prefer ids not in History).
//   6. Record the chosen id, generate a key and the cipher text.
//
// Fetch never returns an error; upstream trouble only shows up in the
// Result metadata (UpstreamStatus, UpstreamError, UsedFallback).

package quotes

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/beauquote/internal/cipher"
)

// DefaultMaxAttempts bounds upstream requests per Fetch.
const DefaultMaxAttempts = 10

// Result is one ready-to-play puzzle, in the shape clients consume.
type Result struct {
	Original       string     `json:"original"`
	Encrypted      string     `json:"encrypted"`
	Author         string     `json:"author"`
	Key            cipher.Key `json:"key"`
	ID             string     `json:"id"`
	UpstreamStatus *int       `json:"upstreamStatus"`
	UpstreamError  *string    `json:"upstreamError"`
	UsedFallback   bool       `json:"usedFallback"`
}

// Quote returns the plaintext quote the result was built from.
func (r Result) Quote() Quote {
	return Quote{ID: r.ID, Content: r.Original, Author: r.Author}
}

// Options tune a Source.
type Options struct {
	MaxAttempts int
	// AllowInsecureRetry enables one relaxed-TLS request after a transport
	// failure. Only meant for local development behind intercepting proxies.
	AllowInsecureRetry bool
	// Rand drives key generation and fallback picks; nil uses the global source.
	Rand *rand.Rand
}

// Source combines the upstream provider, fallback pool and recent history.
type Source struct {
	provider *Provider
	insecure *Provider
	pool     *Pool
	history  History
	opts     Options
}

// NewSource wires a Source. provider may be nil, in which case every Fetch
// is served from the pool.
func NewSource(provider *Provider, pool *Pool, history History, opts Options) *Source {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	s := &Source{provider: provider, pool: pool, history: history, opts: opts}
	if provider != nil && opts.AllowInsecureRetry {
		s.insecure = provider.Insecure()
	}
	return s
}

// History exposes the recent-id history (diagnostics).
func (s *Source) History() History { return s.history }

// Fetch returns the next puzzle. It never fails.
func (s *Source) Fetch(ctx context.Context) Result {
	var (
		chosen  *Quote
		status  *int
		lastErr *string
	)
	setStatus := func(code int) {
		if code > 0 {
			c := code
			status = &c
		}
	}

	if s.provider != nil {
	attempts:
		for attempt := 0; attempt < s.opts.MaxAttempts; attempt++ {
			if err := ctx.Err(); err != nil {
				msg := err.Error()
				lastErr = &msg
				break
			}
			q, code, err := s.provider.Random(ctx)
			setStatus(code)
			log.Info().Int("attempt", attempt).Int("status", code).Msg("quotes: upstream attempt")

			var statusErr *StatusError
			switch {
			case errors.As(err, &statusErr):
				log.Debug().Int("status", statusErr.Code).Str("body", statusErr.Body).Msg("quotes: non-2xx body")
				continue
			case err != nil:
				msg := err.Error()
				lastErr = &msg
				log.Warn().Err(err).Int("attempt", attempt).Msg("quotes: upstream fetch error")
				if s.insecure != nil {
					if q, ok := s.insecureRetry(ctx, setStatus); ok {
						chosen = &q
					}
				}
				break attempts
			}

			if err := s.accept(ctx, q); err != nil {
				log.Debug().Str("id", q.ID).Err(err).Msg("quotes: candidate skipped")
				continue
			}
			chosen = &q
			break
		}
	}

	usedFallback := false
	if chosen == nil {
		q := s.pool.Pick(s.opts.Rand, func(id string) bool { return s.recent(ctx, id) })
		chosen = &q
		usedFallback = true
		log.Warn().Str("id", q.ID).Msg("quotes: serving fallback quote")
	}

	if err := s.history.Add(ctx, chosen.ID); err != nil {
		log.Error().Err(err).Str("id", chosen.ID).Msg("quotes: record recent id")
	}

	key := cipher.GenerateKey(s.opts.Rand)
	return Result{
		Original:       chosen.Content,
		Encrypted:      cipher.Encode(chosen.Content, key),
		Author:         chosen.Author,
		Key:            key,
		ID:             chosen.ID,
		UpstreamStatus: status,
		UpstreamError:  lastErr,
		UsedFallback:   usedFallback,
	}
}

// insecureRetry issues the single relaxed-TLS request after a transport failure.
func (s *Source) insecureRetry(ctx context.Context, setStatus func(int)) (Quote, bool) {
	log.Warn().Msg("quotes: retrying upstream with TLS verification disabled")
	q, code, err := s.insecure.Random(ctx)
	setStatus(code)
	if err != nil {
		log.Warn().Err(err).Int("status", code).Msg("quotes: insecure retry failed")
		return Quote{}, false
	}
	if err := s.accept(ctx, q); err != nil {
		return Quote{}, false
	}
	return q, true
}

// accept returns ErrDuplicateQuote when q was served recently, or an error
// when it has nothing to play.
func (s *Source) accept(ctx context.Context, q Quote) error {
	if strings.TrimSpace(q.Content) == "" {
		return errors.New("quotes: empty content")
	}
	if s.recent(ctx, q.ID) {
		return ErrDuplicateQuote
	}
	return nil
}

// recent treats history failures as "not recent".
func (s *Source) recent(ctx context.Context, id string) bool {
	ok, err := s.history.Contains(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("quotes: check recent id")
		return false
	}
	return ok
}
