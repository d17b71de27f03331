// internal/quotes/provider.go
//
// HTTP client for the upstream random-quote API.
//
// Contract:
//   GET {base}?tags={tags}&t={unix-ms}  → 2xx JSON {_id|id, content, author}
//
// Errors:
//   • *TransportError wraps ErrUpstreamTransport (dial, TLS, timeout, bad body).
//   • *StatusError    wraps ErrUpstreamStatus (non-2xx; body kept for logs).
//
// Insecure() builds a sibling client that skips certificate verification.
// It clones the transport instead of touching process-wide TLS settings.

package quotes

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultUpstreamURL = "https://api.quotable.io/random"
	DefaultTags        = "famous-quotes"

	maxBodyBytes = 64 << 10
)

var (
	ErrUpstreamTransport = errors.New("quotes: upstream transport failure")
	ErrUpstreamStatus    = errors.New("quotes: upstream returned non-2xx status")
	ErrDuplicateQuote    = errors.New("quotes: quote was served recently")
)

// TransportError is a network, TLS or decoding failure talking to upstream.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "upstream transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() []error {
	return []error{ErrUpstreamTransport, e.Err}
}

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string { return "upstream status " + strconv.Itoa(e.Code) }
func (e *StatusError) Unwrap() error { return ErrUpstreamStatus }

// Provider fetches one random quote per call.
type Provider struct {
	baseURL string
	tags    string
	client  *http.Client
	now     func() time.Time
}

// NewProvider builds a provider. Empty baseURL/tags use the defaults;
// a non-positive timeout means 8s.
func NewProvider(baseURL, tags string, timeout time.Duration) *Provider {
	if baseURL == "" {
		baseURL = DefaultUpstreamURL
	}
	if tags == "" {
		tags = DefaultTags
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	tr := http.DefaultTransport.(*http.Transport).Clone()
	return &Provider{
		baseURL: baseURL,
		tags:    tags,
		client:  &http.Client{Timeout: timeout, Transport: tr},
		now:     time.Now,
	}
}

// Insecure returns a copy of p whose transport skips TLS verification.
func (p *Provider) Insecure() *Provider {
	cp := *p
	var tr *http.Transport
	if base, ok := p.client.Transport.(*http.Transport); ok {
		tr = base.Clone()
	} else {
		tr = http.DefaultTransport.(*http.Transport).Clone()
	}
	if tr.TLSClientConfig == nil {
		tr.TLSClientConfig = &tls.Config{}
	}
	tr.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opt-in dev retry only
	cp.client = &http.Client{Timeout: p.client.Timeout, Transport: tr}
	return &cp
}

// requestURL adds the tags and a cache-busting timestamp to the base URL.
func (p *Provider) requestURL() (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("tags", p.tags)
	q.Set("t", strconv.FormatInt(p.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// upstreamQuote is the subset of the upstream payload we read.
type upstreamQuote struct {
	UnderscoreID string `json:"_id"`
	ID           any    `json:"id"`
	Content      string `json:"content"`
	Author       string `json:"author"`
}

// Random performs one request. status is the HTTP status when a response
// arrived, 0 otherwise.
func (p *Provider) Random(ctx context.Context) (q Quote, status int, err error) {
	target, err := p.requestURL()
	if err != nil {
		return Quote{}, 0, &TransportError{Err: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Quote{}, 0, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	res, err := p.client.Do(req)
	if err != nil {
		return Quote{}, 0, &TransportError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return Quote{}, res.StatusCode, &TransportError{Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Quote{}, res.StatusCode, &StatusError{Code: res.StatusCode, Body: string(body)}
	}

	q, err = parseQuote(body)
	if err != nil {
		return Quote{}, res.StatusCode, &TransportError{Err: err}
	}
	return q, res.StatusCode, nil
}

// parseQuote accepts a single object or a one-element array.
func parseQuote(body []byte) (Quote, error) {
	var uq upstreamQuote
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var list []upstreamQuote
		if err := json.Unmarshal(body, &list); err != nil {
			return Quote{}, fmt.Errorf("decode quote list: %w", err)
		}
		if len(list) == 0 {
			return Quote{}, errors.New("empty quote list")
		}
		uq = list[0]
	} else if err := json.Unmarshal(body, &uq); err != nil {
		return Quote{}, fmt.Errorf("decode quote: %w", err)
	}

	q := Quote{ID: uq.UnderscoreID, Content: uq.Content, Author: uq.Author}
	if q.ID == "" && uq.ID != nil {
		q.ID = strings.TrimSpace(fmt.Sprint(uq.ID))
	}
	if q.ID == "" {
		q.ID = q.Content
	}
	if q.Author == "" {
		q.Author = "Unknown"
	}
	return q, nil
}
