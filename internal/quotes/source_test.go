package quotes

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/beauquote/internal/cipher"
)

func testPool(t *testing.T) *Pool {
	t.Helper()
	p, err := LoadPool("")
	require.NoError(t, err)
	return p
}

func newTestSource(t *testing.T, url string, h History) *Source {
	t.Helper()
	var prov *Provider
	if url != "" {
		prov = NewProvider(url, "", time.Second)
	}
	return NewSource(prov, testPool(t), h, Options{Rand: rand.New(rand.NewPCG(1, 1))})
}

func TestFetchAcceptsUpstreamQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"u1","content":"Be Here Now","author":"Ram Dass"}`))
	}))
	defer srv.Close()

	h := NewMemoryHistory(0)
	res := newTestSource(t, srv.URL, h).Fetch(context.Background())

	assert.False(t, res.UsedFallback)
	assert.Equal(t, "u1", res.ID)
	assert.Equal(t, "Be Here Now", res.Original)
	assert.Equal(t, "Ram Dass", res.Author)
	assert.True(t, res.Key.Valid())
	assert.Equal(t, cipher.Encode(res.Original, res.Key), res.Encrypted)
	require.NotNil(t, res.UpstreamStatus)
	assert.Equal(t, http.StatusOK, *res.UpstreamStatus)
	assert.Nil(t, res.UpstreamError)

	ids, _ := h.IDs(context.Background())
	assert.Equal(t, []string{"u1"}, ids)
}

func TestFetchSkipsRecentDuplicates(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		id := "dup"
		if n == 3 {
			id = "fresh"
		}
		_, _ = fmt.Fprintf(w, `{"_id":%q,"content":"quote %d","author":"A"}`, id, n)
	}))
	defer srv.Close()

	h := NewMemoryHistory(0)
	require.NoError(t, h.Add(context.Background(), "dup"))

	res := newTestSource(t, srv.URL, h).Fetch(context.Background())
	assert.Equal(t, "fresh", res.ID)
	assert.Equal(t, int32(3), calls.Load())
	assert.False(t, res.UsedFallback)
}

func TestFetchRetriesStatusErrorsUpToBound(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	res := newTestSource(t, srv.URL, NewMemoryHistory(0)).Fetch(context.Background())
	assert.Equal(t, int32(DefaultMaxAttempts), calls.Load())
	assert.True(t, res.UsedFallback)
	require.NotNil(t, res.UpstreamStatus)
	assert.Equal(t, http.StatusServiceUnavailable, *res.UpstreamStatus)
	assert.Contains(t, res.ID, FallbackPrefix)
}

func TestFetchStopsAfterTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := newTestSource(t, url, NewMemoryHistory(0)).Fetch(context.Background())
	assert.True(t, res.UsedFallback)
	assert.Nil(t, res.UpstreamStatus)
	require.NotNil(t, res.UpstreamError)
	assert.NotEmpty(t, *res.UpstreamError)
	assert.NotEmpty(t, res.Original)
	assert.True(t, res.Key.Valid())
}

func TestFetchInsecureRetryRecovers(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"_id":"tls","content":"Trust me","author":"Proxy"}`))
	}))
	defer srv.Close()

	// The default client does not trust the test certificate, so the first
	// request fails and the relaxed retry succeeds.
	src := NewSource(NewProvider(srv.URL, "", time.Second), testPool(t), NewMemoryHistory(0),
		Options{AllowInsecureRetry: true})
	res := src.Fetch(context.Background())

	assert.False(t, res.UsedFallback)
	assert.Equal(t, "tls", res.ID)
	require.NotNil(t, res.UpstreamError)
	require.NotNil(t, res.UpstreamStatus)
	assert.Equal(t, http.StatusOK, *res.UpstreamStatus)
}

func TestFetchWithoutInsecureRetryFallsBackOnTLSFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"_id":"tls","content":"Trust me","author":"Proxy"}`))
	}))
	defer srv.Close()

	res := newTestSource(t, srv.URL, NewMemoryHistory(0)).Fetch(context.Background())
	assert.True(t, res.UsedFallback)
	assert.Zero(t, calls.Load())
}

func TestFetchFallbackPrefersFreshPoolQuotes(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(0)
	pool := testPool(t)
	qs := pool.Quotes()
	for _, q := range qs[1:] {
		require.NoError(t, h.Add(ctx, q.ID))
	}

	res := newTestSource(t, "", h).Fetch(ctx)
	assert.True(t, res.UsedFallback)
	assert.Equal(t, qs[0].ID, res.ID)
}

func TestFetchFallbackAllRecentStillServes(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(0)
	for _, q := range testPool(t).Quotes() {
		require.NoError(t, h.Add(ctx, q.ID))
	}

	res := newTestSource(t, "", h).Fetch(ctx)
	assert.True(t, res.UsedFallback)
	assert.True(t, testPool(t).Contains(res.ID))
}

func TestFetchCancelledContextFallsBack(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := newTestSource(t, srv.URL, NewMemoryHistory(0)).Fetch(ctx)
	assert.True(t, res.UsedFallback)
	assert.Zero(t, calls.Load())
}

type brokenHistory struct{}

func (brokenHistory) Contains(context.Context, string) (bool, error) {
	return false, fmt.Errorf("down")
}
func (brokenHistory) Add(context.Context, string) error { return fmt.Errorf("down") }
func (brokenHistory) IDs(context.Context) ([]string, error) { return nil, fmt.Errorf("down") }

func TestFetchSurvivesHistoryErrors(t *testing.T) {
	res := newTestSource(t, "", brokenHistory{}).Fetch(context.Background())
	assert.True(t, res.UsedFallback)
	assert.NotEmpty(t, res.Original)
}
