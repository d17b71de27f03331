package quotes

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPoolEmbedded(t *testing.T) {
	p, err := LoadPool("")
	require.NoError(t, err)
	require.Equal(t, 4, p.Len())
	for _, q := range p.Quotes() {
		assert.Contains(t, q.ID, FallbackPrefix)
		assert.NotEmpty(t, q.Content)
	}
	assert.True(t, p.Contains("fallback-4"))
}

func TestLoadPoolFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"fallback-x","content":"Keep going"},
		{"id":"","content":"dropped"}
	]`), 0o644))

	p, err := LoadPool(path)
	require.NoError(t, err)
	require.Equal(t, 1, p.Len())
	assert.Equal(t, "Unknown", p.Quotes()[0].Author)
}

func TestNewPoolRejectsEmpty(t *testing.T) {
	_, err := NewPool(Quote{ID: "x"})
	assert.Error(t, err)
}

func TestPoolPick(t *testing.T) {
	p, err := NewPool(
		Quote{ID: "fallback-a", Content: "a"},
		Quote{ID: "fallback-b", Content: "b"},
	)
	require.NoError(t, err)
	r := rand.New(rand.NewPCG(9, 9))

	for i := 0; i < 20; i++ {
		q := p.Pick(r, func(id string) bool { return id == "fallback-a" })
		assert.Equal(t, "fallback-b", q.ID)
	}
	q := p.Pick(r, func(string) bool { return true })
	assert.True(t, p.Contains(q.ID))
}
