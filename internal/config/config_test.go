package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	c, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, 10, c.MaxAttempts)
	assert.Equal(t, 25, c.RecentLimit)
	assert.Equal(t, 8*time.Second, c.HTTPTimeout)
	assert.Equal(t, "famous-quotes", c.UpstreamTags)
	assert.False(t, c.AllowInsecureRetry)
	assert.False(t, c.InsecureRetry())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("QUOTES_MAX_ATTEMPTS", "3")
	t.Setenv("QUOTES_HTTP_TIMEOUT", "250ms")
	t.Setenv("QUOTES_ALLOW_INSECURE_RETRY", "true")

	c, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, 3, c.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, c.HTTPTimeout)
	assert.True(t, c.InsecureRetry())

	t.Setenv("APP_ENV", "production")
	c, err = Parse()
	require.NoError(t, err)
	assert.False(t, c.InsecureRetry(), "relaxed TLS must stay off in production")
}

func TestParseRejectsBadValues(t *testing.T) {
	t.Setenv("QUOTES_MAX_ATTEMPTS", "0")
	_, err := Parse()
	assert.Error(t, err)

	t.Setenv("QUOTES_MAX_ATTEMPTS", "nope")
	_, err = Parse()
	assert.Error(t, err)
}
