package cipher

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyIsPermutation(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		k := GenerateKey(r)
		require.True(t, k.Valid(), "key %d not a permutation: %s", i, k)
	}
	require.True(t, GenerateKey(nil).Valid())
}

func TestGenerateKeyDeterministicWithSeed(t *testing.T) {
	a := GenerateKey(rand.New(rand.NewPCG(7, 7)))
	b := GenerateKey(rand.New(rand.NewPCG(7, 7)))
	assert.Equal(t, a, b)
}

func TestGenerateKeyHitsEveryImage(t *testing.T) {
	// Over many draws each letter should land on each position at least once.
	r := rand.New(rand.NewPCG(42, 99))
	var hits [26][26]bool
	for i := 0; i < 5000; i++ {
		k := GenerateKey(r)
		for from, to := range k {
			hits[from][to-'a'] = true
		}
	}
	for from := range hits {
		for to := range hits[from] {
			assert.True(t, hits[from][to], "%c never mapped to %c", 'a'+from, 'a'+to)
		}
	}
}

func TestEncodePreservesCaseAndNonLetters(t *testing.T) {
	k := GenerateKey(rand.New(rand.NewPCG(3, 4)))
	out := Encode("AbC 123", k)

	require.Len(t, out, 7)
	assert.Equal(t, " 123", out[3:])
	assert.Equal(t, rune(k['a'-'a']-('a'-'A')), rune(out[0]))
	assert.Equal(t, rune(k['b'-'a']), rune(out[1]))
	assert.Equal(t, rune(k['c'-'a']-('a'-'A')), rune(out[2]))
}

func TestEncodeEmptyAndPassThrough(t *testing.T) {
	k := GenerateKey(nil)
	assert.Equal(t, "", Encode("", k))
	assert.Equal(t, "!? 42 — é", Encode("!? 42 — é", k))
}

func TestEncodeIncompleteKeyFallsBackToIdentity(t *testing.T) {
	var k Key
	k['a'-'a'] = 'z'
	assert.Equal(t, "Zbc ZB", Encode("Abc AB", k))
}

func TestInverseRoundTrip(t *testing.T) {
	k := GenerateKey(rand.New(rand.NewPCG(5, 6)))
	inv := k.Inverse()
	require.True(t, inv.Valid())

	text := "To be or not to be, that is the Question!"
	assert.Equal(t, text, Encode(Encode(text, k), inv))
}

func TestKeyJSON(t *testing.T) {
	k := GenerateKey(rand.New(rand.NewPCG(8, 9)))
	data, err := json.Marshal(k)
	require.NoError(t, err)

	var m map[string]string
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 26)
	assert.Equal(t, string(k[0]), m["a"])

	var back Key
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, k, back)
}

func TestKeyJSONRejectsNonPermutation(t *testing.T) {
	var k Key
	err := json.Unmarshal([]byte(`{"a":"b","b":"b"}`), &k)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
