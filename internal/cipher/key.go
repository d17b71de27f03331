// internal/cipher/key.go
//
// Monoalphabetic substitution keys for the puzzle.
// Responsibilities:
//   - Generate a uniformly random permutation of a–z (Fisher–Yates).
//   - Encode text under a key, preserving case and non-letters.
//   - Invert keys and (de)serialize them as {"a":"q",...} objects.
//
// The cipher is a toy for the game; it is not meant to protect anything.

package cipher

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"sort"
	"strings"
)

const alphabet = "abcdefghijklmnopqrstuvwxyz"

// ErrInvalidKey is returned when a mapping is not a permutation of a–z.
var ErrInvalidKey = errors.New("cipher: key is not a permutation of a-z")

// Key maps 'a'+i to Key[i]. A zero entry means "unmapped".
type Key [26]byte

// GenerateKey returns a random permutation of the alphabet.
// A nil r uses the package-level math/rand/v2 source.
func GenerateKey(r *rand.Rand) Key {
	var k Key
	copy(k[:], alphabet)
	intN := rand.IntN
	if r != nil {
		intN = r.IntN
	}
	for i := len(k) - 1; i > 0; i-- {
		j := intN(i + 1)
		k[i], k[j] = k[j], k[i]
	}
	return k
}

// Encode applies k to every ASCII letter of text.
// Uppercase letters stay uppercase; everything else passes through untouched.
func Encode(text string, k Key) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		b.WriteRune(k.apply(r))
	}
	return b.String()
}

func (k Key) apply(r rune) rune {
	upper := false
	switch {
	case r >= 'a' && r <= 'z':
	case r >= 'A' && r <= 'Z':
		upper = true
		r += 'a' - 'A'
	default:
		return r
	}
	m := rune(k[r-'a'])
	if m == 0 {
		m = r
	}
	if upper {
		m -= 'a' - 'A'
	}
	return m
}

// Valid reports whether k is a bijection over a–z.
func (k Key) Valid() bool {
	var seen [26]bool
	for _, c := range k {
		if c < 'a' || c > 'z' || seen[c-'a'] {
			return false
		}
		seen[c-'a'] = true
	}
	return true
}

// Inverse returns the permutation that undoes k.
// Entries of an invalid key that do not map to a letter stay unmapped.
func (k Key) Inverse() Key {
	var inv Key
	for i, c := range k {
		if c >= 'a' && c <= 'z' {
			inv[c-'a'] = alphabet[i]
		}
	}
	return inv
}

// Map returns the key as letter -> letter strings, the shape clients expect.
func (k Key) Map() map[string]string {
	m := make(map[string]string, len(k))
	for i, c := range k {
		if c != 0 {
			m[string(alphabet[i])] = string(c)
		}
	}
	return m
}

// String renders the key as "a→q b→x ..." in alphabet order.
func (k Key) String() string {
	m := k.Map()
	letters := make([]string, 0, len(m))
	for l := range m {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	parts := make([]string, 0, len(letters))
	for _, l := range letters {
		parts = append(parts, l+"→"+m[l])
	}
	return strings.Join(parts, " ")
}

func (k Key) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Map())
}

// UnmarshalJSON accepts {"a":"q",...} and rejects anything but a full permutation.
func (k *Key) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	var out Key
	for from, to := range m {
		if len(from) != 1 || len(to) != 1 || from[0] < 'a' || from[0] > 'z' {
			return ErrInvalidKey
		}
		out[from[0]-'a'] = to[0]
	}
	if !out.Valid() {
		return ErrInvalidKey
	}
	*k = out
	return nil
}
