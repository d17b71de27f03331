package assets

import (
	"embed"
	"encoding/json"
	"os"
)

//go:embed fallback.json
var FS embed.FS

// FallbackQuote is one entry of the built-in quote pool.
type FallbackQuote struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Author  string `json:"author"`
}

func decode(data []byte) ([]FallbackQuote, error) {
	var out []FallbackQuote
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FallbackQuotes returns the embedded pool.
func FallbackQuotes() ([]FallbackQuote, error) {
	data, err := FS.ReadFile("fallback.json")
	if err != nil {
		return nil, err
	}
	return decode(data)
}

// FallbackQuotesFile reads a pool with the same JSON shape from disk.
func FallbackQuotesFile(path string) ([]FallbackQuote, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return decode(data)
}
