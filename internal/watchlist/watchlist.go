package watchlist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/findash/backend/internal/finance"
)

// Watchlist is the set of symbols whose scores are kept warm
type Watchlist struct {
	Name    string   `yaml:"name"`
	Symbols []string `yaml:"symbols"`
}

// ValidationError names the field that failed validation
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads a watchlist YAML file
// ⭐ SSOT: KnownFields(true)로 오타/미사용 필드 즉시 실패
func Load(path string) (*Watchlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist: %w", err)
	}

	wl, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("watchlist %s: %w", path, err)
	}
	return wl, nil
}

// Parse decodes and normalizes watchlist YAML. Symbols are upper-cased and
// de-duplicated, keeping first-seen order.
func Parse(data []byte) (*Watchlist, error) {
	var wl Watchlist
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&wl); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ValidationError{"symbols", "required"}
		}
		return nil, err
	}

	if err := wl.normalize(); err != nil {
		return nil, err
	}
	return &wl, nil
}

func (w *Watchlist) normalize() error {
	if len(w.Symbols) == 0 {
		return ValidationError{"symbols", "required"}
	}

	seen := make(map[string]bool, len(w.Symbols))
	symbols := make([]string, 0, len(w.Symbols))

	for i, raw := range w.Symbols {
		symbol, err := finance.NormalizeSymbol(raw)
		if err != nil {
			return ValidationError{fmt.Sprintf("symbols[%d]", i), err.Error()}
		}
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	}

	w.Symbols = symbols
	return nil
}
