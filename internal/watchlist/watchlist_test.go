package watchlist

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	wl, err := Parse([]byte(`
name: core
symbols:
  - ibm
  - " msft "
  - IBM
  - brk.b
`))
	require.NoError(t, err)

	assert.Equal(t, "core", wl.Name)
	assert.Equal(t, []string{"IBM", "MSFT", "BRK.B"}, wl.Symbols)
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantField string
	}{
		{"empty document", ``, "symbols"},
		{"no symbols", "name: core\n", "symbols"},
		{"blank symbol", "symbols: [IBM, '  ']\n", "symbols[1]"},
		{"malformed symbol", "symbols: ['IBM MSFT']\n", "symbols[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)

			var verr ValidationError
			require.True(t, errors.As(err, &verr), "got %v", err)
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse([]byte("symbol: [IBM]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field symbol not found")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("symbols: [aapl, nvda]\n"), 0o644))

	wl, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA"}, wl.Symbols)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "read watchlist")
}
