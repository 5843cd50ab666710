package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositions(t *testing.T) {
	tests := map[string][]int{
		"0-3":     {0, 1, 2, 3},
		"0 3 5":   {0, 3, 5},
		"0,2-4,9": {0, 2, 3, 4, 9},
		"7":       {7},
	}
	for in, want := range tests {
		got, err := ParsePositions(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"a", "3-1", "1-x"} {
		_, err := ParsePositions(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateConfig(t *testing.T) {
	ok := DefaultConfig()
	require.NoError(t, ValidateConfig(ok))
	assert.Len(t, ok.Positions, 16)

	start, end := 10, 5
	tests := map[string]func(c *Config){
		"no positions":     func(c *Config) { c.Positions = nil },
		"duplicate pos":    func(c *Config) { c.Positions = []int{1, 1} },
		"negative pos":     func(c *Config) { c.Positions = []int{-1} },
		"no tiles":         func(c *Config) { c.Tiles = nil },
		"duplicate tile":   func(c *Config) { c.Tiles = []TileConfig{{1, 2}, {1, 2}} },
		"half range":       func(c *Config) { c.SampleStart = &start },
		"inverted range":   func(c *Config) { c.SampleStart, c.SampleEnd = &start, &end },
		"negative workers": func(c *Config) { c.Workers = -2 },
		"bit width":        func(c *Config) { c.BitWidth = 9 },
		"log level":        func(c *Config) { c.LogLevel = "loud" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			mutate(c)
			assert.Error(t, ValidateConfig(c))
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attack.yaml")
	data := `
positions: [0, 1, 2]
tiles:
  - {x: 0, y: 0}
  - {x: 1, y: 0}
sample_start: 100
sample_end: 400
workers: 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, c.Positions)
	assert.Equal(t, []TileConfig{{0, 0}, {1, 0}}, c.Tiles)
	require.NotNil(t, c.SampleStart)
	assert.Equal(t, 100, *c.SampleStart)
	assert.Equal(t, 400, *c.SampleEnd)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, 8, c.BitWidth, "unset fields keep defaults")
	require.NoError(t, ValidateConfig(c))

	require.NoError(t, os.WriteFile(path, []byte("unknown_field: 1\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
