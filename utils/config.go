package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// TileConfig names one tile of the acquisition.
type TileConfig struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// Config holds attack configuration
type Config struct {
	Positions []int        `yaml:"positions"`
	Tiles     []TileConfig `yaml:"tiles"`
	// SampleStart and SampleEnd bound the analysed samples; both unset means the full trace.
	SampleStart *int   `yaml:"sample_start,omitempty"`
	SampleEnd   *int   `yaml:"sample_end,omitempty"`
	Workers     int    `yaml:"workers"`
	BitWidth    int    `yaml:"bit_width"`
	LogLevel    string `yaml:"log_level"`
}

// DefaultConfig returns the configuration for a single-tile AES-128 attack.
func DefaultConfig() *Config {
	positions := make([]int, 16)
	for i := range positions {
		positions[i] = i
	}
	return &Config{
		Positions: positions,
		Tiles:     []TileConfig{{X: 0, Y: 0}},
		BitWidth:  8,
		LogLevel:  "info",
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	config := DefaultConfig()
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return config, nil
}

// ParsePositions parses a key-byte position list such as "0-15", "0 3 5" or "0,2-4".
func ParsePositions(s string) ([]int, error) {
	parts := strings.Fields(strings.ReplaceAll(s, ",", " "))
	var positions []int
	for _, p := range parts {
		lo, hi, isRange := strings.Cut(p, "-")
		a, err := strconv.Atoi(lo)
		if err != nil {
			return nil, err
		}
		if !isRange {
			positions = append(positions, a)
			continue
		}
		b, err := strconv.Atoi(hi)
		if err != nil {
			return nil, err
		}
		if b < a {
			return nil, fmt.Errorf("invalid position range %q", p)
		}
		for i := a; i <= b; i++ {
			positions = append(positions, i)
		}
	}
	return positions, nil
}

// ValidateConfig validates attack configuration
func ValidateConfig(config *Config) error {
	if len(config.Positions) == 0 {
		return fmt.Errorf("at least one key byte position is required")
	}
	seen := map[int]bool{}
	for _, p := range config.Positions {
		if p < 0 {
			return fmt.Errorf("key byte position must be non-negative, got %d", p)
		}
		if seen[p] {
			return fmt.Errorf("duplicate key byte position %d", p)
		}
		seen[p] = true
	}

	if len(config.Tiles) == 0 {
		return fmt.Errorf("at least one tile is required")
	}
	tiles := map[TileConfig]bool{}
	for _, t := range config.Tiles {
		if tiles[t] {
			return fmt.Errorf("duplicate tile (%d,%d)", t.X, t.Y)
		}
		tiles[t] = true
	}

	if (config.SampleStart == nil) != (config.SampleEnd == nil) {
		return fmt.Errorf("sample_start and sample_end must be set together")
	}
	if config.SampleStart != nil {
		if *config.SampleStart < 0 || *config.SampleEnd <= *config.SampleStart {
			return fmt.Errorf("invalid sample range [%d, %d)", *config.SampleStart, *config.SampleEnd)
		}
	}

	if config.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if config.BitWidth < 1 || config.BitWidth > 8 {
		return fmt.Errorf("bit width must be between 1 and 8")
	}

	if _, err := logrus.ParseLevel(config.LogLevel); err != nil {
		return err
	}

	return nil
}
