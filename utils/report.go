package utils

import (
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// ReportVersion is written into every saved report.
const ReportVersion = "1.0"

// RunReport is the serialisable outcome of an attack run.
type RunReport struct {
	Version string      `json:"version"`
	Window  string      `json:"window"`
	Keys    []KeyReport `json:"keys"`
}

// KeyReport holds the recovered key of one tile.
type KeyReport struct {
	TileX int          `json:"tile_x"`
	TileY int          `json:"tile_y"`
	Key   string       `json:"key"`
	Bytes []ByteReport `json:"bytes"`
}

// ByteReport holds the outcome of one key-byte position.
type ByteReport struct {
	Position int     `json:"position"`
	Value    string  `json:"value,omitempty"`
	Peak     float64 `json:"peak"`
	Traces   int     `json:"traces"`
	Observed int     `json:"observed"`
	Error    string  `json:"error,omitempty"`

	OpenUS       float64 `json:"open_us"`
	AccumulateUS float64 `json:"accumulate_us"`
	ScoreUS      float64 `json:"score_us"`
}

// SaveReport saves a run report to a JSON file
func SaveReport(filepath string, report *RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadReport loads a run report from a JSON file
func LoadReport(filepath string) (*RunReport, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read report file: %w", err)
	}
	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}
