package traceset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"lrawht/engine"
)

// ErrNotConfigured is returned when batches are requested before Configure.
var ErrNotConfigured = errors.New("traceset: container not configured")

// Batch extracts the plaintext column of position and the trace matrix.
// The trace matrix shares the record's sample storage.
func (r *Record) Batch(h *Header, position int) (engine.Batch, error) {
	if err := r.Check(h); err != nil {
		return engine.Batch{}, err
	}
	if position < 0 || position >= h.BlockSize {
		return engine.Batch{}, fmt.Errorf("position %d outside block of %d bytes", position, h.BlockSize)
	}
	pt := make([]byte, r.Rows)
	for i := range pt {
		pt[i] = r.Plaintext[i*h.BlockSize+position]
	}
	return engine.Batch{
		Plaintext: pt,
		Traces:    mat.NewDense(r.Rows, h.SampleLength, r.Samples),
	}, nil
}

// selection is the Configure state shared by the containers of this package.
// A container serves one key-byte position at a time.
type selection struct {
	header     *Header
	tile       engine.Tile
	position   int
	configured bool
}

func (s *selection) SampleLength() int { return s.header.SampleLength }

func (s *selection) Configure(tile engine.Tile, positions []int) error {
	if len(positions) != 1 {
		return fmt.Errorf("traceset: one position per container, got %d", len(positions))
	}
	if p := positions[0]; p < 0 || p >= s.header.BlockSize {
		return fmt.Errorf("traceset: position %d outside block of %d bytes", p, s.header.BlockSize)
	}
	found := false
	for _, t := range s.header.Tiles {
		if t == tile {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("traceset: unknown tile %v", tile)
	}
	s.tile, s.position, s.configured = tile, positions[0], true
	return nil
}

func (s *selection) check(tile engine.Tile) error {
	if !s.configured {
		return ErrNotConfigured
	}
	if tile != s.tile {
		return fmt.Errorf("traceset: configured for tile %v, asked for %v", s.tile, tile)
	}
	return nil
}
