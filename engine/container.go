package engine

import (
	"errors"
	"fmt"
	"iter"

	"gonum.org/v1/gonum/mat"
)

// Tile is a physical partition of the acquisition space with its own key.
type Tile struct {
	X, Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}

// Batch is one chunk of observations for a configured key-byte position:
// row i of Traces was measured with plaintext byte Plaintext[i].
type Batch struct {
	Plaintext []byte
	Traces    *mat.Dense
}

// Container is the acquisition collaborator a work unit streams from.
type Container interface {
	// SampleLength is the number of samples in every trace.
	SampleLength() int
	// Configure selects the tile and key-byte positions to emit. It is
	// called once per unit before Batches.
	Configure(tile Tile, positions []int) error
	// Batches returns a lazy, finite sequence of batches for tile. The
	// sequence is consumed once.
	Batches(tile Tile) iter.Seq2[Batch, error]
}

// Opener returns a fresh container. Every work unit opens its own, so
// containers never need to be safe for concurrent use.
type Opener func() (Container, error)

// ErrWindow is returned for a sample window that does not fit the traces.
var ErrWindow = errors.New("engine: invalid sample window")

// Window selects the samples under analysis: either the full trace or a
// half-open range [Start, End).
type Window struct {
	start, end int
	set        bool
}

// FullRange analyses every sample of the trace.
func FullRange() Window { return Window{} }

// Range analyses samples [start, end).
func Range(start, end int) Window {
	return Window{start: start, end: end, set: true}
}

// IsFull reports whether w covers the whole trace.
func (w Window) IsFull() bool { return !w.set }

// Bounds resolves w against a trace of sampleLength samples.
func (w Window) Bounds(sampleLength int) (int, int, error) {
	if !w.set {
		if sampleLength <= 0 {
			return 0, 0, fmt.Errorf("%w: trace has %d samples", ErrWindow, sampleLength)
		}
		return 0, sampleLength, nil
	}
	if w.start < 0 || w.end <= w.start || w.end > sampleLength {
		return 0, 0, fmt.Errorf("%w: [%d, %d) for %d samples", ErrWindow, w.start, w.end, sampleLength)
	}
	return w.start, w.end, nil
}

func (w Window) String() string {
	if !w.set {
		return "full"
	}
	return fmt.Sprintf("[%d,%d)", w.start, w.end)
}
