package lra

import (
	"lrawht/accum"
)

// Result is the outcome of scoring one key byte.
type Result struct {
	Byte     byte
	Peak     float64
	Peaks    []float64
	Observed int
	Traces   int
}

// Calculate turns the filled accumulators of one key byte into the winning hypothesis.
func (s *Scorer) Calculate(avg *accum.AverageTraces, variance *accum.Variance) (*Result, error) {
	sst, err := variance.SST()
	if err != nil {
		return nil, err
	}
	values, traces := avg.Data()
	r2, err := s.Score(values, traces, sst, variance.Count())
	if err != nil {
		return nil, err
	}
	peaks := Peaks(r2)
	b, peak := Best(peaks)
	return &Result{
		Byte:     b,
		Peak:     peak,
		Peaks:    peaks,
		Observed: len(values),
		Traces:   variance.Count(),
	}, nil
}
