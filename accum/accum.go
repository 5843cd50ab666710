// Package accum provides the streaming accumulators filled while trace
// batches arrive: per-value running mean traces and the raw sums needed for
// the total variance at each sample point.
package accum

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
)

var (
	// ErrNoObservations is returned when statistics are requested before any trace was added.
	ErrNoObservations = errors.New("accum: no observations")
	// ErrTraceLength is returned when a trace does not match the accumulator length.
	ErrTraceLength = errors.New("accum: trace length mismatch")
	// ErrValueRange is returned for a data value outside [0, numValues).
	ErrValueRange = errors.New("accum: value out of range")
)

// AverageTraces keeps one running mean trace per data value. Memory is
// O(numValues × sampleLength) regardless of how many traces are added.
type AverageTraces struct {
	averages [][]float64
	counters []int
	length   int
}

// NewAverageTraces allocates an accumulator for numValues data values and traces of sampleLength samples.
func NewAverageTraces(numValues, sampleLength int) *AverageTraces {
	a := &AverageTraces{
		averages: make([][]float64, numValues),
		counters: make([]int, numValues),
		length:   sampleLength,
	}
	for i := range a.averages {
		a.averages[i] = make([]float64, sampleLength)
	}
	return a
}

// AddTrace folds trace into the running mean for value.
func (a *AverageTraces) AddTrace(value int, trace []float64) error {
	if value < 0 || value >= len(a.counters) {
		return fmt.Errorf("%w: %d", ErrValueRange, value)
	}
	if len(trace) != a.length {
		return fmt.Errorf("%w: got %d, want %d", ErrTraceLength, len(trace), a.length)
	}
	a.counters[value]++
	avg := a.averages[value]
	if a.counters[value] == 1 {
		copy(avg, trace)
		return nil
	}
	// avg += (trace - avg) / count
	inv := 1 / float64(a.counters[value])
	for i, t := range trace {
		avg[i] += (t - avg[i]) * inv
	}
	return nil
}

// Data returns the observed values in ascending order and their mean traces.
// Values never observed are left out. The returned traces alias the
// accumulator and must not be modified.
func (a *AverageTraces) Data() ([]byte, [][]float64) {
	var values []byte
	var traces [][]float64
	for v, c := range a.counters {
		if c > 0 {
			values = append(values, byte(v))
			traces = append(traces, a.averages[v])
		}
	}
	return values, traces
}

// Count returns the number of traces added for value.
func (a *AverageTraces) Count(value int) int {
	return a.counters[value]
}

// Observed returns the number of distinct values seen.
func (a *AverageTraces) Observed() int {
	n := 0
	for _, c := range a.counters {
		if c > 0 {
			n++
		}
	}
	return n
}

// SampleLength returns the trace length.
func (a *AverageTraces) SampleLength() int { return a.length }

// Variance accumulates the running sum u and sum of squares v of every trace.
type Variance struct {
	u, v []float64
	n    int
}

// NewVariance allocates a variance accumulator for traces of sampleLength samples.
func NewVariance(sampleLength int) *Variance {
	return &Variance{
		u: make([]float64, sampleLength),
		v: make([]float64, sampleLength),
	}
}

// Add folds trace into the sums.
func (s *Variance) Add(trace []float64) error {
	if len(trace) != len(s.u) {
		return fmt.Errorf("%w: got %d, want %d", ErrTraceLength, len(trace), len(s.u))
	}
	floats.Add(s.u, trace)
	for i, t := range trace {
		s.v[i] += t * t
	}
	s.n++
	return nil
}

// Count returns the number of traces added.
func (s *Variance) Count() int { return s.n }

// relativeZero is the fraction of Σt² below which sst is treated as rounding noise.
const relativeZero = 1e-12

// SST returns the total sum of squares v - u²/n per sample point. Sample
// points with no variance come back as exactly 0.
func (s *Variance) SST() ([]float64, error) {
	if s.n == 0 {
		return nil, ErrNoObservations
	}
	n := float64(s.n)
	sst := make([]float64, len(s.u))
	for i := range sst {
		d := s.v[i] - s.u[i]*s.u[i]/n
		if d <= relativeZero*s.v[i] {
			d = 0
		}
		sst[i] = d
	}
	return sst, nil
}
