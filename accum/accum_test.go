package accum

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncrementalMeanMatchesBatchMean(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	const length = 12
	acc := NewAverageTraces(256, length)

	sums := map[int][]float64{}
	counts := map[int]int{}
	for i := 0; i < 500; i++ {
		v := r.Intn(4) * 17
		trace := make([]float64, length)
		for j := range trace {
			trace[j] = r.NormFloat64()*3 + float64(v)
		}
		require.NoError(t, acc.AddTrace(v, trace))
		if sums[v] == nil {
			sums[v] = make([]float64, length)
		}
		for j := range trace {
			sums[v][j] += trace[j]
		}
		counts[v]++
	}

	values, traces := acc.Data()
	require.Len(t, values, len(sums))
	for i, v := range values {
		want := make([]float64, length)
		for j := range want {
			want[j] = sums[int(v)][j] / float64(counts[int(v)])
		}
		if diff := cmp.Diff(want, traces[i], cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("value %d mean mismatch (-batch +online):\n%s", v, diff)
		}
		assert.Equal(t, counts[int(v)], acc.Count(int(v)))
	}
}

func TestDataExcludesUnobserved(t *testing.T) {
	acc := NewAverageTraces(256, 2)
	require.NoError(t, acc.AddTrace(200, []float64{1, 2}))
	require.NoError(t, acc.AddTrace(3, []float64{3, 4}))
	require.NoError(t, acc.AddTrace(3, []float64{5, 6}))

	values, traces := acc.Data()
	assert.Equal(t, []byte{3, 200}, values)
	assert.Equal(t, [][]float64{{4, 5}, {1, 2}}, traces)
	assert.Equal(t, 2, acc.Observed())
	assert.Equal(t, 0, acc.Count(0))
}

func TestAddTraceErrors(t *testing.T) {
	acc := NewAverageTraces(256, 3)
	assert.True(t, errors.Is(acc.AddTrace(256, []float64{1, 2, 3}), ErrValueRange))
	assert.True(t, errors.Is(acc.AddTrace(-1, []float64{1, 2, 3}), ErrValueRange))
	assert.True(t, errors.Is(acc.AddTrace(0, []float64{1, 2}), ErrTraceLength))
	assert.Equal(t, 0, acc.Observed())
}

func TestSST(t *testing.T) {
	s := NewVariance(3)
	require.NoError(t, s.Add([]float64{1, 5, 2}))
	require.NoError(t, s.Add([]float64{3, 5, 4}))
	require.NoError(t, s.Add([]float64{5, 5, 9}))
	assert.Equal(t, 3, s.Count())

	sst, err := s.SST()
	require.NoError(t, err)
	// column 0: mean 3, deviations -2 0 2 -> 8; column 1 is constant
	want := []float64{8, 0, 26}
	if diff := cmp.Diff(want, sst, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("sst mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0.0, sst[1], "constant column must be exactly zero")
}

func TestSSTWithoutObservations(t *testing.T) {
	_, err := NewVariance(4).SST()
	assert.ErrorIs(t, err, ErrNoObservations)
	assert.ErrorIs(t, NewVariance(4).Add([]float64{1}), ErrTraceLength)
}
