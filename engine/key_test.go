package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"lrawht/accum"
)

func TestAssembleOrdersByPosition(t *testing.T) {
	a, b := Tile{0, 0}, Tile{2, 1}
	units := []UnitResult{
		{Tile: b, Position: 2, Byte: 0xcc},
		{Tile: a, Position: 2, Byte: 0x03},
		{Tile: a, Position: 0, Byte: 0x01},
		{Tile: b, Position: 0, Byte: 0xaa},
		{Tile: a, Position: 1, Byte: 0x02},
		{Tile: b, Position: 1, Err: errors.New("boom")},
	}
	keys := Assemble([]Tile{b, a}, []int{2, 0, 1}, units)
	require.Len(t, keys, 2)

	assert.Equal(t, b, keys[0].Tile)
	assert.Equal(t, []int{0, 1, 2}, keys[0].Positions)
	assert.Equal(t, "aa??cc", keys[0].Hex())
	assert.False(t, keys[0].Complete())

	assert.Equal(t, a, keys[1].Tile)
	assert.Equal(t, []byte{1, 2, 3}, keys[1].Bytes)
	assert.Equal(t, "010203", keys[1].Hex())
	assert.True(t, keys[1].Complete())
}

func TestAssembleMarksMissingUnits(t *testing.T) {
	keys := Assemble([]Tile{{0, 0}}, []int{0, 1}, []UnitResult{{Tile: Tile{0, 0}, Position: 1, Byte: 0xff}})
	assert.Equal(t, "??ff", keys[0].Hex())
	var ue *UnitError
	require.True(t, errors.As(keys[0].Errors[0], &ue))
	assert.Equal(t, 0, ue.Position)
}

func TestWindowBounds(t *testing.T) {
	lo, hi, err := FullRange().Bounds(100)
	require.NoError(t, err)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 100, hi)
	assert.True(t, FullRange().IsFull())
	assert.Equal(t, "full", FullRange().String())

	lo, hi, err = Range(10, 20).Bounds(100)
	require.NoError(t, err)
	assert.Equal(t, 10, lo)
	assert.Equal(t, 20, hi)
	assert.False(t, Range(10, 20).IsFull())

	for _, w := range []Window{Range(-1, 5), Range(5, 5), Range(50, 101)} {
		_, _, err := w.Bounds(100)
		assert.ErrorIs(t, err, ErrWindow, w.String())
	}
	_, _, err = FullRange().Bounds(0)
	assert.ErrorIs(t, err, ErrWindow)
}

func TestUpdateChecksBatchShape(t *testing.T) {
	avg, variance := accum.NewAverageTraces(256, 2), accum.NewVariance(2)
	assert.NoError(t, update(Batch{}, 0, 2, avg, variance))
	assert.Error(t, update(Batch{Plaintext: []byte{1}}, 0, 2, avg, variance))
	assert.Error(t, update(Batch{Plaintext: []byte{1, 2}, Traces: mat.NewDense(1, 3, nil)}, 0, 2, avg, variance))
	assert.ErrorIs(t, update(Batch{Plaintext: []byte{1}, Traces: mat.NewDense(1, 1, nil)}, 0, 2, avg, variance), ErrWindow)

	require.NoError(t, update(Batch{Plaintext: []byte{7, 7}, Traces: mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})}, 1, 3, avg, variance))
	_, traces := avg.Data()
	assert.Equal(t, [][]float64{{3.5, 4.5}}, traces)
	assert.Equal(t, 2, variance.Count())
}
