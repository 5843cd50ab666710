// Package lra scores key-byte hypotheses with linear regression analysis.
// All 256 hypotheses are fitted at once per sample point by moving the
// regression into the Walsh-Hadamard domain, where the XOR between
// plaintext and key becomes an index shift.
package lra

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"lrawht/sbox"
)

// MaxBitWidth is the widest bit model supported for byte values.
const MaxBitWidth = 8

// ErrBitWidth is returned for bit widths outside [1, MaxBitWidth].
var ErrBitWidth = errors.New("lra: invalid bit width")

// SingleBits returns the regression model of x: one term per bit,
// least-significant first, followed by a constant 1 for the intercept.
func SingleBits(x byte, width int) ([]float64, error) {
	if width < 1 || width > MaxBitWidth {
		return nil, fmt.Errorf("%w: %d", ErrBitWidth, width)
	}
	model := make([]float64, width+1)
	for i := 0; i < width; i++ {
		model[i] = float64((x >> i) & 1)
	}
	model[width] = 1
	return model, nil
}

// ModelMatrix stacks the bit models of S-box(v ^ key) for each value, one row per value.
func ModelMatrix(values []byte, table *sbox.Table, key byte, width int) (*mat.Dense, error) {
	if len(values) == 0 {
		return nil, ErrInsufficientDiversity
	}
	m := mat.NewDense(len(values), width+1, nil)
	for i, v := range values {
		row, err := SingleBits(table.Out(v, key), width)
		if err != nil {
			return nil, err
		}
		m.SetRow(i, row)
	}
	return m, nil
}
