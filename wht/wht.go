// Package wht implements the Walsh-Hadamard transform pair used to turn the
// XOR relation between plaintext and key hypothesis into a pointwise product.
//
// Forward computes H·x/n and Inverse computes H·x, so Inverse(Forward(x)) == x
// because H·H = n·I. The pointwise product of two forward transforms is the
// transform of their XOR-convolution.
package wht

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Size is the transform length used for byte-valued data.
const Size = 256

// ErrNotPowerOfTwo is returned for transform lengths that are not a power of two.
var ErrNotPowerOfTwo = errors.New("wht: length is not a power of two")

// Transform is a fixed-length transform pair. It holds no mutable state and
// is safe for concurrent use.
type Transform struct {
	n int
}

// New returns a transform of length n.
func New(n int) (*Transform, error) {
	if n < 1 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	return &Transform{n: n}, nil
}

// Len returns the transform length.
func (t *Transform) Len() int { return t.n }

// Forward writes H·src/n into dst. dst and src may alias.
func (t *Transform) Forward(dst, src []float64) {
	t.butterfly(dst, src)
	inv := 1 / float64(t.n)
	for i := range dst {
		dst[i] *= inv
	}
}

// Inverse writes H·src into dst. dst and src may alias.
func (t *Transform) Inverse(dst, src []float64) {
	t.butterfly(dst, src)
}

// butterfly is the unnormalised fast transform, O(n log n).
func (t *Transform) butterfly(dst, src []float64) {
	if len(dst) != t.n || len(src) != t.n {
		panic(fmt.Sprintf("wht: length mismatch: dst %d, src %d, transform %d", len(dst), len(src), t.n))
	}
	if &dst[0] != &src[0] {
		copy(dst, src)
	}
	for h := 1; h < t.n; h <<= 1 {
		for i := 0; i < t.n; i += h << 1 {
			for j := i; j < i+h; j++ {
				a, b := dst[j], dst[j+h]
				dst[j], dst[j+h] = a+b, a-b
			}
		}
	}
}

// Matrix returns the Sylvester-ordered Hadamard matrix of order n, with
// H[i][j] = (-1)^popcount(i&j). This ordering matches the butterfly.
func Matrix(n int) (*mat.Dense, error) {
	if n < 1 || n&(n-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrNotPowerOfTwo, n)
	}
	h := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if parity(i&j) == 0 {
				h.Set(i, j, 1)
			} else {
				h.Set(i, j, -1)
			}
		}
	}
	return h, nil
}

func parity(x int) int {
	p := 0
	for x != 0 {
		p ^= 1
		x &= x - 1
	}
	return p
}

// Dense is the reference transform pair computed by a full matrix-vector
// product. It is O(n²) and exists to validate Transform.
type Dense struct {
	h *mat.Dense
	n int
}

// NewDense returns the matrix form of the transform of length n.
func NewDense(n int) (*Dense, error) {
	h, err := Matrix(n)
	if err != nil {
		return nil, err
	}
	return &Dense{h: h, n: n}, nil
}

// Forward returns H·x/n.
func (d *Dense) Forward(x []float64) []float64 {
	out := d.Inverse(x)
	for i := range out {
		out[i] /= float64(d.n)
	}
	return out
}

// Inverse returns H·x.
func (d *Dense) Inverse(x []float64) []float64 {
	var v mat.VecDense
	v.MulVec(d.h, mat.NewVecDense(len(x), append([]float64(nil), x...)))
	return append([]float64(nil), v.RawVector().Data...)
}
