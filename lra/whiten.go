package lra

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MaxCondition bounds the condition number of MᵀM accepted by Whiten.
const MaxCondition = 1e10

// ErrInsufficientDiversity is returned when the observed values do not span
// the bit model, e.g. too few distinct plaintext bytes.
var ErrInsufficientDiversity = errors.New("lra: insufficient observation diversity")

// Whiten orthonormalises the columns of the model matrix m, whose last
// column is the intercept. With L the Cholesky factor of MᵀM it solves
// L·U = Mᵀ, so that U·Uᵀ = I. The intercept is factorised first, which
// makes row 0 of U the normalised constant direction and rows 1..width the
// bit directions with the mean projected out.
func Whiten(m *mat.Dense) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if rows < cols {
		return nil, fmt.Errorf("%w: %d distinct values for %d model terms", ErrInsufficientDiversity, rows, cols)
	}

	// Move the intercept column to the front.
	mp := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		mp.Set(i, 0, m.At(i, cols-1))
		for j := 0; j < cols-1; j++ {
			mp.Set(i, j+1, m.At(i, j))
		}
	}

	var gram mat.SymDense
	gram.SymOuterK(1, mp.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&gram); !ok {
		return nil, fmt.Errorf("%w: model covariance is not positive definite", ErrInsufficientDiversity)
	}
	if c := chol.Cond(); c > MaxCondition {
		return nil, fmt.Errorf("%w: model covariance condition number %.3g", ErrInsufficientDiversity, c)
	}

	var l mat.TriDense
	chol.LTo(&l)

	var u mat.Dense
	if err := u.Solve(&l, mp.T()); err != nil {
		return nil, fmt.Errorf("%w: triangular solve: %v", ErrInsufficientDiversity, err)
	}
	return &u, nil
}
