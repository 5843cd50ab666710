package lra

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"lrawht/sbox"
	"lrawht/wht"
)

// Hypotheses is the number of key-byte candidates scored per sample point.
const Hypotheses = wht.Size

// Scorer computes R² surfaces for all key-byte hypotheses. It is immutable
// after construction and may be shared between goroutines.
type Scorer struct {
	table *sbox.Table
	width int
	tr    *wht.Transform
}

// NewScorer returns a scorer for the given S-box and bit model width.
func NewScorer(table *sbox.Table, width int) (*Scorer, error) {
	if width < 1 || width > MaxBitWidth {
		return nil, fmt.Errorf("%w: %d", ErrBitWidth, width)
	}
	tr, err := wht.New(Hypotheses)
	if err != nil {
		return nil, err
	}
	return &Scorer{table: table, width: width, tr: tr}, nil
}

// Basis returns the whitened regression basis U0 for hypothesis 0 over the observed values.
func (s *Scorer) Basis(values []byte) (*mat.Dense, error) {
	m, err := ModelMatrix(values, s.table, 0, s.width)
	if err != nil {
		return nil, err
	}
	return Whiten(m)
}

// Score returns the Hypotheses × sampleLength R² surface.
//
// values and traces are the observed data values and their mean traces,
// sst is the total sum of squares per sample point over all nTraces raw
// traces. Each sample column is centred on the mean over the observed
// values and unobserved values are zero in the transform domain, so a DC
// level in the traces never reaches SSR. The result is exact when all 256
// values are observed with equal counts. Sample points with sst == 0 score
// 0 for every hypothesis.
func (s *Scorer) Score(values []byte, traces [][]float64, sst []float64, nTraces int) (*mat.Dense, error) {
	if len(values) != len(traces) {
		return nil, fmt.Errorf("lra: %d values for %d traces", len(values), len(traces))
	}
	samples := len(sst)
	if samples == 0 {
		return nil, fmt.Errorf("lra: empty sample range")
	}
	for i, tr := range traces {
		if len(tr) != samples {
			return nil, fmt.Errorf("lra: trace for value %d has %d samples, want %d", values[i], len(tr), samples)
		}
	}

	u0, err := s.Basis(values)
	if err != nil {
		return nil, err
	}

	const n = Hypotheses
	rows, _ := u0.Dims()

	// Basis rows in the transform domain, computed once for all sample points.
	uw := make([][]float64, rows)
	for p := range uw {
		uw[p] = make([]float64, n)
		for idx, v := range values {
			uw[p][v] = u0.At(p, idx)
		}
		s.tr.Forward(uw[p], uw[p])
	}

	scale := float64(nTraces) / float64(len(values))
	r2 := mat.NewDense(n, samples, nil)
	col := make([]float64, n)
	wl := make([]float64, n)
	prod := make([]float64, n)
	ssr := make([]float64, n)

	for i := 0; i < samples; i++ {
		if sst[i] == 0 {
			continue
		}
		for k := range col {
			col[k] = 0
		}
		var mean float64
		for idx := range values {
			mean += traces[idx][i]
		}
		mean /= float64(len(values))
		for idx, v := range values {
			col[v] = traces[idx][i] - mean
		}
		s.tr.Forward(wl, col)

		for k := range ssr {
			ssr[k] = 0
		}
		// Row 0 is the intercept and carries only the mean.
		for p := 1; p < rows; p++ {
			floats.MulTo(prod, uw[p], wl)
			s.tr.Inverse(prod, prod)
			for k, c := range prod {
				c *= n
				ssr[k] += c * c
			}
		}
		for k := 0; k < n; k++ {
			r2.Set(k, i, scale*ssr[k]/sst[i])
		}
	}
	return r2, nil
}

// Peaks reduces an R² surface to the maximum over sample points for each hypothesis.
func Peaks(r2 *mat.Dense) []float64 {
	rows, _ := r2.Dims()
	peaks := make([]float64, rows)
	for k := range peaks {
		peaks[k] = floats.Max(r2.RawRowView(k))
	}
	return peaks
}

// Best returns the hypothesis with the largest peak. Ties go to the lowest index.
func Best(peaks []float64) (byte, float64) {
	k := floats.MaxIdx(peaks)
	return byte(k), peaks[k]
}
