// Package simulate generates synthetic side-channel trace sets whose leakage
// follows the linear bit model of the S-box output, for testing and demos.
package simulate

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"lrawht/engine"
	"lrawht/sbox"
	"lrawht/traceset"
)

// Config describes a synthetic acquisition.
type Config struct {
	// Key is the secret per tile; one plaintext byte is stored per key byte.
	Key []byte
	// SampleLength is the trace length. Key byte i leaks at sample
	// LeakOffset + i*LeakStride (mod SampleLength).
	SampleLength int
	LeakOffset   int
	LeakStride   int
	// Traces per tile, split into records of at most BatchSize traces.
	Traces    int
	BatchSize int
	// Noise is the standard deviation of the additive Gaussian noise.
	Noise float64
	// Weighted draws a random weight per bit instead of Hamming-weight leakage.
	Weighted bool
	// Sweep makes plaintext byte i of trace n equal n + 17·i, so the first
	// 256 traces cover every value at every position.
	Sweep bool
	Seed  uint64
	Table *sbox.Table
}

func (c *Config) validate() error {
	switch {
	case len(c.Key) == 0:
		return errors.New("simulate: empty key")
	case c.SampleLength <= 0:
		return fmt.Errorf("simulate: invalid sample length %d", c.SampleLength)
	case c.Traces <= 0:
		return fmt.Errorf("simulate: invalid trace count %d", c.Traces)
	case c.Noise < 0:
		return fmt.Errorf("simulate: negative noise %v", c.Noise)
	}
	return nil
}

// Generate appends the traces of tile to set. The set's block size must match the key length.
func Generate(set *traceset.Set, tile engine.Tile, c Config) error {
	if err := c.validate(); err != nil {
		return err
	}
	h := set.Header()
	if h.BlockSize != len(c.Key) || h.SampleLength != c.SampleLength {
		return fmt.Errorf("simulate: set has block %d and %d samples, config has key of %d bytes and %d samples",
			h.BlockSize, h.SampleLength, len(c.Key), c.SampleLength)
	}
	table := c.Table
	if table == nil {
		table = &sbox.AES
	}
	batch := c.BatchSize
	if batch <= 0 {
		batch = c.Traces
	}

	src := rand.NewSource(c.Seed ^ uint64(tile.X)<<32 ^ uint64(tile.Y)<<16)
	rng := rand.New(src)
	noise := distuv.Normal{Mu: 0, Sigma: c.Noise, Src: src}
	weights := make([][8]float64, len(c.Key))
	for i := range weights {
		for b := range weights[i] {
			if c.Weighted {
				weights[i][b] = distuv.Uniform{Min: -1, Max: 1, Src: src}.Rand()
			} else {
				weights[i][b] = 1
			}
		}
	}

	block := len(c.Key)
	for done := 0; done < c.Traces; {
		rows := min(batch, c.Traces-done)
		rec := traceset.Record{
			Tile:      tile,
			Rows:      rows,
			Plaintext: make([]byte, rows*block),
			Samples:   make([]float64, rows*c.SampleLength),
		}
		for r := 0; r < rows; r++ {
			n := done + r
			pt := rec.Plaintext[r*block : (r+1)*block]
			trace := rec.Samples[r*c.SampleLength : (r+1)*c.SampleLength]
			for i := range pt {
				if c.Sweep {
					pt[i] = byte(n + 17*i)
				} else {
					pt[i] = byte(rng.Intn(256))
				}
			}
			if c.Noise > 0 {
				for j := range trace {
					trace[j] = noise.Rand()
				}
			}
			for i, k := range c.Key {
				at := ((c.LeakOffset+i*c.LeakStride)%c.SampleLength + c.SampleLength) % c.SampleLength
				trace[at] += leak(table.Out(pt[i], k), &weights[i])
			}
		}
		if err := set.Append(rec); err != nil {
			return err
		}
		done += rows
	}
	return nil
}

func leak(y byte, w *[8]float64) float64 {
	v := 0.0
	for b := 0; b < 8; b++ {
		v += w[b] * float64((y>>b)&1)
	}
	return v
}
