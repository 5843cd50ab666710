// Package engine distributes key recovery over independent work units, one
// per (tile, key-byte position), and assembles the winning bytes into keys.
//
// Each unit opens its own container, streams its batches into private
// accumulators and scores them with the shared, immutable lra.Scorer. Units
// never share mutable state; the only synchronisation is the final join.
// There is no timeout: a stream that never ends blocks the run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"lrawht/accum"
	"lrawht/lra"
	"lrawht/sbox"
	"lrawht/utils"
)

// Options configures an Engine.
type Options struct {
	// Workers is the pool size; 0 selects DefaultWorkers.
	Workers int
	// Window selects the analysed samples.
	Window Window
	// BitWidth is the width of the bit model; 0 selects lra.MaxBitWidth.
	BitWidth int
}

// DefaultWorkers is half the available CPUs, leaving room for acquisition I/O.
func DefaultWorkers() int {
	if n := runtime.NumCPU() / 2; n > 0 {
		return n
	}
	return 1
}

// Engine runs LRA key recovery.
type Engine struct {
	scorer  *lra.Scorer
	window  Window
	workers int
	log     logrus.FieldLogger
}

// New returns an engine scoring hypotheses through table.
func New(table *sbox.Table, opts Options, log logrus.FieldLogger) (*Engine, error) {
	width := opts.BitWidth
	if width == 0 {
		width = lra.MaxBitWidth
	}
	scorer, err := lra.NewScorer(table, width)
	if err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{scorer: scorer, window: opts.Window, workers: workers, log: log}, nil
}

// Workers returns the pool size.
func (e *Engine) Workers() int { return e.workers }

// Task describes one unit of work. It carries no state beyond its identity.
type Task struct {
	Tile     Tile
	Position int
	Window   Window
}

// UnitResult is the outcome of one task.
type UnitResult struct {
	Tile     Tile
	Position int
	Byte     byte
	Peak     float64
	Traces   int
	Observed int
	Err      error

	OpenTime       time.Duration
	AccumulateTime time.Duration
	ScoreTime      time.Duration
}

// Result is the outcome of a run.
type Result struct {
	Keys   []RecoveredKey
	Units  []UnitResult
	Window Window
	Timing utils.TimingStats
}

// Err joins the errors of all failed units, or returns nil.
func (r *Result) Err() error {
	var errs []error
	for _, u := range r.Units {
		if u.Err != nil {
			errs = append(errs, u.Err)
		}
	}
	return errors.Join(errs...)
}

// Run recovers the key bytes at positions for every tile. A failing unit is
// reported in its UnitResult and does not stop the others; the returned
// error covers invalid arguments only.
func (e *Engine) Run(ctx context.Context, open Opener, tiles []Tile, positions []int) (*Result, error) {
	if err := checkLayout(tiles, positions); err != nil {
		return nil, err
	}
	start := time.Now()

	var tasks []Task
	for _, tile := range tiles {
		for _, pos := range positions {
			tasks = append(tasks, Task{Tile: tile, Position: pos, Window: e.window})
		}
	}
	e.log.WithFields(logrus.Fields{
		"tiles":     len(tiles),
		"positions": len(positions),
		"workers":   e.workers,
		"window":    e.window,
	}).Info("starting LRA run")

	// Every task writes its own slot, so no locking is needed.
	units := make([]UnitResult, len(tasks))
	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, task := range tasks {
		g.Go(func() error {
			units[i] = e.runTask(ctx, task, open)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Keys:   Assemble(tiles, positions, units),
		Units:  units,
		Window: e.window,
	}
	res.Timing.Workers = e.workers
	for _, u := range units {
		res.Timing.Add(u.OpenTime, u.AccumulateTime, u.ScoreTime, u.Traces, u.Err != nil)
	}
	res.Timing.TotalTime = time.Since(start)
	return res, nil
}

func checkLayout(tiles []Tile, positions []int) error {
	if len(tiles) == 0 {
		return errors.New("engine: no tiles")
	}
	if len(positions) == 0 {
		return errors.New("engine: no key byte positions")
	}
	seenTiles := make(map[Tile]bool, len(tiles))
	for _, t := range tiles {
		if seenTiles[t] {
			return fmt.Errorf("engine: duplicate tile %v", t)
		}
		seenTiles[t] = true
	}
	seen := make(map[int]bool, len(positions))
	for _, p := range positions {
		if p < 0 {
			return fmt.Errorf("engine: negative key byte position %d", p)
		}
		if seen[p] {
			return fmt.Errorf("engine: duplicate key byte position %d", p)
		}
		seen[p] = true
	}
	return nil
}

func (e *Engine) runTask(ctx context.Context, task Task, open Opener) UnitResult {
	res := UnitResult{Tile: task.Tile, Position: task.Position}
	log := e.log.WithFields(logrus.Fields{"tile": task.Tile, "position": task.Position})
	fail := func(err error) UnitResult {
		res.Err = &UnitError{Tile: task.Tile, Position: task.Position, Err: err}
		log.WithError(err).Warn("key byte recovery failed")
		return res
	}

	start := time.Now()
	c, err := open()
	if err != nil {
		return fail(fmt.Errorf("open container: %w", err))
	}
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}
	if err := c.Configure(task.Tile, []int{task.Position}); err != nil {
		return fail(fmt.Errorf("configure: %w", err))
	}
	lo, hi, err := task.Window.Bounds(c.SampleLength())
	if err != nil {
		return fail(err)
	}
	res.OpenTime = time.Since(start)

	start = time.Now()
	avg := accum.NewAverageTraces(lra.Hypotheses, hi-lo)
	variance := accum.NewVariance(hi - lo)
	for batch, err := range c.Batches(task.Tile) {
		if err != nil {
			return fail(fmt.Errorf("read batch: %w", err))
		}
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if err := update(batch, lo, hi, avg, variance); err != nil {
			return fail(err)
		}
	}
	res.AccumulateTime = time.Since(start)
	res.Traces = variance.Count()
	if res.Traces == 0 {
		return fail(accum.ErrNoObservations)
	}

	start = time.Now()
	score, err := e.scorer.Calculate(avg, variance)
	res.ScoreTime = time.Since(start)
	if err != nil {
		return fail(err)
	}
	res.Byte, res.Peak, res.Observed = score.Byte, score.Peak, score.Observed

	log.WithFields(logrus.Fields{
		"peak":     score.Peak,
		"traces":   score.Traces,
		"observed": score.Observed,
	}).Infof("Key Byte %d: %02x", task.Position, score.Byte)
	return res
}

// update folds one batch into the unit's accumulators.
func update(batch Batch, lo, hi int, avg *accum.AverageTraces, variance *accum.Variance) error {
	if batch.Traces == nil {
		if len(batch.Plaintext) == 0 {
			return nil
		}
		return fmt.Errorf("batch has %d plaintexts and no traces", len(batch.Plaintext))
	}
	rows, cols := batch.Traces.Dims()
	if rows != len(batch.Plaintext) {
		return fmt.Errorf("batch has %d plaintexts for %d traces", len(batch.Plaintext), rows)
	}
	if hi > cols {
		return fmt.Errorf("%w: batch traces have %d samples, window ends at %d", ErrWindow, cols, hi)
	}
	for i := 0; i < rows; i++ {
		t := batch.Traces.RawRowView(i)[lo:hi]
		if err := avg.AddTrace(int(batch.Plaintext[i]), t); err != nil {
			return err
		}
		if err := variance.Add(t); err != nil {
			return err
		}
	}
	return nil
}

// Export converts the result into its serialisable form.
func (r *Result) Export() *utils.RunReport {
	report := &utils.RunReport{Version: utils.ReportVersion, Window: r.Window.String()}
	byTile := make(map[Tile][]UnitResult)
	for _, u := range r.Units {
		byTile[u.Tile] = append(byTile[u.Tile], u)
	}
	for _, k := range r.Keys {
		units := byTile[k.Tile]
		sort.Slice(units, func(i, j int) bool { return units[i].Position < units[j].Position })
		kr := utils.KeyReport{TileX: k.Tile.X, TileY: k.Tile.Y, Key: k.Hex()}
		for _, u := range units {
			br := utils.ByteReport{
				Position:     u.Position,
				Peak:         u.Peak,
				Traces:       u.Traces,
				Observed:     u.Observed,
				OpenUS:       utils.DurationUS(u.OpenTime),
				AccumulateUS: utils.DurationUS(u.AccumulateTime),
				ScoreUS:      utils.DurationUS(u.ScoreTime),
			}
			if u.Err != nil {
				br.Error = u.Err.Error()
			} else {
				br.Value = fmt.Sprintf("%02x", u.Byte)
			}
			kr.Bytes = append(kr.Bytes, br)
		}
		report.Keys = append(report.Keys, kr)
	}
	return report
}
