package utils

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for one attack run. Unit times are
// summed over all work units, so they can exceed TotalTime when units run
// in parallel.
type TimingStats struct {
	TotalTime      time.Duration
	OpenTime       time.Duration
	AccumulateTime time.Duration
	ScoreTime      time.Duration
	Units          int
	FailedUnits    int
	Traces         int
	Workers        int
}

// Add folds the timings of one work unit into the stats.
func (s *TimingStats) Add(open, accumulate, score time.Duration, traces int, failed bool) {
	s.OpenTime += open
	s.AccumulateTime += accumulate
	s.ScoreTime += score
	s.Traces += traces
	s.Units++
	if failed {
		s.FailedUnits++
	}
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats) {
	if !Verbose {
		return
	}
	unitTime := stats.OpenTime + stats.AccumulateTime + stats.ScoreTime
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total run time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Workers: %d\n", stats.Workers)
	fmt.Fprintf(Output, "Units completed: %d (%d failed)\n", stats.Units, stats.FailedUnits)
	fmt.Fprintf(Output, "Traces processed: %d\n", stats.Traces)
	fmt.Fprintln(Output, "\nBreakdown by phase (summed over units):")
	fmt.Fprintf(Output, "  Open/configure: %v (%.1f%%)\n", stats.OpenTime, percent(stats.OpenTime, unitTime))
	fmt.Fprintf(Output, "  Accumulation: %v (%.1f%%)\n", stats.AccumulateTime, percent(stats.AccumulateTime, unitTime))
	fmt.Fprintf(Output, "  Scoring: %v (%.1f%%)\n", stats.ScoreTime, percent(stats.ScoreTime, unitTime))
	if stats.Units > 0 {
		fmt.Fprintln(Output, "\nPerformance metrics:")
		fmt.Fprintf(Output, "  Average unit time: %v\n", unitTime/time.Duration(stats.Units))
		fmt.Fprintf(Output, "  Average scoring time: %v\n", stats.ScoreTime/time.Duration(stats.Units))
	}
	if stats.AccumulateTime > 0 {
		fmt.Fprintf(Output, "  Accumulation rate: %.0f traces/s\n", float64(stats.Traces)/stats.AccumulateTime.Seconds())
	}
}

func percent(part, whole time.Duration) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
