package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"lrawht/engine"
	"lrawht/sbox"
	"lrawht/traceset"
	"lrawht/utils"
)

type attackOptions struct {
	traces     string
	configFile string
	positions  string
	workers    int
	start, end int
	report     string
	timing     bool
}

func newAttackCmd() *cobra.Command {
	opts := &attackOptions{}
	cmd := &cobra.Command{
		Use:   "attack",
		Short: "Run LRA over a recorded trace file",
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := opts.config(cmd)
			if err != nil {
				return err
			}
			return runAttack(cmd.Context(), opts, config)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.traces, "traces", "", "trace file written by 'lra simulate' or an acquisition tool")
	f.StringVar(&opts.configFile, "config", "", "YAML attack configuration")
	f.StringVar(&opts.positions, "positions", "", "key byte positions, e.g. 0-15 (overrides config)")
	f.IntVar(&opts.workers, "workers", 0, "worker pool size (0 = half the CPUs)")
	f.IntVar(&opts.start, "start", -1, "first sample of the analysed window")
	f.IntVar(&opts.end, "end", -1, "end of the analysed window (exclusive)")
	f.StringVar(&opts.report, "report", "", "write a JSON report to this file")
	f.BoolVar(&opts.timing, "timing", false, "print timing statistics")
	_ = cmd.MarkFlagRequired("traces")
	return cmd
}

// config merges the configuration file, the trace file header and flags.
func (o *attackOptions) config(cmd *cobra.Command) (*utils.Config, error) {
	if cmd.Flags().Changed("start") != cmd.Flags().Changed("end") {
		return nil, fmt.Errorf("--start and --end must be given together")
	}
	config := utils.DefaultConfig()
	if o.configFile != "" {
		var err error
		if config, err = utils.LoadConfig(o.configFile); err != nil {
			return nil, err
		}
	} else {
		// Without a config file attack every tile in the trace file.
		h, err := traceset.ReadHeader(o.traces)
		if err != nil {
			return nil, fmt.Errorf("failed to read trace file: %w", err)
		}
		config.Tiles = nil
		for _, t := range h.Tiles {
			config.Tiles = append(config.Tiles, utils.TileConfig{X: t.X, Y: t.Y})
		}
	}
	if o.positions != "" {
		p, err := utils.ParsePositions(o.positions)
		if err != nil {
			return nil, err
		}
		config.Positions = p
	}
	if cmd.Flags().Changed("workers") {
		config.Workers = o.workers
	}
	if cmd.Flags().Changed("start") {
		config.SampleStart, config.SampleEnd = &o.start, &o.end
	}
	if cmd.Flags().Changed("log-level") {
		config.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	if err := utils.ValidateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func runAttack(ctx context.Context, o *attackOptions, config *utils.Config) error {
	if lvl, err := log.ParseLevel(config.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	window := engine.FullRange()
	if config.SampleStart != nil {
		window = engine.Range(*config.SampleStart, *config.SampleEnd)
	}
	e, err := engine.New(&sbox.AES, engine.Options{
		Workers:  config.Workers,
		Window:   window,
		BitWidth: config.BitWidth,
	}, log.StandardLogger())
	if err != nil {
		return err
	}

	tiles := make([]engine.Tile, len(config.Tiles))
	for i, t := range config.Tiles {
		tiles[i] = engine.Tile{X: t.X, Y: t.Y}
	}

	res, err := e.Run(ctx, traceset.OpenFile(o.traces), tiles, config.Positions)
	if err != nil {
		return err
	}

	// Print recovered AES key(s)
	for _, k := range res.Keys {
		fmt.Printf("Recovered AES Key %v: %s\n", k.Tile, k.Hex())
	}

	utils.Verbose = o.timing
	utils.PrintTimingStats(&res.Timing)
	if o.report != "" {
		if err := utils.SaveReport(o.report, res.Export()); err != nil {
			return err
		}
		log.Infof("report written to %s", o.report)
	}
	return res.Err()
}
