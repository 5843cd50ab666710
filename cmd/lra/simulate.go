package main

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	fasthex "github.com/tmthrgd/go-hex"

	"lrawht/engine"
	"lrawht/simulate"
	"lrawht/traceset"
)

func newSimulateCmd() *cobra.Command {
	var (
		out    string
		keyHex string
		tiles  int
		cfg    simulate.Config
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write a synthetic trace file with linear S-box leakage",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := fasthex.DecodeString(keyHex)
			if err != nil {
				return fmt.Errorf("invalid key: %w", err)
			}
			if tiles < 1 {
				return fmt.Errorf("tiles must be positive")
			}
			cfg.Key = key
			set := traceset.NewSet(cfg.SampleLength, len(key))
			for x := 0; x < tiles; x++ {
				tile := engine.Tile{X: x}
				if err := simulate.Generate(set, tile, cfg); err != nil {
					return err
				}
				log.WithField("tile", tile).Debug("tile generated")
			}
			if err := traceset.SaveFile(out, set); err != nil {
				return err
			}
			log.Infof("wrote %d traces x %d tiles to %s", cfg.Traces, tiles, out)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&out, "out", "traces.gob", "output trace file")
	f.StringVar(&keyHex, "key", "2b7e151628aed2a6abf7158809cf4f3c", "secret key (hex)")
	f.IntVar(&tiles, "tiles", 1, "number of tiles, all sharing the key")
	f.IntVar(&cfg.SampleLength, "samples", 64, "samples per trace")
	f.IntVar(&cfg.LeakOffset, "leak-offset", 8, "sample where key byte 0 leaks")
	f.IntVar(&cfg.LeakStride, "leak-stride", 2, "distance between leaking samples of consecutive key bytes")
	f.IntVar(&cfg.Traces, "traces", 5000, "traces per tile")
	f.IntVar(&cfg.BatchSize, "batch", 500, "traces per record")
	f.Float64Var(&cfg.Noise, "noise", 1.0, "noise standard deviation")
	f.BoolVar(&cfg.Weighted, "weighted", false, "random per-bit leakage weights instead of Hamming weight")
	f.BoolVar(&cfg.Sweep, "sweep", false, "sweep plaintext bytes instead of drawing them at random")
	f.Uint64Var(&cfg.Seed, "seed", 42, "random seed")
	return cmd
}
