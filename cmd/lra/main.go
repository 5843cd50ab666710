// lra: WHT-accelerated linear regression analysis of side-channel traces
//
// Usage:
//
//	lra simulate --out traces.gob --key 2b7e151628aed2a6abf7158809cf4f3c --traces 5000
//	lra attack --traces traces.gob --config attack.yaml --report report.json
package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "lra",
		Short:         "Recover AES round key bytes with WHT-accelerated LRA",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.AddCommand(newAttackCmd(), newSimulateCmd())
	return root
}
