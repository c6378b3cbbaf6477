package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	appName = "metaperception"
	version = "v1.3.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Meta-perception engine for market-state fusion",
		Version: version,
		Long: `Meta-Perception Engine

Fuses independent market-state measurements (entropy, noise, participant
intent, reflexivity, shocks, regime stress) into a single immutable perception
state and a bounded, explainable should-act decision, once per cycle.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML configuration (defaults apply when empty)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newStepCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
