package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/quantmesh/metaperception/internal/override"
	"github.com/quantmesh/metaperception/internal/perception"
)

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Execute one perception cycle from a JSON input fixture",
		Long:  "Reads a perception input (market_data, features, recent_decisions) from a JSON file, runs a single cycle, and prints the decision. Useful for replay and audit.",
		RunE:  runStep,
	}
	cmd.Flags().String("input", "", "Path to the JSON input fixture (required)")
	cmd.Flags().String("prev-state", "", "Optional path to a prior state JSON for delta computation")
	cmd.Flags().Bool("full", false, "Print the full snapshot instead of just the decision")
	cmd.MarkFlagRequired("input")
	return cmd
}

func runStep(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	inputPath, _ := cmd.Flags().GetString("input")
	prevPath, _ := cmd.Flags().GetString("prev-state")
	full, _ := cmd.Flags().GetBool("full")

	var in perception.Input
	if err := readJSON(inputPath, &in); err != nil {
		return fmt.Errorf("load input: %w", err)
	}
	if in.Timestamp.IsZero() {
		in.Timestamp = time.Now().UTC()
	}

	var prev *perception.State
	if prevPath != "" {
		var st perception.State
		if err := readJSON(prevPath, &st); err != nil {
			return fmt.Errorf("load prior state: %w", err)
		}
		prev = &st
	}

	engine := perception.NewEngine(cfg)
	state, out := engine.Step(prev, in)

	if rec, blocked := override.NewDetector().Inspect(out, cfg); blocked {
		log.Warn().
			Str("trigger", string(rec.Trigger)).
			Int("prevented_trades", rec.PreventedTrades).
			Msg("decision blocked")
	}

	var payload any = out.Decision
	if full {
		payload = out.Snapshot
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		return err
	}

	log.Info().
		Bool("should_act", state.ShouldAct).
		Float64("uncertainty", state.TotalUncertainty).
		Dur("compute_time", out.ComputeTime).
		Msg("cycle complete")
	return nil
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}
