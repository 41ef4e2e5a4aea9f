package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/viability/internal/logging"
	"github.com/rgehrsitz/viability/internal/output"
	"github.com/rgehrsitz/viability/internal/viability"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [input-file]",
		Short: "Run the Monte Carlo simulation for a household",
		Long: `Simulate a household and report its success probability, ending-balance
distribution, guardrail and long-term-care statistics. When the plan misses the
target, plan changes are ranked by how much they close the gap.

Examples:
  viability simulate plan.yaml
  viability simulate plan.yaml --iterations 20000 --seed 42 --format json
  viability simulate plan.yaml --template work_one_more_year --what-if reduce_expenses:percent=0.15
  viability simulate plan.yaml --traces 25 --traces-out trials.msgpack`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatName, _ := cmd.Flags().GetString("format")
			formatter := output.GetFormatterByName(formatName)
			if formatter == nil {
				return fmt.Errorf("unknown output format %q (valid: %s)",
					formatName, strings.Join(output.AvailableFormatterNames(), ", "))
			}

			params, err := loadParams(cmd, args[0])
			if err != nil {
				return err
			}
			tables, err := loadTables()
			if err != nil {
				return err
			}

			iterations, _ := cmd.Flags().GetInt("iterations")
			target, _ := cmd.Flags().GetFloat64("target")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			traces, _ := cmd.Flags().GetInt("traces")
			tracesOut, _ := cmd.Flags().GetString("traces-out")
			noGap, _ := cmd.Flags().GetBool("no-gap")
			noAge, _ := cmd.Flags().GetBool("no-optimal-age")
			maxAge, _ := cmd.Flags().GetInt("max-age")
			searchIterations, _ := cmd.Flags().GetInt("search-iterations")

			if traces > 0 && tracesOut == "" {
				return fmt.Errorf("--traces requires --traces-out")
			}

			seed := seedFlag(cmd)
			planner := viability.NewPlanner(tables)
			planner.SetLogger(logging.NewAdapter(logger, "planner"))

			start := time.Now()
			resp, err := planner.Run(context.Background(), viability.Request{
				Params:       params,
				Iterations:   iterations,
				Seed:         &seed,
				RetainTraces: traces,
				TimeBudget:   timeout,
				Options: viability.Options{
					Workers:           workersFlag(cmd),
					TargetProbability: target,
					SkipGapAnalysis:   noGap,
					SkipOptimalAge:    noAge,
					MaxRetirementAge:  maxAge,
					SearchIterations:  searchIterations,
				},
			})
			if err != nil {
				return err
			}
			logger.Info().
				Str("run_id", resp.Result.RunID).
				Uint64("seed", resp.Result.Seed).
				Dur("elapsed", time.Since(start)).
				Msg("Simulation complete")

			if tracesOut != "" {
				if err := output.SaveTraces(tracesOut, resp.Result.RunID, resp.Traces); err != nil {
					return fmt.Errorf("failed to save traces: %w", err)
				}
				logger.Info().Str("path", tracesOut).Int("trials", len(resp.Traces)).Msg("Traces written")
			}

			return output.WriteFormatted(cmd.OutOrStdout(), formatter, &output.Report{
				Params: params,
				Tables: tables,
				Result: resp.Result,
			})
		},
	}

	addRunFlags(cmd, viability.DefaultIterations)
	addWhatIfFlags(cmd)
	cmd.Flags().StringP("format", "f", "console", "Output format (console, console-lite, json, csv)")
	cmd.Flags().Duration("timeout", 0, "Time budget for the whole run, e.g. 30s (default: none)")
	cmd.Flags().Int("traces", 0, "Number of per-trial traces to retain")
	cmd.Flags().String("traces-out", "", "File to write retained traces to (msgpack)")
	cmd.Flags().Bool("no-gap", false, "Skip gap analysis")
	cmd.Flags().Bool("no-optimal-age", false, "Skip the optimal-retirement-age search")
	cmd.Flags().Int("max-age", 75, "Latest retirement age the search considers")
	cmd.Flags().Int("search-iterations", 0, "Trials per re-simulation in gap analysis and the age search (default: --iterations)")

	return cmd
}
