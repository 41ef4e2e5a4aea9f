package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/viability/internal/breakeven"
	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/logging"
)

// newSimulator builds the fixed-seed simulator shared by the analysis commands
func newSimulator(cmd *cobra.Command) (*breakeven.EngineSimulator, error) {
	tables, err := loadTables()
	if err != nil {
		return nil, err
	}
	iterations, _ := cmd.Flags().GetInt("iterations")
	seed := seedFlag(cmd)
	logger.Info().Uint64("seed", seed).Int("iterations", iterations).Msg("Using fixed draws for every probe")

	return &breakeven.EngineSimulator{
		Tables:  tables,
		Options: calculation.Options{Iterations: iterations, Seed: seed, Workers: workersFlag(cmd)},
		Logger:  logging.NewAdapter(logger, "breakeven"),
	}, nil
}

func printAnalysis(cmd *cobra.Command, result any, table string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	if !asJSON {
		fmt.Fprint(cmd.OutOrStdout(), table)
		return nil
	}
	out, err := (&breakeven.JSONFormatter{Pretty: true}).Format(result)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func optimalAgeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimal-age [input-file]",
		Short: "Find the earliest retirement age that reaches the target probability",
		Long: `Search retirement ages between the current age (or --min-age) and --max-age for the
earliest one whose success probability reaches --target. Every probe uses the same seed.

Examples:
  viability optimal-age plan.yaml --target 0.9
  viability optimal-age plan.yaml --min-age 60 --max-age 72 --iterations 2000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams(cmd, args[0])
			if err != nil {
				return err
			}
			sim, err := newSimulator(cmd)
			if err != nil {
				return err
			}

			constraints := breakeven.DefaultConstraints()
			constraints.TargetProbability, _ = cmd.Flags().GetFloat64("target")
			constraints.MinRetirementAge, _ = cmd.Flags().GetInt("min-age")
			constraints.MaxRetirementAge, _ = cmd.Flags().GetInt("max-age")

			result, err := breakeven.NewSolver(sim, constraints).OptimalRetirementAge(context.Background(), params)
			if err != nil {
				return err
			}
			return printAnalysis(cmd, result, (&breakeven.TableFormatter{}).FormatOptimalAge(result))
		},
	}

	addRunFlags(cmd, 2000)
	addWhatIfFlags(cmd)
	cmd.Flags().Int("min-age", 0, "Earliest retirement age to consider (default: current age)")
	cmd.Flags().Int("max-age", 75, "Latest retirement age to consider")
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")

	return cmd
}

func gapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gap [input-file]",
		Short: "Rank plan changes by how much they raise the success probability",
		Long: `Re-simulate the household under each standard plan change (save more, buy
long-term-care cover, retire later, spend less, shift allocation) and rank them against
the target probability.

Examples:
  viability gap plan.yaml
  viability gap plan.yaml --target 0.9 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := loadParams(cmd, args[0])
			if err != nil {
				return err
			}
			sim, err := newSimulator(cmd)
			if err != nil {
				return err
			}
			target, _ := cmd.Flags().GetFloat64("target")

			ctx := context.Background()
			current, err := sim.Simulate(ctx, params)
			if err != nil {
				return err
			}

			analyzer := breakeven.NewGapAnalyzer(sim)
			analyzer.Logger = sim.Logger
			analysis, err := analyzer.Analyze(ctx, params, current, target)
			if err != nil {
				return err
			}
			return printAnalysis(cmd, analysis, (&breakeven.TableFormatter{}).FormatGap(analysis))
		},
	}

	addRunFlags(cmd, 2000)
	addWhatIfFlags(cmd)
	cmd.Flags().Bool("json", false, "Print JSON instead of a table")

	return cmd
}
