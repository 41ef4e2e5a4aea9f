package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/compare"
	"github.com/rgehrsitz/viability/internal/logging"
	"github.com/rgehrsitz/viability/internal/transform"
)

func compareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [input-file]",
		Short: "Compare a household against built-in what-if templates",
		Long: `Compare the household as entered against alternative plans built from templates.
Every scenario runs on the same seed, so differences come from the plan, not the draws.

Examples:
  viability compare plan.yaml --with work_one_more_year,delay_ss_70
  viability compare plan.yaml --with lean_retirement,save_more --format csv
  viability compare --list-templates`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listTemplates, _ := cmd.Flags().GetBool("list-templates")
			if listTemplates {
				fmt.Fprint(cmd.OutOrStdout(), transform.GetTemplateHelp(transform.CreateBuiltInTemplates()))
				return nil
			}

			if len(args) == 0 {
				return fmt.Errorf("input file required for comparison (use --list-templates to see available templates)")
			}

			templatesStr, _ := cmd.Flags().GetString("with")
			templateNames := transform.ParseTemplateList(templatesStr)
			if len(templateNames) == 0 {
				return fmt.Errorf("--with flag is required to specify templates to compare (or use --list-templates)")
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
			baseName, _ := cmd.Flags().GetString("base")
			outputFormat, _ := cmd.Flags().GetString("format")

			engine := compare.NewCompareEngine(tables, calculation.Options{
				Iterations: iterations,
				Seed:       seedFlag(cmd),
				Workers:    workersFlag(cmd),
			})
			engine.Logger = logging.NewAdapter(logger, "compare")

			comparisonSet, err := engine.Compare(context.Background(), params, compare.CompareOptions{
				BaseScenarioName: baseName,
				Templates:        templateNames,
			})
			if err != nil {
				return fmt.Errorf("comparison failed: %w", err)
			}
			comparisonSet.ConfigPath = args[0]

			out := cmd.OutOrStdout()
			switch strings.ToLower(outputFormat) {
			case "csv":
				s, err := (&compare.CSVFormatter{}).Format(comparisonSet)
				if err != nil {
					return fmt.Errorf("failed to format CSV: %w", err)
				}
				fmt.Fprint(out, s)
			case "json":
				s, err := (&compare.JSONFormatter{Pretty: true}).Format(comparisonSet)
				if err != nil {
					return fmt.Errorf("failed to format JSON: %w", err)
				}
				fmt.Fprintln(out, s)
			case "compact":
				fmt.Fprintln(out, (&compare.TableFormatter{}).FormatCompact(comparisonSet))
			case "table", "console", "":
				fmt.Fprint(out, (&compare.TableFormatter{}).Format(comparisonSet))
			default:
				return fmt.Errorf("unknown output format: %s (valid: table, compact, csv, json)", outputFormat)
			}
			return nil
		},
	}

	cmd.Flags().IntP("iterations", "n", 2000, "Number of Monte Carlo trials per scenario")
	cmd.Flags().Uint64("seed", 0, "Master seed shared by every scenario (default: random)")
	cmd.Flags().IntP("workers", "w", 0, "Worker goroutines (default: VIABILITY_WORKERS or CPU count)")
	cmd.Flags().String("base", "base", "Label for the household as entered")
	cmd.Flags().String("with", "", "Comma-separated list of templates to compare")
	cmd.Flags().StringP("format", "f", "table", "Output format (table, compact, csv, json)")
	cmd.Flags().Bool("list-templates", false, "List all available templates")

	return cmd
}
