package main

import (
	"fmt"
	"math/rand/v2"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rgehrsitz/viability/internal/config"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/logging"
	"github.com/rgehrsitz/viability/internal/transform"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// shared by subcommands, set in the root pre-run hook
var (
	env    *config.Env
	logger zerolog.Logger
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "viability %s (commit %s, built %s)\n", version, commit, date)
			if info := buildInfo(); info != "" {
				fmt.Fprintln(cmd.OutOrStdout(), info)
			}
		},
	}
}

func buildInfo() string {
	if bi, ok := debug.ReadBuildInfo(); ok && bi != nil {
		return bi.String()
	}
	return ""
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "viability",
		Short: "Retirement viability Monte Carlo CLI",
		Long: `Stochastic retirement-viability engine: simulates thousands of market, inflation,
mortality and long-term-care paths for a household and reports the probability that
its savings last, with gap analysis and an optimal-retirement-age search.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			env = config.LoadEnv()

			level := env.LogLevel
			if cmd.Flags().Changed("log-level") {
				level, _ = cmd.Flags().GetString("log-level")
			}
			pretty := env.PrettyLog
			if cmd.Flags().Changed("pretty-log") {
				pretty, _ = cmd.Flags().GetBool("pretty-log")
			}
			if cmd.Flags().Changed("tables") {
				env.Tables, _ = cmd.Flags().GetString("tables")
			}

			logger = logging.New(logging.Config{Level: level, Pretty: pretty, Out: cmd.ErrOrStderr()})
			return nil
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("pretty-log", true, "Human-readable log output on stderr")
	rootCmd.PersistentFlags().String("tables", "", "Tables YAML overriding the embedded defaults")

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(optimalAgeCmd())
	rootCmd.AddCommand(gapCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(tablesCmd())
	rootCmd.AddCommand(exampleCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// loadTables returns the embedded tables or the override file
func loadTables() (*domain.Tables, error) {
	if env != nil && env.Tables != "" {
		logger.Debug().Str("path", env.Tables).Msg("Loading tables override")
		return config.LoadTables(env.Tables)
	}
	return config.DefaultTables()
}

// loadParams reads the household file and applies --template and --what-if changes in
// that order
func loadParams(cmd *cobra.Command, path string) (*domain.SimulationParameters, error) {
	params, err := config.NewInputParser().LoadFromFile(path)
	if err != nil {
		return nil, err
	}

	var transforms []transform.ScenarioTransform

	if cmd.Flags().Lookup("template") != nil {
		names, _ := cmd.Flags().GetString("template")
		templates := transform.CreateBuiltInTemplates()
		for _, name := range transform.ParseTemplateList(names) {
			t, ok := templates.Get(name)
			if !ok {
				return nil, fmt.Errorf("unknown template %q (see `viability templates`)", name)
			}
			transforms = append(transforms, t.Transforms...)
		}
	}

	if cmd.Flags().Lookup("what-if") != nil {
		specs, _ := cmd.Flags().GetStringArray("what-if")
		registry := transform.NewTransformRegistry()
		for _, spec := range specs {
			t, err := registry.ParseTransformSpec(spec)
			if err != nil {
				return nil, fmt.Errorf("--what-if %s: %w", spec, err)
			}
			transforms = append(transforms, t)
		}
	}

	if len(transforms) == 0 {
		return params, nil
	}

	names := make([]string, len(transforms))
	for i, t := range transforms {
		names[i] = t.Name()
	}
	logger.Info().Str("transforms", strings.Join(names, ",")).Msg("Applying what-if changes")

	return transform.ApplyTransforms(params, transforms)
}

// seedFlag returns the --seed value, or a fresh seed when the flag is unset
func seedFlag(cmd *cobra.Command) uint64 {
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetUint64("seed")
		return seed
	}
	return rand.Uint64()
}

// workersFlag returns --workers, falling back to VIABILITY_WORKERS
func workersFlag(cmd *cobra.Command) int {
	if cmd.Flags().Changed("workers") {
		w, _ := cmd.Flags().GetInt("workers")
		return w
	}
	if env != nil {
		return env.Workers
	}
	return 0
}

func addRunFlags(cmd *cobra.Command, iterations int) {
	cmd.Flags().IntP("iterations", "n", iterations, "Number of Monte Carlo trials")
	cmd.Flags().Uint64("seed", 0, "Master seed (default: random, reported in the output)")
	cmd.Flags().IntP("workers", "w", 0, "Worker goroutines (default: VIABILITY_WORKERS or CPU count)")
	cmd.Flags().Float64("target", 0.85, "Target success probability")
}

func addWhatIfFlags(cmd *cobra.Command) {
	cmd.Flags().String("template", "", "Comma-separated built-in templates to apply first")
	cmd.Flags().StringArray("what-if", nil, "Transform spec such as delay_retirement:years=2 (repeatable)")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
