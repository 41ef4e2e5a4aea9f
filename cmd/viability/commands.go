package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/viability/internal/config"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/transform"
)

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate a household parameter file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.NewInputParser().LoadFromFile(args[0])
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				for _, fe := range verr.Errors {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
				}
				return fmt.Errorf("%s is invalid (%d problems)", args[0], len(verr.Errors))
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Parameter file %s is valid\n", args[0])
			return nil
		},
	}
}

func tablesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show the active tax, IRMAA, mortality and market tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}

			dump, _ := cmd.Flags().GetBool("dump")
			if dump {
				data, err := config.MarshalTables(tables)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			source := "embedded"
			if env != nil && env.Tables != "" {
				source = env.Tables
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Tables version %s (%s)\n", tables.Version, source)
			return nil
		},
	}
	cmd.Flags().Bool("dump", false, "Print the full tables as YAML")
	return cmd
}

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List built-in what-if templates and transforms",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprint(out, transform.GetTemplateHelp(transform.CreateBuiltInTemplates()))
			fmt.Fprintln(out, "\nTransforms for --what-if:")
			for _, name := range transform.NewTransformRegistry().List() {
				fmt.Fprintf(out, "  %s\n", name)
			}
		},
	}
}

func exampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Print an example household parameter file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.NewInputParser().Marshal(domain.SampleParameters())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
