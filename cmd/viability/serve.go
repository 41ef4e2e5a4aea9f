package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rgehrsitz/viability/internal/server"
	"github.com/rgehrsitz/viability/internal/viability"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the simulation over HTTP",
		Long: `Start the HTTP adapter. Endpoints:
  GET  /health
  GET  /v1/tables
  POST /v1/validate   household parameters as JSON
  POST /v1/simulate   {"params": {...}, "iterations": 10000, "seed": 42, "timeBudget": "30s"}`,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables()
			if err != nil {
				return err
			}

			addr := env.Addr
			if cmd.Flags().Changed("addr") {
				addr, _ = cmd.Flags().GetString("addr")
			}
			maxIterations, _ := cmd.Flags().GetInt("max-iterations")
			requestTimeout, _ := cmd.Flags().GetDuration("request-timeout")

			srv := server.New(server.Config{
				Addr:           addr,
				Log:            logger,
				Planner:        viability.NewPlanner(tables),
				MaxIterations:  maxIterations,
				RequestTimeout: requestTimeout,
			})

			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			logger.Info().Msg("Shutting down server...")

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("Server forced to shutdown")
				return err
			}

			logger.Info().Msg("Server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", ":8080", "Listen address (default: VIABILITY_ADDR or :8080)")
	cmd.Flags().Int("max-iterations", 100000, "Largest iteration count a request may ask for")
	cmd.Flags().Duration("request-timeout", 2*time.Minute, "Upper bound on any single request")

	return cmd
}
