package breakeven

import (
	"context"

	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/domain"
)

// Simulator returns the success probability of a parameter set
type Simulator interface {
	Simulate(ctx context.Context, params *domain.SimulationParameters) (float64, error)
}

// EngineSimulator re-runs the Monte Carlo engine. Every call uses the same seed and
// iteration count, so alternatives are compared on identical market draws.
type EngineSimulator struct {
	Tables  *domain.Tables
	Options calculation.Options
	Logger  calculation.Logger
}

// Simulate runs one batch and returns its raw success probability
func (s *EngineSimulator) Simulate(ctx context.Context, params *domain.SimulationParameters) (float64, error) {
	opts := s.Options
	opts.RetainTraces = 0

	engine, err := calculation.NewEngine(params, s.Tables, opts)
	if err != nil {
		return 0, err
	}
	engine.SetLogger(s.Logger)

	result, _, err := engine.Run(ctx)
	if err != nil {
		return 0, err
	}
	return result.SuccessProbability, nil
}
