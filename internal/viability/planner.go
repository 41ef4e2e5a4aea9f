// Package viability is the request facade: it runs a simulation batch for one household
// and enriches the result with gap analysis and the optimal-retirement-age search.
package viability

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rgehrsitz/viability/internal/breakeven"
	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/domain"
)

// DefaultIterations is used when a request leaves Iterations at zero
const DefaultIterations = 10000

// Options tune the optional analyses of a request
type Options struct {
	// Workers bounds concurrency; zero means runtime.NumCPU()
	Workers int `json:"workers,omitempty"`

	// TargetProbability drives gap analysis and the retirement-age search; zero means 0.85
	TargetProbability float64 `json:"targetProbability,omitempty"`

	SkipGapAnalysis bool `json:"skipGapAnalysis,omitempty"`
	SkipOptimalAge  bool `json:"skipOptimalAge,omitempty"`

	// MaxRetirementAge caps the retirement-age search; zero means 75
	MaxRetirementAge int `json:"maxRetirementAge,omitempty"`

	// SearchIterations sizes the re-simulations behind gap analysis and the age search;
	// zero means the request's iteration count
	SearchIterations int `json:"searchIterations,omitempty"`
}

// Request is one simulation request
type Request struct {
	Params     *domain.SimulationParameters `json:"params"`
	Iterations int                          `json:"iterations"`
	// Seed fixes the master seed; nil draws a fresh one, reported on the result
	Seed         *uint64       `json:"seed,omitempty"`
	RetainTraces int           `json:"retainTraces,omitempty"`
	TimeBudget   time.Duration `json:"timeBudget,omitempty"`
	Options      Options       `json:"options"`
}

// Response carries the aggregate result and any retained traces
type Response struct {
	Result *domain.AggregateResult `json:"result"`
	Traces []domain.Trial          `json:"traces,omitempty"`
}

// Planner runs requests against one set of tables
type Planner struct {
	tables        *domain.Tables
	logger        calculation.Logger
	maxIterations int
}

// NewPlanner creates a planner using tables
func NewPlanner(tables *domain.Tables) *Planner {
	return &Planner{tables: tables, logger: calculation.NopLogger{}}
}

// SetLogger sets the logger; nil restores the no-op logger
func (p *Planner) SetLogger(l calculation.Logger) {
	if l == nil {
		l = calculation.NopLogger{}
	}
	p.logger = l
}

// SetMaxIterations caps every batch a request runs, including the re-simulations behind
// gap analysis and the age search. Zero removes the cap.
func (p *Planner) SetMaxIterations(n int) {
	p.maxIterations = max(0, n)
}

// Tables returns the tables requests run against
func (p *Planner) Tables() *domain.Tables {
	return p.tables
}

// Run executes the request. A non-zero TimeBudget bounds the whole request including the
// follow-up analyses; exceeding it returns an error wrapping calculation.ErrTimeout.
func (p *Planner) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Params == nil {
		return nil, fmt.Errorf("request has no parameters")
	}
	if p.tables == nil {
		return nil, fmt.Errorf("planner has no tables")
	}

	if req.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.TimeBudget)
		defer cancel()
	}

	iterations, searchIterations, err := p.batchSizes(req)
	if err != nil {
		return nil, err
	}
	var seed uint64
	if req.Seed != nil {
		seed = *req.Seed
	} else {
		seed = rand.Uint64()
	}

	opts := calculation.Options{
		Iterations:   iterations,
		Seed:         seed,
		Workers:      req.Options.Workers,
		RetainTraces: req.RetainTraces,
	}
	engine, err := calculation.NewEngine(req.Params, p.tables, opts)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(p.logger)

	started := time.Now()
	result, traces, err := engine.Run(ctx)
	if err != nil {
		return nil, err
	}
	p.logger.Infof("run %s: success %.1f%% over %d trials in %s",
		result.RunID, result.SuccessProbability*100, result.IncludedTrials, time.Since(started).Round(time.Millisecond))

	target := req.Options.TargetProbability
	if target == 0 {
		target = breakeven.DefaultConstraints().TargetProbability
	}

	searchOpts := opts
	searchOpts.RetainTraces = 0
	searchOpts.Iterations = searchIterations
	sim := &breakeven.EngineSimulator{Tables: p.tables, Options: searchOpts, Logger: calculation.NopLogger{}}

	if !req.Options.SkipGapAnalysis && result.SuccessProbability < target {
		analyzer := breakeven.NewGapAnalyzer(sim)
		analyzer.Logger = p.logger
		current := result.SuccessProbability
		if searchOpts.Iterations != iterations {
			// compare against the same batch size as the alternatives
			if current, err = sim.Simulate(ctx, req.Params); err != nil {
				return nil, fmt.Errorf("gap analysis baseline: %w", err)
			}
		}
		gap, err := analyzer.Analyze(ctx, req.Params, current, target)
		if err != nil {
			return nil, err
		}
		result.GapAnalysis = gap
	}

	if !req.Options.SkipOptimalAge {
		constraints := breakeven.DefaultConstraints()
		constraints.TargetProbability = target
		if req.Options.MaxRetirementAge > 0 {
			constraints.MaxRetirementAge = req.Options.MaxRetirementAge
		}
		if age := req.Params.Household.User.CurrentAge; age > min(constraints.MaxRetirementAge, req.Params.LifeExpectancy-1) {
			p.logger.Debugf("skipping retirement-age search: current age %d is past the search range", age)
		} else {
			optimal, err := breakeven.NewSolver(sim, constraints).OptimalRetirementAge(ctx, req.Params)
			if err != nil {
				return nil, err
			}
			result.OptimalRetirementAge = optimal
		}
	}

	return &Response{Result: result, Traces: traces}, nil
}

// batchSizes resolves the main and search batch sizes. An omitted count takes the default,
// lowered to the cap; an explicit count above the cap is rejected.
func (p *Planner) batchSizes(req Request) (int, int, error) {
	verr := &domain.ValidationError{}
	iterations := req.Iterations
	switch {
	case iterations < 0:
		verr.Add("iterations", "must be positive, got %d", iterations)
	case iterations == 0:
		iterations = DefaultIterations
		if p.maxIterations > 0 {
			iterations = min(iterations, p.maxIterations)
		}
	case p.maxIterations > 0 && iterations > p.maxIterations:
		verr.Add("iterations", "must not exceed %d, got %d", p.maxIterations, iterations)
	}

	search := req.Options.SearchIterations
	switch {
	case search < 0:
		verr.Add("options.searchIterations", "must be positive, got %d", search)
	case search == 0:
		search = iterations
	case p.maxIterations > 0 && search > p.maxIterations:
		verr.Add("options.searchIterations", "must not exceed %d, got %d", p.maxIterations, search)
	}
	return iterations, search, verr.OrNil()
}
