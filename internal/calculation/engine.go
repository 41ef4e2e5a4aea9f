package calculation

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/scenario"
	"golang.org/x/sync/errgroup"
)

// runNamespace scopes deterministic run IDs
var runNamespace = uuid.MustParse("6f1c2d3e-8a4b-5c6d-9e0f-1a2b3c4d5e6f")

// Options control one batch
type Options struct {
	Iterations int
	Seed       uint64
	// Workers bounds concurrency; zero means runtime.NumCPU()
	Workers int
	// RetainTraces keeps the full walk of the first N trials
	RetainTraces int
}

// Engine runs Monte Carlo batches for one household
type Engine struct {
	Logger Logger

	params    *domain.SimulationParameters
	tables    *domain.Tables
	opts      Options
	generator *scenario.Generator
	projector *Projector
}

// NewEngine validates the request and prepares the generator and projector. Invalid input
// returns a *domain.ValidationError before any trial runs.
func NewEngine(params *domain.SimulationParameters, tables *domain.Tables, opts Options) (*Engine, error) {
	if params == nil || tables == nil {
		return nil, fmt.Errorf("parameters and tables are required")
	}
	gen, err := scenario.NewGenerator(params, tables, scenario.Options{
		Seed:       opts.Seed,
		Iterations: opts.Iterations,
		Sampling:   params.EffectiveSampling(),
	})
	if err != nil {
		return nil, err
	}
	proj, err := NewProjector(params, tables)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{
		Logger:    NopLogger{},
		params:    params,
		tables:    tables,
		opts:      opts,
		generator: gen,
		projector: proj,
	}, nil
}

// SetLogger sets the logger; nil restores the no-op logger
func (e *Engine) SetLogger(l Logger) {
	if l == nil {
		l = NopLogger{}
	}
	e.Logger = l
}

// Projector exposes the trial walker
func (e *Engine) Projector() *Projector {
	return e.projector
}

// Generator exposes the scenario generator
func (e *Engine) Generator() *scenario.Generator {
	return e.generator
}

// outcome is what aggregation keeps from a trial
type outcome struct {
	success      bool
	corrupted    bool
	ending       float64
	depletionAge int
	endBalances  []float64
	cuts, raises int
	control      float64
	ltc          *domain.LTCEvent
	// successWithoutLTC is the paired re-run without the care event
	successWithoutLTC bool
}

// Run executes the batch and aggregates it. Traces holds the first RetainTraces trials in
// index order. The result does not depend on the worker count.
func (e *Engine) Run(ctx context.Context) (*domain.AggregateResult, []domain.Trial, error) {
	n := e.generator.Iterations()
	outcomes := make([]outcome, n)
	retain := min(max(0, e.opts.RetainTraces), n)
	traces := make([]domain.Trial, retain)

	e.Logger.Infof("running %d trials with seed %d on %d workers", n, e.opts.Seed, e.opts.Workers)

	var completed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Workers)
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			trial := e.runTrial(i, &outcomes[i])
			if i < retain {
				traces[i] = *trial
			}
			completed.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	if done := int(completed.Load()); done < n {
		err := ctx.Err()
		e.Logger.Warnf("batch stopped after %d of %d trials: %v", done, n, err)
		return nil, nil, &BatchError{Completed: done, Total: n, Err: contextError(err)}
	}

	result, err := aggregate(outcomes, e.summary())
	if err != nil {
		return nil, nil, err
	}
	result.RunID = e.runID()
	result.Seed = e.opts.Seed
	result.Iterations = n
	result.TablesVersion = e.tables.Version

	e.Logger.Infof("batch %s done: success probability %.4f (%d excluded)",
		result.RunID, result.SuccessProbability, result.ExcludedTrials)
	return result, traces, nil
}

func (e *Engine) runTrial(i int, out *outcome) *domain.Trial {
	s := e.generator.Scenario(i)
	trial := e.projector.Project(s, false)

	out.success = trial.Success
	out.corrupted = trial.Corrupted
	out.ending = trial.EndingBalance
	out.depletionAge = trial.DepletionAge
	out.cuts = trial.GuardrailCuts
	out.raises = trial.GuardrailRaises
	out.control = trial.MeanRealizedReturn

	out.endBalances = make([]float64, trial.Horizon)
	for t, y := range trial.Years {
		out.endBalances[t] = y.EndBalance
	}

	if trial.LTC != nil && !trial.Corrupted {
		out.ltc = trial.LTC
		out.successWithoutLTC = e.projector.Project(s, true).Success
	}
	if trial.Corrupted {
		e.Logger.Debugf("trial %d produced non-finite values and is excluded", i)
	}
	return trial
}

// summary collects the batch-level inputs aggregation needs
func (e *Engine) summary() batchSummary {
	sampling := e.params.EffectiveSampling()
	s := batchSummary{
		currentAge:     e.params.Household.User.CurrentAge,
		retirementAge:  e.params.RetirementAge,
		controlVariate: sampling.ControlVariate,
		expectedMean:   e.generator.ExpectedControlMean(),
	}
	s.expectedEnding = e.ExpectedEndingBalance()
	return s
}

// ExpectedEndingBalance projects the household once at expected returns and mean inflation,
// with each member dying at their life expectancy
func (e *Engine) ExpectedEndingBalance() float64 {
	spouseLE := 0
	if sp := e.params.Household.Spouse; sp != nil {
		spouseLE = e.params.LifeExpectancyFor(*sp)
	}
	userLE := e.params.LifeExpectancyFor(e.params.Household.User)
	return e.projector.Project(e.generator.Expected(userLE, spouseLE), true).EndingBalance
}

// runID derives a stable identifier from the request, so identical requests share an ID
func (e *Engine) runID() string {
	payload, err := json.Marshal(e.params)
	if err != nil {
		payload = []byte(e.params.Name)
	}
	key := fmt.Sprintf("%s|%d|%d|%s", payload, e.opts.Seed, e.generator.Iterations(), e.tables.Version)
	return uuid.NewSHA1(runNamespace, []byte(key)).String()
}
