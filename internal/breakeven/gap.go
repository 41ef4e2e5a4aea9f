package breakeven

import (
	"context"
	"sort"

	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/transform"
	"github.com/shopspring/decimal"
)

// Gap factor categories
const (
	CategorySavings    = "savings"
	CategoryInsurance  = "insurance"
	CategoryTiming     = "timing"
	CategorySpending   = "spending"
	CategoryAllocation = "allocation"
)

// mediumImprovement is the point gain that earns a medium priority
const mediumImprovement = 5.0

type candidate struct {
	category  string
	transform transform.ScenarioTransform
}

// menu is the fixed list of plan changes the analyzer tries, in tie-break order
func menu() []candidate {
	return []candidate{
		{CategorySavings, &transform.RaiseSavings{Percent: decimal.NewFromFloat(0.25)}},
		{CategoryInsurance, &transform.AddLTCInsurance{Policy: domain.DefaultLTCInsurance()}},
		{CategoryTiming, &transform.DelayRetirement{Years: 2}},
		{CategorySpending, &transform.ReduceExpenses{Percent: decimal.NewFromFloat(0.10)}},
		{CategoryAllocation, &transform.ShiftAllocation{Stocks: decimal.NewFromFloat(0.10)}},
		{CategoryAllocation, &transform.ShiftAllocation{Stocks: decimal.NewFromFloat(-0.10)}},
	}
}

// GapAnalyzer re-simulates each menu change and ranks them by success-probability gain
type GapAnalyzer struct {
	Simulator Simulator
	Logger    calculation.Logger
}

// NewGapAnalyzer creates an analyzer that logs nowhere
func NewGapAnalyzer(sim Simulator) *GapAnalyzer {
	return &GapAnalyzer{Simulator: sim, Logger: calculation.NopLogger{}}
}

// Analyze evaluates every applicable menu change against base. Changes that do not apply
// (an existing LTC policy, an allocation shift past zero, extra savings after retirement)
// are skipped. Cancellation stops the analysis with an error.
func (g *GapAnalyzer) Analyze(ctx context.Context, base *domain.SimulationParameters, current, target float64) (*domain.GapAnalysis, error) {
	if base == nil {
		return nil, &BreakEvenError{Operation: "gap_analysis", Message: "base parameters cannot be nil"}
	}
	if target <= 0 || target > 1 {
		return nil, &BreakEvenError{Operation: "gap_analysis", Message: "target probability must be in (0, 1]"}
	}
	logger := g.Logger
	if logger == nil {
		logger = calculation.NopLogger{}
	}

	analysis := &domain.GapAnalysis{
		TargetProbability:  target,
		CurrentProbability: current,
		Gap:                max(0, target-current) * 100,
		Factors:            []domain.GapFactor{},
	}

	for _, c := range menu() {
		if err := c.transform.Validate(base); err != nil {
			logger.Debugf("gap analysis skips %s: %v", c.transform.Name(), err)
			continue
		}
		params, err := c.transform.Apply(base)
		if err != nil {
			logger.Debugf("gap analysis skips %s: %v", c.transform.Name(), err)
			continue
		}

		p, err := g.Simulator.Simulate(ctx, params)
		if err != nil {
			if ctx.Err() != nil {
				return nil, &BreakEvenError{Operation: "gap_analysis", Message: "analysis interrupted", Cause: err}
			}
			logger.Warnf("gap analysis could not simulate %s: %v", c.transform.Name(), err)
			continue
		}

		improvement := (p - current) * 100
		factor := domain.GapFactor{
			Name:           c.transform.Name(),
			Category:       c.category,
			Description:    c.transform.Description(),
			NewProbability: p,
			Improvement:    improvement,
			ClosesGap:      p >= target,
		}
		switch {
		case factor.ClosesGap:
			factor.Priority = domain.PriorityHigh
		case improvement >= mediumImprovement:
			factor.Priority = domain.PriorityMedium
		default:
			factor.Priority = domain.PriorityLow
		}
		analysis.Factors = append(analysis.Factors, factor)
	}

	sort.SliceStable(analysis.Factors, func(i, j int) bool {
		return analysis.Factors[i].Improvement > analysis.Factors[j].Improvement
	})

	return analysis, nil
}
