package breakeven

import (
	"context"
	"fmt"
	"sort"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/transform"
)

// Solver searches for the earliest retirement age that reaches the success target
type Solver struct {
	Simulator   Simulator
	Constraints Constraints
}

// NewSolver creates a new break-even solver
func NewSolver(sim Simulator, constraints Constraints) *Solver {
	return &Solver{
		Simulator:   sim,
		Constraints: constraints,
	}
}

// NewDefaultSolver creates a solver with default constraints
func NewDefaultSolver(sim Simulator) *Solver {
	return NewSolver(sim, DefaultConstraints())
}

// OptimalRetirementAge binary-searches [max(current age, min), max] assuming success
// probability does not fall as retirement is delayed. When even the latest age misses the
// target the result is that age with Achievable false.
func (s *Solver) OptimalRetirementAge(ctx context.Context, base *domain.SimulationParameters) (*domain.OptimalRetirementAge, error) {
	if err := s.Constraints.Validate(); err != nil {
		return nil, err
	}
	if base == nil {
		return nil, &BreakEvenError{Operation: "optimal_retirement_age", Message: "base parameters cannot be nil"}
	}

	lo := max(base.Household.User.CurrentAge, s.Constraints.MinRetirementAge)
	hi := min(s.Constraints.MaxRetirementAge, base.LifeExpectancy-1)
	if lo > hi {
		return nil, &BreakEvenError{
			Operation: "optimal_retirement_age",
			Message:   fmt.Sprintf("no candidate ages between %d and %d", lo, hi),
		}
	}

	target := s.Constraints.TargetProbability
	probed := make(map[int]float64)
	probe := func(age int) (float64, error) {
		if p, ok := probed[age]; ok {
			return p, nil
		}
		params, err := transform.ApplyTransforms(base, []transform.ScenarioTransform{
			&transform.SetRetirementAge{Age: age},
		})
		if err != nil {
			return 0, &BreakEvenError{Operation: "optimal_retirement_age", Message: "failed to apply age transform", Cause: err}
		}
		p, err := s.Simulator.Simulate(ctx, params)
		if err != nil {
			return 0, &BreakEvenError{
				Operation: "optimal_retirement_age",
				Message:   fmt.Sprintf("failed to simulate retirement at %d", age),
				Cause:     err,
			}
		}
		probed[age] = p
		return p, nil
	}

	result := &domain.OptimalRetirementAge{
		DesiredAge:        base.RetirementAge,
		TargetProbability: target,
	}

	pHi, err := probe(hi)
	if err != nil {
		return nil, err
	}
	if pHi < target {
		result.Age = hi
		result.Probability = pHi
		return s.finish(result, probed), nil
	}

	pLo, err := probe(lo)
	if err != nil {
		return nil, err
	}
	if pLo >= target {
		result.Age = lo
		result.Probability = pLo
		result.Achievable = true
		return s.finish(result, probed), nil
	}

	// probed[lo] < target <= probed[hi]
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		p, err := probe(mid)
		if err != nil {
			return nil, err
		}
		if p >= target {
			hi = mid
		} else {
			lo = mid
		}
	}

	result.Age = hi
	result.Probability = probed[hi]
	result.Achievable = true
	return s.finish(result, probed), nil
}

func (s *Solver) finish(result *domain.OptimalRetirementAge, probed map[int]float64) *domain.OptimalRetirementAge {
	result.GapYears = result.Age - result.DesiredAge
	result.Evaluated = make([]domain.AgeEvaluation, 0, len(probed))
	for age, p := range probed {
		result.Evaluated = append(result.Evaluated, domain.AgeEvaluation{Age: age, Probability: p})
	}
	sort.Slice(result.Evaluated, func(i, j int) bool {
		return result.Evaluated[i].Age < result.Evaluated[j].Age
	})
	return result
}
