package transform

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// ModifyInflation changes the general inflation rate assumption.
// This affects spending, healthcare, Social Security COLA and tax thresholds.
type ModifyInflation struct {
	NewRate decimal.Decimal // e.g. 0.025 for 2.5%
}

func (mi *ModifyInflation) Name() string {
	return "modify_inflation"
}

func (mi *ModifyInflation) Description() string {
	percentage := mi.NewRate.Mul(decimal.NewFromInt(100))
	return fmt.Sprintf("Change inflation rate to %s%%", percentage.StringFixed(1))
}

func (mi *ModifyInflation) Validate(base *domain.SimulationParameters) error {
	if mi.NewRate.LessThan(decimal.Zero) || mi.NewRate.GreaterThan(decimal.NewFromFloat(0.10)) {
		return NewTransformError(mi.Name(), "validate", fmt.Sprintf("inflation rate must be between 0 and 0.10, got %s", mi.NewRate.String()), nil)
	}
	return requireBase(mi.Name(), base)
}

func (mi *ModifyInflation) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.InflationRate = mi.NewRate
	return modified, nil
}

// SetSurvivorSpendingFactor sets the share of spending that continues after the first death
type SetSurvivorSpendingFactor struct {
	Factor decimal.Decimal
}

func (ss *SetSurvivorSpendingFactor) Name() string {
	return "set_survivor_spending"
}

func (ss *SetSurvivorSpendingFactor) Description() string {
	return fmt.Sprintf("Set survivor spending to %s%% of household spending", percentString(ss.Factor))
}

func (ss *SetSurvivorSpendingFactor) Validate(base *domain.SimulationParameters) error {
	if !ss.Factor.IsPositive() || ss.Factor.GreaterThan(decimal.NewFromInt(1)) {
		return NewTransformError(ss.Name(), "validate", fmt.Sprintf("factor must be in (0, 1], got %s", ss.Factor.String()), nil)
	}
	if err := requireBase(ss.Name(), base); err != nil {
		return err
	}
	if !base.IsCouple() {
		return NewTransformError(ss.Name(), "validate", "household has no spouse", nil)
	}
	return nil
}

func (ss *SetSurvivorSpendingFactor) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.SurvivorSpendingFactor = ss.Factor
	return modified, nil
}

// SetLifeExpectancy changes the household's life expectancy baseline
type SetLifeExpectancy struct {
	Age int
}

func (sl *SetLifeExpectancy) Name() string {
	return "set_life_expectancy"
}

func (sl *SetLifeExpectancy) Description() string {
	return fmt.Sprintf("Set life expectancy to %d", sl.Age)
}

func (sl *SetLifeExpectancy) Validate(base *domain.SimulationParameters) error {
	if err := requireBase(sl.Name(), base); err != nil {
		return err
	}
	if sl.Age <= base.Household.User.CurrentAge {
		return NewTransformError(sl.Name(), "validate",
			fmt.Sprintf("life expectancy %d must exceed current age %d", sl.Age, base.Household.User.CurrentAge), nil)
	}
	return nil
}

func (sl *SetLifeExpectancy) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.LifeExpectancy = sl.Age
	return modified, nil
}
