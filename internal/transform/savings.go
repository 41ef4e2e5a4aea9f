package transform

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

func percentString(d decimal.Decimal) string {
	return d.Mul(hundred).StringFixed(0)
}

// RaiseSavings increases annual savings by a fraction (0.25 = +25%)
type RaiseSavings struct {
	Percent decimal.Decimal
}

func (rs *RaiseSavings) Name() string {
	return "raise_savings"
}

func (rs *RaiseSavings) Description() string {
	return fmt.Sprintf("Raise annual savings by %s%%", percentString(rs.Percent))
}

func (rs *RaiseSavings) Validate(base *domain.SimulationParameters) error {
	if !rs.Percent.IsPositive() {
		return NewTransformError(rs.Name(), "validate", fmt.Sprintf("percent must be positive, got %s", rs.Percent.String()), nil)
	}
	if err := requireBase(rs.Name(), base); err != nil {
		return err
	}
	if base.RetirementAge <= base.Household.User.CurrentAge {
		return NewTransformError(rs.Name(), "validate", "household is already retired", nil)
	}
	return nil
}

func (rs *RaiseSavings) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.AnnualSavings = base.AnnualSavings.Mul(decimal.NewFromInt(1).Add(rs.Percent)).Round(2)
	return modified, nil
}

// ReduceExpenses lowers retirement spending by a fraction (0.10 = -10%)
type ReduceExpenses struct {
	Percent decimal.Decimal
}

func (re *ReduceExpenses) Name() string {
	return "reduce_expenses"
}

func (re *ReduceExpenses) Description() string {
	return fmt.Sprintf("Reduce retirement expenses by %s%%", percentString(re.Percent))
}

func (re *ReduceExpenses) Validate(base *domain.SimulationParameters) error {
	if !re.Percent.IsPositive() || re.Percent.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return NewTransformError(re.Name(), "validate", fmt.Sprintf("percent must be in (0, 1), got %s", re.Percent.String()), nil)
	}
	return requireBase(re.Name(), base)
}

func (re *ReduceExpenses) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.AnnualRetirementExpenses = base.AnnualRetirementExpenses.Mul(decimal.NewFromInt(1).Sub(re.Percent)).Round(2)
	return modified, nil
}
