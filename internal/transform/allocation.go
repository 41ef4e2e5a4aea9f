package transform

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// ShiftAllocation moves weight between stocks and bonds. A positive Stocks shifts from
// bonds into stocks, a negative one the other way.
type ShiftAllocation struct {
	Stocks decimal.Decimal
}

func (sa *ShiftAllocation) Name() string {
	return "shift_allocation"
}

func (sa *ShiftAllocation) Description() string {
	if sa.Stocks.IsNegative() {
		return fmt.Sprintf("Shift %s%% from stocks to bonds", percentString(sa.Stocks.Neg()))
	}
	return fmt.Sprintf("Shift %s%% from bonds to stocks", percentString(sa.Stocks))
}

func (sa *ShiftAllocation) Validate(base *domain.SimulationParameters) error {
	if sa.Stocks.IsZero() {
		return NewTransformError(sa.Name(), "validate", "shift cannot be zero", nil)
	}
	if err := requireBase(sa.Name(), base); err != nil {
		return err
	}
	stocks := base.Allocation.Stocks.Add(sa.Stocks)
	bonds := base.Allocation.Bonds.Sub(sa.Stocks)
	if stocks.IsNegative() || bonds.IsNegative() {
		return NewTransformError(sa.Name(), "validate",
			fmt.Sprintf("shift of %s leaves stocks %s and bonds %s", sa.Stocks.String(), stocks.String(), bonds.String()), nil)
	}
	return nil
}

func (sa *ShiftAllocation) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.Allocation.Stocks = base.Allocation.Stocks.Add(sa.Stocks)
	modified.Allocation.Bonds = base.Allocation.Bonds.Sub(sa.Stocks)
	return modified, nil
}
