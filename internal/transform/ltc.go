package transform

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
)

// AddLTCInsurance buys a long-term-care policy for a household that has none
type AddLTCInsurance struct {
	Policy domain.LTCInsurance
}

func (al *AddLTCInsurance) Name() string {
	return "add_ltc_insurance"
}

func (al *AddLTCInsurance) Description() string {
	return fmt.Sprintf("Add LTC insurance: $%s/day, %d-year benefit, $%s/yr premium",
		al.Policy.DailyBenefit.StringFixed(0), al.Policy.BenefitPeriodYears, al.Policy.AnnualPremium.StringFixed(0))
}

func (al *AddLTCInsurance) Validate(base *domain.SimulationParameters) error {
	if !al.Policy.DailyBenefit.IsPositive() {
		return NewTransformError(al.Name(), "validate", "daily benefit must be positive", nil)
	}
	if al.Policy.BenefitPeriodYears <= 0 {
		return NewTransformError(al.Name(), "validate", "benefit period must be positive", nil)
	}
	if err := requireBase(al.Name(), base); err != nil {
		return err
	}
	if base.LTCInsurance != nil {
		return NewTransformError(al.Name(), "validate", "household already holds a policy", nil)
	}
	return nil
}

func (al *AddLTCInsurance) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	policy := al.Policy
	policy.PurchaseAge = base.Household.User.CurrentAge
	modified.LTCInsurance = &policy
	return modified, nil
}
