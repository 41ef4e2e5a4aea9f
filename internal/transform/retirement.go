package transform

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
)

// DelayRetirement pushes the retirement age back by whole years.
// This is the "work one more year" lever.
type DelayRetirement struct {
	Years int
}

func (dr *DelayRetirement) Name() string {
	return "delay_retirement"
}

func (dr *DelayRetirement) Description() string {
	return fmt.Sprintf("Delay retirement by %d years", dr.Years)
}

func (dr *DelayRetirement) Validate(base *domain.SimulationParameters) error {
	if dr.Years < 0 {
		return NewTransformError(dr.Name(), "validate", fmt.Sprintf("years must be non-negative, got %d", dr.Years), nil)
	}
	if err := requireBase(dr.Name(), base); err != nil {
		return err
	}
	if base.RetirementAge+dr.Years >= base.LifeExpectancy {
		return NewTransformError(dr.Name(), "validate",
			fmt.Sprintf("retirement age %d would reach life expectancy %d", base.RetirementAge+dr.Years, base.LifeExpectancy), nil)
	}
	return nil
}

func (dr *DelayRetirement) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.RetirementAge += dr.Years
	return modified, nil
}

// SetRetirementAge sets the retirement age to an absolute value.
// Unlike DelayRetirement which is relative, this sets an exact age.
type SetRetirementAge struct {
	Age int
}

func (sr *SetRetirementAge) Name() string {
	return "set_retirement_age"
}

func (sr *SetRetirementAge) Description() string {
	return fmt.Sprintf("Set retirement age to %d", sr.Age)
}

func (sr *SetRetirementAge) Validate(base *domain.SimulationParameters) error {
	if err := requireBase(sr.Name(), base); err != nil {
		return err
	}
	if sr.Age < base.Household.User.CurrentAge {
		return NewTransformError(sr.Name(), "validate",
			fmt.Sprintf("retirement age %d is before current age %d", sr.Age, base.Household.User.CurrentAge), nil)
	}
	if sr.Age >= base.LifeExpectancy {
		return NewTransformError(sr.Name(), "validate",
			fmt.Sprintf("retirement age %d would reach life expectancy %d", sr.Age, base.LifeExpectancy), nil)
	}
	return nil
}

func (sr *SetRetirementAge) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	modified.RetirementAge = sr.Age
	return modified, nil
}
