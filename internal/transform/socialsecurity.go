package transform

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
)

// DelaySSClaim changes the Social Security claiming age for a household member.
// Delaying increases benefits (8% per year from FRA to 70).
type DelaySSClaim struct {
	Person string // "user" or "spouse"
	NewAge int    // must be 62-70
}

func (dss *DelaySSClaim) Name() string {
	return "delay_ss"
}

func (dss *DelaySSClaim) Description() string {
	return fmt.Sprintf("Change %s's Social Security claim age to %d", dss.Person, dss.NewAge)
}

func (dss *DelaySSClaim) Validate(base *domain.SimulationParameters) error {
	if dss.NewAge < 62 || dss.NewAge > 70 {
		return NewTransformError(dss.Name(), "validate", fmt.Sprintf("SS claim age must be between 62 and 70, got %d", dss.NewAge), nil)
	}
	if err := requireBase(dss.Name(), base); err != nil {
		return err
	}
	switch dss.Person {
	case "", domain.PersonUser:
	case domain.PersonSpouse:
		if base.Household.Spouse == nil {
			return NewTransformError(dss.Name(), "validate", "household has no spouse", nil)
		}
	default:
		return NewTransformError(dss.Name(), "validate", fmt.Sprintf("person must be user or spouse, got %q", dss.Person), nil)
	}
	return nil
}

func (dss *DelaySSClaim) Apply(base *domain.SimulationParameters) (*domain.SimulationParameters, error) {
	modified := base.DeepCopy()
	if dss.Person == domain.PersonSpouse {
		modified.Household.Spouse.SocialSecurity.ClaimAge = dss.NewAge
	} else {
		modified.Household.User.SocialSecurity.ClaimAge = dss.NewAge
	}
	return modified, nil
}
