package calculation

import (
	"github.com/rgehrsitz/viability/internal/domain"
)

// ClaimFactor adjusts a benefit stated at full retirement age for the claiming age:
// 5/9 of 1% per month for the first 36 early months, 5/12 of 1% beyond that, and the
// delayed credit per year after full retirement age up to the maximum delay age.
func ClaimFactor(rules domain.SocialSecurityRules, claimAge, fra int) float64 {
	if fra == 0 {
		fra = rules.DefaultFRA
	}
	switch {
	case claimAge < fra:
		months := (fra - claimAge) * 12
		first := min(months, 36)
		rest := months - first
		return 1 - float64(first)*rules.EarlyReductionFirst36.InexactFloat64() -
			float64(rest)*rules.EarlyReductionAdditional.InexactFloat64()
	case claimAge > fra:
		maxAge := rules.MaxDelayAge
		if maxAge == 0 {
			maxAge = 70
		}
		years := min(claimAge, maxAge) - fra
		return 1 + float64(years)*rules.DelayedCreditPerYear.InexactFloat64()
	default:
		return 1
	}
}

// benefit is one member's Social Security entitlement in today's dollars
type benefit struct {
	annual   float64
	claimAge int
}

func newBenefit(rules domain.SocialSecurityRules, ss domain.SocialSecurity) benefit {
	amount := ss.AnnualBenefitAtFRA.InexactFloat64()
	if amount <= 0 {
		return benefit{}
	}
	return benefit{annual: amount * ClaimFactor(rules, ss.ClaimAge, ss.FullRetirementAge), claimAge: ss.ClaimAge}
}

// survivorClaimAge is the earliest age a survivor without their own benefit is paid
const survivorClaimAge = 60

// socialSecurity returns household benefits in today's dollars. A survivor steps up to the
// larger of the two benefits.
func socialSecurity(b [2]benefit, ages [2]int, alive [2]bool, couple bool) float64 {
	var total float64
	for j := 0; j < 2; j++ {
		if !alive[j] || (j == 1 && !couple) {
			continue
		}
		amount, claimAge := b[j].annual, b[j].claimAge
		if couple && !alive[1-j] && b[1-j].annual > amount {
			if amount <= 0 {
				claimAge = survivorClaimAge
			}
			amount = b[1-j].annual
		}
		if amount <= 0 || ages[j] < claimAge {
			continue
		}
		total += amount
	}
	return total
}
