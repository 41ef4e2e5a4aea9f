// Package ltc models long-term-care risk: when a household member first needs care, how long
// the care lasts, what it costs, and how much an insurance policy pays.
package ltc

import (
	"math"

	"github.com/rgehrsitz/viability/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

const daysPerYear = 365

// Draws are the uniforms consumed by one trial, indexed user=0, spouse=1
type Draws struct {
	Onset    [2]float64
	Duration [2]float64
	Cost     [2]float64
}

type member struct {
	name       string
	currentAge int
}

// Policy holds insurance terms in float form
type Policy struct {
	DailyBenefit       float64
	EliminationDays    int
	BenefitPeriodYears int
	InflationRider     float64
	AnnualPremium      float64
	PurchaseAge        int
	WaiverOnClaim      bool
}

// Model samples care events and prices them. It is read-only after construction.
type Model struct {
	tables     domain.LTCTables
	costFactor float64
	members    []member
	policy     *Policy
}

// NewModel builds the model for a household
func NewModel(params *domain.SimulationParameters, tables *domain.Tables) *Model {
	m := &Model{
		tables:     tables.LTC,
		costFactor: tables.CostFactor(params.Tax.State),
		members:    []member{{name: domain.PersonUser, currentAge: params.Household.User.CurrentAge}},
	}
	if sp := params.Household.Spouse; sp != nil {
		m.members = append(m.members, member{name: domain.PersonSpouse, currentAge: sp.CurrentAge})
	}
	if params.LTCInsurance != nil {
		ins := params.LTCInsurance.WithDefaults()
		p := &Policy{
			DailyBenefit:       ins.DailyBenefit.InexactFloat64(),
			EliminationDays:    *ins.EliminationDays,
			BenefitPeriodYears: ins.BenefitPeriodYears,
			InflationRider:     ins.InflationRider.InexactFloat64(),
			AnnualPremium:      ins.AnnualPremium.InexactFloat64(),
			PurchaseAge:        ins.PurchaseAge,
			WaiverOnClaim:      ins.PremiumWaiverOnClaim,
		}
		if p.PurchaseAge == 0 {
			p.PurchaseAge = params.Household.User.CurrentAge
		}
		m.policy = p
	}
	return m
}

// Insured reports whether the household holds a policy
func (m *Model) Insured() bool {
	return m.policy != nil
}

// Sample returns the household's care event, or nil when nobody needs care before death.
// deathAges are in each member's own age.
func (m *Model) Sample(d Draws, deathAges [2]int) *domain.LTCEvent {
	var event *domain.LTCEvent
	for j, mem := range m.members {
		onsetAge, ok := m.onset(mem.currentAge, deathAges[j], d.Onset[j])
		if !ok {
			continue
		}
		year := onsetAge - mem.currentAge
		if event != nil && year >= event.OnsetYear {
			continue
		}
		duration := m.duration(d.Duration[j])
		if remaining := deathAges[j] - onsetAge + 1; duration > remaining {
			duration = remaining
		}
		event = &domain.LTCEvent{
			Person:          mem.name,
			OnsetAge:        onsetAge,
			OnsetYear:       year,
			DurationYears:   duration,
			AnnualGrossCost: m.annualCost(d.Cost[j]),
		}
	}
	return event
}

// onset inverts the cumulative incidence over the member's remaining life
func (m *Model) onset(currentAge, deathAge int, u float64) (int, bool) {
	var hazard float64
	for age := currentAge; age <= deathAge; age++ {
		hazard += m.tables.HazardAt(age)
		if 1-math.Exp(-hazard) > u {
			return age, true
		}
	}
	return 0, false
}

func (m *Model) duration(u float64) int {
	var cum float64
	for _, o := range m.tables.Durations {
		cum += o.Probability
		if u < cum {
			return o.Years
		}
	}
	return m.tables.Durations[len(m.tables.Durations)-1].Years
}

// annualCost is today's-dollar cost with a mean-one lognormal shock
func (m *Model) annualCost(u float64) float64 {
	sigma := m.tables.CostSigma
	shock := math.Exp(sigma*distuv.UnitNormal.Quantile(u) - sigma*sigma/2)
	return m.tables.BaseAnnualCost * m.costFactor * shock
}

// LifetimeIncidence is the probability that at least one member needs care before the
// given death ages
func (m *Model) LifetimeIncidence(deathAges [2]int) float64 {
	none := 1.0
	for j, mem := range m.members {
		var hazard float64
		for age := mem.currentAge; age <= deathAges[j]; age++ {
			hazard += m.tables.HazardAt(age)
		}
		none *= math.Exp(-hazard)
	}
	return 1 - none
}

// NetCost applies the policy to the nominal gross cost of care year k (0-based).
// yearsSincePurchase drives the inflation rider on the daily cap.
func (m *Model) NetCost(k int, gross float64, yearsSincePurchase int) float64 {
	if m.policy == nil || gross <= 0 {
		return gross
	}
	p := m.policy
	elim := min(p.EliminationDays, daysPerYear)
	total := p.BenefitPeriodYears * daysPerYear

	days := daysPerYear
	usedBefore := 0
	if k == 0 {
		days = daysPerYear - elim
	} else {
		usedBefore = daysPerYear - elim + (k-1)*daysPerYear
	}
	covered := max(0, min(days, total-usedBefore))
	if covered == 0 {
		return gross
	}

	dailyCap := p.DailyBenefit * math.Pow(1+p.InflationRider, float64(max(0, yearsSincePurchase)))
	perDay := math.Min(gross/daysPerYear, dailyCap)
	benefit := perDay * float64(covered)
	return math.Max(0, gross-benefit)
}

// Premium returns the premium owed in trial year, given the user's age that year
func (m *Model) Premium(year, userAge int, event *domain.LTCEvent) float64 {
	if m.policy == nil || userAge < m.policy.PurchaseAge {
		return 0
	}
	if m.policy.WaiverOnClaim && event.ActiveAt(year) {
		return 0
	}
	return m.policy.AnnualPremium
}

// YearsSincePurchase converts a trial year to policy years
func (m *Model) YearsSincePurchase(year int) int {
	if m.policy == nil {
		return 0
	}
	return year + m.members[0].currentAge - m.policy.PurchaseAge
}
