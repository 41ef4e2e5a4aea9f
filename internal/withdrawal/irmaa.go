package withdrawal

import (
	"github.com/rgehrsitz/viability/internal/domain"
)

type irmaaTier struct {
	single, joint, annual float64
}

// IRMAA computes the income-related Medicare surcharge
type IRMAA struct {
	eligibilityAge int
	lookback       int
	tiers          []irmaaTier
}

// NewIRMAA builds the surcharge schedule from the tables
func NewIRMAA(rules domain.IRMAARules) *IRMAA {
	m := &IRMAA{eligibilityAge: rules.EligibilityAge, lookback: rules.LookbackYears}
	if m.eligibilityAge == 0 {
		m.eligibilityAge = 65
	}
	for _, t := range rules.Tiers {
		m.tiers = append(m.tiers, irmaaTier{
			single: t.IncomeThresholdSingle.InexactFloat64(),
			joint:  t.IncomeThresholdJoint.InexactFloat64(),
			annual: t.MonthlySurcharge.InexactFloat64() * 12,
		})
	}
	return m
}

// Lookback is the number of years between the income year and the surcharge year
func (m *IRMAA) Lookback() int {
	return m.lookback
}

// Covered counts household members old enough to pay the surcharge
func (m *IRMAA) Covered(ages ...int) int {
	n := 0
	for _, a := range ages {
		if a >= m.eligibilityAge {
			n++
		}
	}
	return n
}

// Surcharge returns the annual surcharge for the household. The highest tier whose threshold
// MAGI exceeds applies to every covered member; thresholds and amounts are indexed by idx.
func (m *IRMAA) Surcharge(magi float64, status string, covered int, idx float64) float64 {
	if covered == 0 {
		return 0
	}
	if idx <= 0 {
		idx = 1
	}
	var annual float64
	for _, t := range m.tiers {
		threshold := t.single
		if status == domain.FilingMFJ {
			threshold = t.joint
		}
		if magi > threshold*idx {
			annual = t.annual
		}
	}
	return annual * idx * float64(covered)
}

// MAGIHistory holds a trial's income by year so surcharges can look back. Years before the
// trial, and working years, read the pre-retirement income.
type MAGIHistory struct {
	seed   float64
	values []float64
}

// NewMAGIHistory creates a history seeded with pre-retirement income in today's dollars
func NewMAGIHistory(seed float64, years int) *MAGIHistory {
	return &MAGIHistory{seed: seed, values: make([]float64, 0, years)}
}

// Record appends year len(values)'s MAGI
func (h *MAGIHistory) Record(magi float64) {
	h.values = append(h.values, magi)
}

// At returns the MAGI of year t, falling back to the seed before the trial started
func (h *MAGIHistory) At(t int) float64 {
	if t < 0 || t >= len(h.values) {
		return h.seed
	}
	return h.values[t]
}
