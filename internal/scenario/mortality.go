package scenario

import (
	"fmt"
	"math"

	"github.com/rgehrsitz/viability/internal/domain"
)

// Mortality samples a person's death age from a Gompertz-Makeham law whose hazard is scaled
// so the median age at death, given survival to the current age, equals the life expectancy.
type Mortality struct {
	law        domain.GompertzMakeham
	currentAge float64
	maxAge     int
	scale      float64
}

// NewMortality calibrates the law for a person
func NewMortality(law domain.GompertzMakeham, currentAge, lifeExpectancy, maxAge int) (*Mortality, error) {
	if lifeExpectancy <= currentAge {
		return nil, fmt.Errorf("life expectancy %d must exceed current age %d", lifeExpectancy, currentAge)
	}
	if lifeExpectancy >= maxAge {
		return nil, fmt.Errorf("life expectancy %d must be below the table maximum age %d", lifeExpectancy, maxAge)
	}
	m := &Mortality{law: law, currentAge: float64(currentAge), maxAge: maxAge, scale: 1}
	// the continuous median sits half a year above the target so whole-year death ages
	// have their median exactly at the life expectancy
	h := m.cumulativeHazard(float64(lifeExpectancy) + 0.5)
	if h <= 0 || math.IsNaN(h) || math.IsInf(h, 0) {
		return nil, fmt.Errorf("mortality law has no hazard between ages %d and %d", currentAge, lifeExpectancy)
	}
	m.scale = math.Ln2 / h
	return m, nil
}

// cumulativeHazard integrates the unscaled hazard from the current age to x
func (m *Mortality) cumulativeHazard(x float64) float64 {
	l := m.law
	return l.A*(x-m.currentAge) + (l.B/l.C)*(math.Exp(l.C*x)-math.Exp(l.C*m.currentAge))
}

// Survival returns the probability of living from the current age to age x
func (m *Mortality) Survival(x float64) float64 {
	if x <= m.currentAge {
		return 1
	}
	return math.Exp(-m.scale * m.cumulativeHazard(x))
}

// DeathAge inverts the survival curve at u. The result is the age during which death occurs,
// capped at the table maximum.
func (m *Mortality) DeathAge(u float64) int {
	target := -math.Log(1-u) / m.scale
	hi := float64(m.maxAge + 1)
	if m.cumulativeHazard(hi) <= target {
		return m.maxAge
	}
	lo := m.currentAge
	for i := 0; i < 60 && hi-lo > 1e-9; i++ {
		mid := (lo + hi) / 2
		if m.cumulativeHazard(mid) < target {
			lo = mid
		} else {
			hi = mid
		}
	}
	age := int(math.Floor(lo))
	if age > m.maxAge {
		age = m.maxAge
	}
	if age < int(m.currentAge) {
		age = int(m.currentAge)
	}
	return age
}
