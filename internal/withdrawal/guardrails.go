package withdrawal

import (
	"github.com/rgehrsitz/viability/internal/domain"
)

// Guardrails applies the Guyton-Klinger decision rules to annual spending
type Guardrails struct {
	upper, lower, adjustment, floor float64
	skipInflationAfterLoss          bool
	referenceRate                   float64
}

// NewGuardrails converts the configuration; withdrawalRate of zero means the first retired
// year's rate becomes the reference
func NewGuardrails(cfg domain.GuardrailConfig, withdrawalRate float64) *Guardrails {
	cfg = cfg.WithDefaults()
	return &Guardrails{
		upper:                  cfg.UpperThreshold.InexactFloat64(),
		lower:                  cfg.LowerThreshold.InexactFloat64(),
		adjustment:             cfg.Adjustment.InexactFloat64(),
		floor:                  cfg.EssentialFloor.InexactFloat64(),
		skipInflationAfterLoss: cfg.SkipInflationAfterLoss,
		referenceRate:          withdrawalRate,
	}
}

// GuardrailState is the per-trial spending state
type GuardrailState struct {
	// Spending is the current nominal spending target
	Spending float64
	// Baseline is the initial target carried forward by realized inflation
	Baseline      float64
	ReferenceRate float64
	Cuts, Raises  int
	started       bool
}

// Floor returns the essential spending floor for the current year
func (g *Guardrails) Floor(st *GuardrailState) float64 {
	return g.floor * st.Baseline
}

// Start sets the first retired year's spending
func (g *Guardrails) Start(st *GuardrailState, spending float64) {
	st.Spending = spending
	st.Baseline = spending
	st.ReferenceRate = g.referenceRate
	st.started = true
}

// Started reports whether Start has run
func (st *GuardrailState) Started() bool {
	return st.started
}

// Inflate carries spending into a new year. The baseline always follows inflation; spending
// is frozen after a losing year when configured.
func (g *Guardrails) Inflate(st *GuardrailState, inflation, priorReturn float64) string {
	st.Baseline *= 1 + inflation
	if g.skipInflationAfterLoss && priorReturn < 0 {
		return domain.GuardrailFrozen
	}
	st.Spending *= 1 + inflation
	return domain.GuardrailInflation
}

// Adjust compares the current withdrawal rate to the reference and applies a cut or raise,
// then enforces the floor. portfolioFunded is the part of spending guaranteed income does
// not cover. The first call with no reference rate only records it.
func (g *Guardrails) Adjust(st *GuardrailState, portfolioFunded, balance float64, action string) string {
	if balance > 0 && portfolioFunded > 0 {
		rate := portfolioFunded / balance
		switch {
		case st.ReferenceRate <= 0:
			st.ReferenceRate = rate
		case rate > st.ReferenceRate*(1+g.upper):
			st.Spending *= 1 - g.adjustment
			st.Cuts++
			action = domain.GuardrailCut
		case rate < st.ReferenceRate*(1-g.lower):
			st.Spending *= 1 + g.adjustment
			st.Raises++
			action = domain.GuardrailRaise
		}
	}
	if floor := g.Floor(st); st.Spending < floor {
		st.Spending = floor
		action = domain.GuardrailFloor
	}
	return action
}
