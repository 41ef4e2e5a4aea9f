package output

import (
	"fmt"
	"strings"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/sequencing"
	"github.com/shopspring/decimal"
)

// BuildAssumptions lists the key modeling assumptions behind a run, in the order the
// console report prints them
func BuildAssumptions(params *domain.SimulationParameters, tables *domain.Tables) []string {
	if params == nil {
		return nil
	}
	pct := func(d decimal.Decimal) string {
		return d.Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
	}

	cm := params.CapitalMarkets
	out := []string{
		fmt.Sprintf("General inflation: %s mean, sampled yearly", pct(params.InflationRate)),
		fmt.Sprintf("Healthcare inflation: %s above general inflation", pct(params.HealthcareInflationDifferential)),
		fmt.Sprintf("Expected returns: stocks %s (vol %s), bonds %s (vol %s), cash %s",
			pct(cm.Stocks.ExpectedReturn), pct(cm.Stocks.Volatility),
			pct(cm.Bonds.ExpectedReturn), pct(cm.Bonds.Volatility),
			pct(cm.Cash.ExpectedReturn)),
		fmt.Sprintf("Allocation: %s stocks / %s bonds / %s cash",
			pct(params.Allocation.Stocks), pct(params.Allocation.Bonds), pct(params.Allocation.Cash)),
	}

	g := params.Guardrails.WithDefaults()
	out = append(out, fmt.Sprintf("Withdrawals: %s initial rate, guardrails ±%s/%s with %s adjustments, floor %s of baseline",
		pct(params.WithdrawalRate), pct(g.UpperThreshold), pct(g.LowerThreshold), pct(g.Adjustment), pct(g.EssentialFloor)))

	if seq, err := sequencing.CreateStrategy(params.WithdrawalStrategy, params.WithdrawalSequence); err == nil {
		out = append(out, fmt.Sprintf("Withdrawal order (%s): %s", seq.Name(), strings.Join(seq.Order(), ", ")))
	}

	if params.IsCouple() {
		out = append(out, fmt.Sprintf("Survivor spending: %s of household spending after the first death",
			pct(params.EffectiveSurvivorSpendingFactor())))
	}

	if rate := params.Tax.EffectiveRate; rate != nil {
		out = append(out, fmt.Sprintf("Taxes: flat %s effective rate", pct(*rate)))
	} else {
		state := params.Tax.State
		if state == "" {
			state = "none"
		}
		out = append(out, fmt.Sprintf("Taxes: federal brackets (%s), state %s, thresholds indexed to inflation", params.FilingStatus(), state))
	}

	if params.LTCInsurance == nil {
		out = append(out, "Long-term care: self-funded")
	} else {
		ins := params.LTCInsurance.WithDefaults()
		out = append(out, fmt.Sprintf("Long-term care: insured at $%s/day for %d years after %d days",
			ins.DailyBenefit.StringFixed(0), ins.BenefitPeriodYears, ins.Elimination()))
	}

	s := params.EffectiveSampling()
	var techniques []string
	if s.Antithetic {
		techniques = append(techniques, "antithetic variates")
	}
	if s.LatinHypercube {
		techniques = append(techniques, "Latin hypercube")
	}
	if s.ControlVariate {
		techniques = append(techniques, "control variate")
	}
	if len(techniques) == 0 {
		techniques = append(techniques, "plain Monte Carlo")
	}
	out = append(out, "Sampling: "+strings.Join(techniques, ", "))

	if tables != nil {
		out = append(out, "Tables version: "+tables.Version)
	}
	return out
}
