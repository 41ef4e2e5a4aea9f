// Package withdrawal turns a year's spending need into bucket withdrawals, grossing the draw
// up for the taxes it triggers.
package withdrawal

import (
	"math"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/sequencing"
)

const (
	maxPasses      = 6
	grossTolerance = 1.0
)

// YearInput is everything the solver needs about one year
type YearInput struct {
	// Expenses are all cash outflows other than income taxes
	Expenses float64
	// Wages and TaxablePensions are ordinary income received outside the portfolio
	Wages           float64
	TaxablePensions float64
	// NontaxableIncome is received outside the portfolio and never taxed
	NontaxableIncome float64
	SocialSecurity   float64
	RMD              float64
	FilingStatus     string
	Seniors          int
	InflationIndex   float64
}

// Income returns total non-portfolio cash income
func (in YearInput) Income() float64 {
	return in.Wages + in.TaxablePensions + in.NontaxableIncome + in.SocialSecurity
}

// Outcome is the solved withdrawal for one year
type Outcome struct {
	Plan sequencing.WithdrawalPlan
	RMD  float64
	Tax  TaxResult
	// PortfolioDraw is the RMD plus everything the plan sourced
	PortfolioDraw float64
	// Reinvested is after-tax surplus returned to the taxable bucket
	Reinvested float64
	Shortfall  float64
	Passes     int
}

// Strategy combines a sequencing order with the tax calculator
type Strategy struct {
	sequencer sequencing.SequencingStrategy
	taxes     *TaxCalculator
}

// NewStrategy creates the solver. The withdrawal order is validated here so a bad sequence
// surfaces as a validation error before any trial runs.
func NewStrategy(params *domain.SimulationParameters, tables *domain.Tables) (*Strategy, error) {
	seq, err := sequencing.CreateStrategy(params.WithdrawalStrategy, params.WithdrawalSequence)
	if err != nil {
		field := "withdrawal_strategy"
		if len(params.WithdrawalSequence) > 0 {
			field = "withdrawal_sequence"
		}
		v := &domain.ValidationError{}
		v.Add(field, "%v", err)
		return nil, v
	}
	return &Strategy{
		sequencer: seq,
		taxes:     NewTaxCalculator(tables, params.Tax.State, params.Tax.EffectiveRate),
	}, nil
}

// Solve finds the portfolio draw that covers expenses plus the taxes the draw itself causes.
// It iterates at most maxPasses times and stops once successive draws agree within a dollar.
// b is not modified.
func (s *Strategy) Solve(b domain.Balances, in YearInput) Outcome {
	rmd := min(max(0, in.RMD), b.TaxDeferred)
	rest := b
	rest.TaxDeferred -= rmd
	sources := sequencing.CreateWithdrawalSources(rest)
	income := in.Income()

	out := Outcome{RMD: rmd}
	draw := math.Max(0, in.Expenses-income-rmd)
	for out.Passes < maxPasses {
		out.Passes++
		out.Plan = s.sequencer.Plan(sources, draw)
		out.Tax = s.tax(in, rmd, out.Plan)
		next := math.Max(0, in.Expenses+out.Tax.Total()-income-rmd)
		converged := math.Abs(next-draw) < grossTolerance
		draw = next
		if converged {
			break
		}
	}
	out.Plan = s.sequencer.Plan(sources, draw)
	out.Tax = s.tax(in, rmd, out.Plan)

	out.PortfolioDraw = rmd + out.Plan.TotalSourced
	out.Shortfall = out.Plan.RemainingNeed
	if surplus := income + out.PortfolioDraw - in.Expenses - out.Tax.Total(); surplus > grossTolerance {
		out.Reinvested = surplus
	}
	return out
}

// Execute debits the solved withdrawal from b and reinvests any surplus
func (s *Strategy) Execute(b *domain.Balances, out Outcome) {
	b.TaxDeferred = math.Max(0, b.TaxDeferred-out.RMD)
	sequencing.Apply(b, out.Plan)
	sequencing.Reinvest(b, out.Reinvested)
}

func (s *Strategy) tax(in YearInput, rmd float64, plan sequencing.WithdrawalPlan) TaxResult {
	return s.taxes.Compute(TaxInput{
		Wages:            in.Wages,
		RetirementIncome: in.TaxablePensions + rmd + plan.EstimatedOrdinaryIncome,
		CapitalGains:     plan.EstimatedCapitalGains,
		SocialSecurity:   in.SocialSecurity,
		FilingStatus:     in.FilingStatus,
		Seniors:          in.Seniors,
		InflationIndex:   in.InflationIndex,
	})
}
