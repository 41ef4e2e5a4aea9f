package withdrawal

import (
	"math"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// TAX CALCULATION ASSUMPTIONS:
//
//  1. Federal brackets, standard deductions and capital-gains brackets come from the tables and
//     are indexed each year by the trial's cumulative inflation.
//  2. Social Security provisional-income thresholds are statutory and not indexed.
//  3. Long-term capital gains stack on top of ordinary taxable income.
//  4. State tax has no deduction; exemptions for Social Security and retirement income are
//     per state. Brackets, when present, are indexed like federal ones.
//  5. A flat effective rate, when configured, replaces both federal and state calculations.

type bracket struct {
	min, max, rate float64
}

func toBrackets(in []domain.TaxBracket) []bracket {
	out := make([]bracket, len(in))
	for i, b := range in {
		out[i] = bracket{min: b.Min.InexactFloat64(), max: b.Max.InexactFloat64(), rate: b.Rate.InexactFloat64()}
		if out[i].max == 0 {
			out[i].max = math.Inf(1)
		}
	}
	return out
}

type filingBrackets struct {
	single, mfj []bracket
}

func (f filingBrackets) forStatus(status string) []bracket {
	if status == domain.FilingMFJ {
		return f.mfj
	}
	return f.single
}

func toFiling(t domain.FilingTable) filingBrackets {
	return filingBrackets{single: toBrackets(t.Single), mfj: toBrackets(t.MFJ)}
}

// TaxInput is one year of household income in nominal dollars
type TaxInput struct {
	Wages            float64
	RetirementIncome float64 // tax-deferred withdrawals, required distributions, taxable pensions
	CapitalGains     float64
	SocialSecurity   float64
	FilingStatus     string
	Seniors          int
	InflationIndex   float64
}

// TaxResult breaks down one year's income taxes
type TaxResult struct {
	Federal   float64
	State     float64
	TaxableSS float64
	AGI       float64
}

// Total returns federal plus state tax
func (r TaxResult) Total() float64 {
	return r.Federal + r.State
}

// TaxCalculator computes household income taxes from the tables
type TaxCalculator struct {
	stdSingle, stdMFJ, addl65 float64
	ordinary, gains           filingBrackets
	ssSingle, ssMFJ           [2]float64

	state         domain.StateTax
	stateRate     float64
	stateBrackets *filingBrackets
	stateCap      float64

	effectiveRate *float64
}

// NewTaxCalculator builds a calculator for a state; effectiveRate may be nil
func NewTaxCalculator(tables *domain.Tables, state string, effectiveRate *decimal.Decimal) *TaxCalculator {
	fed := tables.FederalTax
	ss := tables.SocialSecurity
	c := &TaxCalculator{
		stdSingle: fed.StandardDeductionSingle.InexactFloat64(),
		stdMFJ:    fed.StandardDeductionMFJ.InexactFloat64(),
		addl65:    fed.AdditionalDeduction65Plus.InexactFloat64(),
		ordinary:  toFiling(fed.OrdinaryBrackets),
		gains:     toFiling(fed.CapitalGainsBrackets),
		ssSingle:  [2]float64{ss.TaxationSingle.Threshold1.InexactFloat64(), ss.TaxationSingle.Threshold2.InexactFloat64()},
		ssMFJ:     [2]float64{ss.TaxationMFJ.Threshold1.InexactFloat64(), ss.TaxationMFJ.Threshold2.InexactFloat64()},
	}
	if st, ok := tables.States[state]; ok {
		c.state = st
		c.stateRate = st.Rate.InexactFloat64()
		c.stateCap = st.RetirementExclusionCap.InexactFloat64()
		if st.Brackets != nil {
			fb := toFiling(*st.Brackets)
			c.stateBrackets = &fb
		}
	}
	if effectiveRate != nil {
		r := effectiveRate.InexactFloat64()
		c.effectiveRate = &r
	}
	return c
}

// TaxableSocialSecurity applies the provisional-income rules
func (c *TaxCalculator) TaxableSocialSecurity(benefits, otherIncome float64, status string) float64 {
	if benefits <= 0 {
		return 0
	}
	t := c.ssSingle
	if status == domain.FilingMFJ {
		t = c.ssMFJ
	}
	provisional := otherIncome + 0.5*benefits
	switch {
	case provisional <= t[0]:
		return 0
	case provisional <= t[1]:
		return math.Min(0.5*benefits, 0.5*(provisional-t[0]))
	default:
		base := math.Min(0.5*benefits, 0.5*(t[1]-t[0]))
		return math.Min(0.85*benefits, 0.85*(provisional-t[1])+base)
	}
}

// Compute returns the year's taxes
func (c *TaxCalculator) Compute(in TaxInput) TaxResult {
	idx := in.InflationIndex
	if idx <= 0 {
		idx = 1
	}
	ordinaryIncome := in.Wages + in.RetirementIncome
	taxableSS := c.TaxableSocialSecurity(in.SocialSecurity, ordinaryIncome+in.CapitalGains, in.FilingStatus)
	res := TaxResult{TaxableSS: taxableSS, AGI: ordinaryIncome + in.CapitalGains + taxableSS}

	deduction := c.stdSingle
	if in.FilingStatus == domain.FilingMFJ {
		deduction = c.stdMFJ
	}
	deduction = (deduction + float64(in.Seniors)*c.addl65) * idx

	ordinaryTaxable := ordinaryIncome + taxableSS - deduction
	gainsTaxable := in.CapitalGains
	if ordinaryTaxable < 0 {
		gainsTaxable = math.Max(0, gainsTaxable+ordinaryTaxable)
		ordinaryTaxable = 0
	}

	if c.effectiveRate != nil {
		res.Federal = *c.effectiveRate * (ordinaryTaxable + gainsTaxable)
		return res
	}

	res.Federal = progressive(c.ordinary.forStatus(in.FilingStatus), 0, ordinaryTaxable, idx) +
		progressive(c.gains.forStatus(in.FilingStatus), ordinaryTaxable, ordinaryTaxable+gainsTaxable, idx)
	res.State = c.stateTax(in, taxableSS, idx)
	return res
}

func (c *TaxCalculator) stateTax(in TaxInput, taxableSS, idx float64) float64 {
	base := in.Wages + in.RetirementIncome + in.CapitalGains
	if !c.state.SocialSecurityExempt {
		base += taxableSS
	}
	if c.state.RetirementIncomeExempt {
		exempt := in.RetirementIncome
		if c.stateCap > 0 {
			exempt = math.Min(exempt, c.stateCap*idx)
		}
		base -= exempt
	}
	if base <= 0 {
		return 0
	}
	if c.stateBrackets != nil {
		return progressive(c.stateBrackets.forStatus(in.FilingStatus), 0, base, idx)
	}
	return base * c.stateRate
}

// progressive taxes the slice of income between from and to
func progressive(brackets []bracket, from, to, idx float64) float64 {
	if to <= from {
		return 0
	}
	var tax float64
	for _, b := range brackets {
		lo, hi := b.min*idx, b.max*idx
		overlap := math.Min(to, hi) - math.Max(from, lo)
		if overlap > 0 {
			tax += overlap * b.rate
		}
	}
	return tax
}
