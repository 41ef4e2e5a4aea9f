package domain

import (
	"strconv"

	"github.com/shopspring/decimal"
)

const allocationTolerance = 1e-6

var (
	one       = decimal.NewFromInt(1)
	oneDollar = decimal.NewFromInt(1)
)

// Validate checks the parameters for internal consistency. It returns a *ValidationError
// listing every problem, or nil.
func (p *SimulationParameters) Validate() error {
	v := &ValidationError{}

	validatePerson(v, "household.user", p.Household.User)
	if p.Household.Spouse != nil {
		validatePerson(v, "household.spouse", *p.Household.Spouse)
	}

	age := p.Household.User.CurrentAge
	if p.RetirementAge < age {
		v.Add("retirement_age", "must be at least current age %d, got %d", age, p.RetirementAge)
	}
	if p.LifeExpectancy <= age {
		v.Add("life_expectancy", "must be greater than current age %d, got %d", age, p.LifeExpectancy)
	}

	if p.CurrentRetirementAssets.IsNegative() {
		v.Add("current_retirement_assets", "cannot be negative")
	}
	validateBuckets(v, p)

	nonNegative(v, "annual_savings", p.AnnualSavings)
	nonNegative(v, "annual_retirement_expenses", p.AnnualRetirementExpenses)
	nonNegative(v, "annual_healthcare_expenses", p.AnnualHealthcareExpenses)
	nonNegative(v, "withdrawal_rate", p.WithdrawalRate)
	if p.InflationRate.LessThan(decimal.NewFromFloat(-0.05)) || p.InflationRate.GreaterThan(decimal.NewFromFloat(0.25)) {
		v.Add("inflation_rate", "must be between -0.05 and 0.25")
	}
	if !p.SurvivorSpendingFactor.IsZero() && !between(p.SurvivorSpendingFactor, decimal.Zero, one) {
		v.Add("survivor_spending_factor", "must be between 0 and 1")
	}

	if p.SavingsSplit != nil {
		s := p.SavingsSplit
		nonNegative(v, "savings_split.cash", s.Cash)
		nonNegative(v, "savings_split.taxable", s.Taxable)
		nonNegative(v, "savings_split.tax_deferred", s.TaxDeferred)
		nonNegative(v, "savings_split.tax_free", s.TaxFree)
		sum := s.Cash.Add(s.Taxable).Add(s.TaxDeferred).Add(s.TaxFree)
		if sum.Sub(one).Abs().InexactFloat64() > allocationTolerance {
			v.Add("savings_split", "fractions must sum to 1, got %s", sum.String())
		}
	}

	validateAllocation(v, p.Allocation)
	for i, a := range p.CapitalMarkets.ByClass() {
		field := "capital_markets." + AssetClasses[i]
		if a.Volatility.IsNegative() {
			v.Add(field+".volatility", "cannot be negative")
		}
		if a.MeanReversion.IsNegative() || a.MeanReversion.GreaterThanOrEqual(one) {
			v.Add(field+".mean_reversion", "must be in [0, 1)")
		}
		if a.ExpectedReturn.LessThanOrEqual(decimal.NewFromFloat(-0.95)) {
			v.Add(field+".expected_return", "must be greater than -0.95")
		}
	}

	g := p.Guardrails.WithDefaults()
	fraction(v, "guardrails.upper_threshold", g.UpperThreshold)
	fraction(v, "guardrails.lower_threshold", g.LowerThreshold)
	fraction(v, "guardrails.adjustment", g.Adjustment)
	fraction(v, "guardrails.essential_floor", g.EssentialFloor)

	switch p.Tax.FilingStatus {
	case "", FilingSingle, FilingMFJ:
	default:
		v.Add("tax.filing_status", "must be %q or %q, got %q", FilingSingle, FilingMFJ, p.Tax.FilingStatus)
	}
	if p.Tax.EffectiveRate != nil && !between(*p.Tax.EffectiveRate, decimal.Zero, one) {
		v.Add("tax.effective_rate", "must be between 0 and 1")
	}
	nonNegative(v, "tax.pre_retirement_income", p.Tax.PreRetirementIncome)

	if pt := p.PartTimeIncome; pt != nil {
		nonNegative(v, "part_time_income.annual_amount", pt.AnnualAmount)
		if pt.EndAge < pt.StartAge {
			v.Add("part_time_income.end_age", "must not be before start_age")
		}
	}
	for i, s := range p.IncomeStreams {
		field := "income_streams[" + strconv.Itoa(i) + "]"
		nonNegative(v, field+".annual_amount", s.AnnualAmount)
		if s.EndAge != 0 && s.EndAge < s.StartAge {
			v.Add(field+".end_age", "must not be before start_age")
		}
	}

	if ins := p.LTCInsurance; ins != nil {
		if !ins.DailyBenefit.IsPositive() {
			v.Add("ltc_insurance.daily_benefit", "must be positive")
		}
		if days := ins.Elimination(); days < 0 || days > 365 {
			v.Add("ltc_insurance.elimination_days", "must be between 0 and 365")
		}
		if ins.BenefitPeriodYears < 0 {
			v.Add("ltc_insurance.benefit_period_years", "cannot be negative")
		}
		nonNegative(v, "ltc_insurance.annual_premium", ins.AnnualPremium)
		nonNegative(v, "ltc_insurance.inflation_rider", ins.InflationRider)
		if ins.PurchaseAge != 0 && ins.PurchaseAge > age {
			v.Add("ltc_insurance.purchase_age", "cannot be after current age")
		}
	}

	return v.OrNil()
}

func validatePerson(v *ValidationError, field string, person Person) {
	if person.CurrentAge <= 0 || person.CurrentAge > 110 {
		v.Add(field+".current_age", "must be between 1 and 110, got %d", person.CurrentAge)
	}
	switch person.Sex {
	case "", "male", "female":
	default:
		v.Add(field+".sex", "must be male, female or empty, got %q", person.Sex)
	}
	ss := person.SocialSecurity
	if ss.AnnualBenefitAtFRA.IsNegative() {
		v.Add(field+".social_security.annual_benefit_at_fra", "cannot be negative")
	}
	if ss.AnnualBenefitAtFRA.IsPositive() && (ss.ClaimAge < 62 || ss.ClaimAge > 70) {
		v.Add(field+".social_security.claim_age", "must be between 62 and 70, got %d", ss.ClaimAge)
	}
	if ss.FullRetirementAge != 0 && (ss.FullRetirementAge < 65 || ss.FullRetirementAge > 67) {
		v.Add(field+".social_security.full_retirement_age", "must be between 65 and 67")
	}
}

func validateBuckets(v *ValidationError, p *SimulationParameters) {
	b := p.Buckets
	nonNegative(v, "buckets.cash", b.Cash)
	nonNegative(v, "buckets.taxable", b.Taxable)
	nonNegative(v, "buckets.taxable_basis", b.TaxableBasis)
	nonNegative(v, "buckets.tax_deferred", b.TaxDeferred)
	nonNegative(v, "buckets.tax_free", b.TaxFree)
	if b.TaxableBasis.GreaterThan(b.Taxable) {
		v.Add("buckets.taxable_basis", "cannot exceed the taxable balance")
	}
	if !b.IsZero() && !p.CurrentRetirementAssets.IsZero() {
		if b.Total().Sub(p.CurrentRetirementAssets).Abs().GreaterThan(oneDollar) {
			v.Add("buckets", "sum %s does not match current_retirement_assets %s",
				b.Total().StringFixed(2), p.CurrentRetirementAssets.StringFixed(2))
		}
	}
}

func validateAllocation(v *ValidationError, a Allocation) {
	nonNegative(v, "allocation.stocks", a.Stocks)
	nonNegative(v, "allocation.bonds", a.Bonds)
	nonNegative(v, "allocation.cash", a.Cash)
	if a.Sum().Sub(one).Abs().InexactFloat64() > allocationTolerance {
		v.Add("allocation", "weights must sum to 1, got %s", a.Sum().String())
	}
}

func nonNegative(v *ValidationError, field string, d decimal.Decimal) {
	if d.IsNegative() {
		v.Add(field, "cannot be negative")
	}
}

func fraction(v *ValidationError, field string, d decimal.Decimal) {
	if !between(d, decimal.Zero, one) {
		v.Add(field, "must be between 0 and 1")
	}
}

func between(d, lo, hi decimal.Decimal) bool {
	return d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi)
}
