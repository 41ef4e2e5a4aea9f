package domain

import (
	"github.com/shopspring/decimal"
)

// Filing statuses understood by the tax tables
const (
	FilingSingle = "single"
	FilingMFJ    = "mfj"
)

// Asset class identifiers, in the order used by correlation matrices and return paths
const (
	AssetStocks = "stocks"
	AssetBonds  = "bonds"
	AssetCash   = "cash"
)

// AssetClasses lists the modelled asset classes in canonical order
var AssetClasses = []string{AssetStocks, AssetBonds, AssetCash}

// SimulationParameters is the frozen household snapshot a simulation request runs against.
// Money amounts are annual and expressed in today's dollars unless noted otherwise.
type SimulationParameters struct {
	Name      string    `yaml:"name" json:"name"`
	Household Household `yaml:"household" json:"household"`

	RetirementAge  int `yaml:"retirement_age" json:"retirementAge"`
	LifeExpectancy int `yaml:"life_expectancy" json:"lifeExpectancy"`

	// CurrentRetirementAssets is the total investable portfolio. When Buckets is empty the
	// whole amount is treated as tax-deferred.
	CurrentRetirementAssets decimal.Decimal `yaml:"current_retirement_assets" json:"currentRetirementAssets"`
	Buckets                 AssetBuckets    `yaml:"buckets" json:"buckets"`

	AnnualSavings     decimal.Decimal `yaml:"annual_savings" json:"annualSavings"`
	SavingsGrowthRate decimal.Decimal `yaml:"savings_growth_rate" json:"savingsGrowthRate"`
	SavingsSplit      *SavingsSplit   `yaml:"savings_split,omitempty" json:"savingsSplit,omitempty"`

	AnnualRetirementExpenses        decimal.Decimal `yaml:"annual_retirement_expenses" json:"annualRetirementExpenses"`
	AnnualHealthcareExpenses        decimal.Decimal `yaml:"annual_healthcare_expenses" json:"annualHealthcareExpenses"`
	InflationRate                   decimal.Decimal `yaml:"inflation_rate" json:"inflationRate"`
	HealthcareInflationDifferential decimal.Decimal `yaml:"healthcare_inflation_differential" json:"healthcareInflationDifferential"`
	SurvivorSpendingFactor          decimal.Decimal `yaml:"survivor_spending_factor" json:"survivorSpendingFactor"`

	Allocation     Allocation      `yaml:"allocation" json:"allocation"`
	CapitalMarkets CapitalMarkets  `yaml:"capital_markets" json:"capitalMarkets"`
	WithdrawalRate decimal.Decimal `yaml:"withdrawal_rate" json:"withdrawalRate"`

	// WithdrawalStrategy is "standard" or "tax_efficient"; WithdrawalSequence overrides both
	WithdrawalStrategy string   `yaml:"withdrawal_strategy,omitempty" json:"withdrawalStrategy,omitempty"`
	WithdrawalSequence []string `yaml:"withdrawal_sequence,omitempty" json:"withdrawalSequence,omitempty"`

	Guardrails     GuardrailConfig  `yaml:"guardrails" json:"guardrails"`
	Tax            TaxProfile       `yaml:"tax" json:"tax"`
	PartTimeIncome *PartTimeIncome  `yaml:"part_time_income,omitempty" json:"partTimeIncome,omitempty"`
	IncomeStreams  []IncomeStream   `yaml:"income_streams,omitempty" json:"incomeStreams,omitempty"`
	LTCInsurance   *LTCInsurance    `yaml:"ltc_insurance,omitempty" json:"ltcInsurance,omitempty"`
	Sampling       *SamplingOptions `yaml:"sampling,omitempty" json:"sampling,omitempty"`
}

// Household holds the primary participant and an optional spouse
type Household struct {
	User   Person  `yaml:"user" json:"user"`
	Spouse *Person `yaml:"spouse,omitempty" json:"spouse,omitempty"`
}

// Person is a household member
type Person struct {
	Name       string `yaml:"name" json:"name"`
	CurrentAge int    `yaml:"current_age" json:"currentAge"`
	// Sex selects the mortality table: "male", "female" or empty for unisex
	Sex string `yaml:"sex,omitempty" json:"sex,omitempty"`
	// LifeExpectancy overrides the household baseline for this person when > 0
	LifeExpectancy int            `yaml:"life_expectancy,omitempty" json:"lifeExpectancy,omitempty"`
	SocialSecurity SocialSecurity `yaml:"social_security" json:"socialSecurity"`
}

// SocialSecurity describes a stated benefit and the claiming decision
type SocialSecurity struct {
	AnnualBenefitAtFRA decimal.Decimal `yaml:"annual_benefit_at_fra" json:"annualBenefitAtFra"`
	ClaimAge           int             `yaml:"claim_age" json:"claimAge"`
	FullRetirementAge  int             `yaml:"full_retirement_age,omitempty" json:"fullRetirementAge,omitempty"`
}

// AssetBuckets holds balances by tax treatment
type AssetBuckets struct {
	Cash         decimal.Decimal `yaml:"cash" json:"cash"`
	Taxable      decimal.Decimal `yaml:"taxable" json:"taxable"`
	TaxableBasis decimal.Decimal `yaml:"taxable_basis" json:"taxableBasis"`
	TaxDeferred  decimal.Decimal `yaml:"tax_deferred" json:"taxDeferred"`
	TaxFree      decimal.Decimal `yaml:"tax_free" json:"taxFree"`
}

// Total returns the sum of all bucket balances (basis excluded)
func (b AssetBuckets) Total() decimal.Decimal {
	return b.Cash.Add(b.Taxable).Add(b.TaxDeferred).Add(b.TaxFree)
}

// IsZero reports whether every bucket is empty
func (b AssetBuckets) IsZero() bool {
	return b.Total().IsZero()
}

// SavingsSplit distributes contributions across buckets; fractions must sum to 1
type SavingsSplit struct {
	Cash        decimal.Decimal `yaml:"cash" json:"cash"`
	Taxable     decimal.Decimal `yaml:"taxable" json:"taxable"`
	TaxDeferred decimal.Decimal `yaml:"tax_deferred" json:"taxDeferred"`
	TaxFree     decimal.Decimal `yaml:"tax_free" json:"taxFree"`
}

// Allocation holds portfolio weights by asset class
type Allocation struct {
	Stocks decimal.Decimal `yaml:"stocks" json:"stocks"`
	Bonds  decimal.Decimal `yaml:"bonds" json:"bonds"`
	Cash   decimal.Decimal `yaml:"cash" json:"cash"`
}

// Sum returns the total of all weights
func (a Allocation) Sum() decimal.Decimal {
	return a.Stocks.Add(a.Bonds).Add(a.Cash)
}

// Weights returns the weights in AssetClasses order
func (a Allocation) Weights() []float64 {
	return []float64{a.Stocks.InexactFloat64(), a.Bonds.InexactFloat64(), a.Cash.InexactFloat64()}
}

// AssetAssumption is the return model for one asset class
type AssetAssumption struct {
	ExpectedReturn decimal.Decimal `yaml:"expected_return" json:"expectedReturn"`
	Volatility     decimal.Decimal `yaml:"volatility" json:"volatility"`
	// MeanReversion is the AR(1) persistence of deviations from the mean (0 = iid)
	MeanReversion decimal.Decimal `yaml:"mean_reversion" json:"meanReversion"`
}

// CapitalMarkets holds per-asset-class return assumptions
type CapitalMarkets struct {
	Stocks AssetAssumption `yaml:"stocks" json:"stocks"`
	Bonds  AssetAssumption `yaml:"bonds" json:"bonds"`
	Cash   AssetAssumption `yaml:"cash" json:"cash"`
}

// ByClass returns the assumptions in AssetClasses order
func (cm CapitalMarkets) ByClass() []AssetAssumption {
	return []AssetAssumption{cm.Stocks, cm.Bonds, cm.Cash}
}

// GuardrailConfig parameterizes the Guyton-Klinger withdrawal rules.
// Zero values fall back to DefaultGuardrailConfig.
type GuardrailConfig struct {
	UpperThreshold         decimal.Decimal `yaml:"upper_threshold" json:"upperThreshold"`
	LowerThreshold         decimal.Decimal `yaml:"lower_threshold" json:"lowerThreshold"`
	Adjustment             decimal.Decimal `yaml:"adjustment" json:"adjustment"`
	EssentialFloor         decimal.Decimal `yaml:"essential_floor" json:"essentialFloor"`
	SkipInflationAfterLoss bool            `yaml:"skip_inflation_after_loss" json:"skipInflationAfterLoss"`
}

// DefaultGuardrailConfig returns the literature-standard guardrail settings
func DefaultGuardrailConfig() GuardrailConfig {
	return GuardrailConfig{
		UpperThreshold: decimal.NewFromFloat(0.20),
		LowerThreshold: decimal.NewFromFloat(0.20),
		Adjustment:     decimal.NewFromFloat(0.10),
		EssentialFloor: decimal.NewFromFloat(0.70),
	}
}

// WithDefaults fills zero fields from DefaultGuardrailConfig
func (g GuardrailConfig) WithDefaults() GuardrailConfig {
	d := DefaultGuardrailConfig()
	if g.UpperThreshold.IsZero() {
		g.UpperThreshold = d.UpperThreshold
	}
	if g.LowerThreshold.IsZero() {
		g.LowerThreshold = d.LowerThreshold
	}
	if g.Adjustment.IsZero() {
		g.Adjustment = d.Adjustment
	}
	if g.EssentialFloor.IsZero() {
		g.EssentialFloor = d.EssentialFloor
	}
	return g
}

// TaxProfile selects tax tables for the household
type TaxProfile struct {
	FilingStatus string `yaml:"filing_status" json:"filingStatus"`
	State        string `yaml:"state" json:"state"`
	// EffectiveRate, when set, replaces the bracket calculation with a flat rate on taxable income
	EffectiveRate *decimal.Decimal `yaml:"effective_rate,omitempty" json:"effectiveRate,omitempty"`
	// PreRetirementIncome seeds the Medicare surcharge lookback window
	PreRetirementIncome decimal.Decimal `yaml:"pre_retirement_income" json:"preRetirementIncome"`
}

// PartTimeIncome is earned income during early retirement
type PartTimeIncome struct {
	AnnualAmount decimal.Decimal `yaml:"annual_amount" json:"annualAmount"`
	StartAge     int             `yaml:"start_age" json:"startAge"`
	EndAge       int             `yaml:"end_age" json:"endAge"`
}

// IncomeStream is any other guaranteed income (pension, annuity, rental)
type IncomeStream struct {
	Name              string          `yaml:"name" json:"name"`
	AnnualAmount      decimal.Decimal `yaml:"annual_amount" json:"annualAmount"`
	StartAge          int             `yaml:"start_age" json:"startAge"`
	EndAge            int             `yaml:"end_age,omitempty" json:"endAge,omitempty"`
	InflationAdjusted bool            `yaml:"inflation_adjusted" json:"inflationAdjusted"`
	Taxable           bool            `yaml:"taxable" json:"taxable"`
}

// ActiveAt reports whether the stream pays at the given age
func (s IncomeStream) ActiveAt(age int) bool {
	if age < s.StartAge {
		return false
	}
	return s.EndAge == 0 || age <= s.EndAge
}

// Policy defaults applied when a field is omitted
const (
	DefaultEliminationDays    = 90
	DefaultBenefitPeriodYears = 3
)

// LTCInsurance describes a long-term-care policy
type LTCInsurance struct {
	DailyBenefit decimal.Decimal `yaml:"daily_benefit" json:"dailyBenefit"`
	// EliminationDays is nil when omitted; an explicit zero means benefits start immediately
	EliminationDays    *int            `yaml:"elimination_days,omitempty" json:"eliminationDays,omitempty"`
	BenefitPeriodYears int             `yaml:"benefit_period_years" json:"benefitPeriodYears"`
	InflationRider     decimal.Decimal `yaml:"inflation_rider" json:"inflationRider"`
	AnnualPremium      decimal.Decimal `yaml:"annual_premium" json:"annualPremium"`
	// PurchaseAge is the user's age when the policy started; defaults to the current age
	PurchaseAge          int  `yaml:"purchase_age,omitempty" json:"purchaseAge,omitempty"`
	PremiumWaiverOnClaim bool `yaml:"premium_waiver_on_claim" json:"premiumWaiverOnClaim"`
}

// DefaultLTCInsurance returns a typical policy used by the gap analysis
func DefaultLTCInsurance() LTCInsurance {
	return LTCInsurance{
		DailyBenefit:         decimal.NewFromInt(200),
		InflationRider:       decimal.NewFromFloat(0.03),
		AnnualPremium:        decimal.NewFromInt(3500),
		PremiumWaiverOnClaim: true,
	}.WithDefaults()
}

// WithDefaults fills an omitted elimination period and benefit period
func (l LTCInsurance) WithDefaults() LTCInsurance {
	if l.EliminationDays == nil {
		days := DefaultEliminationDays
		l.EliminationDays = &days
	} else {
		days := *l.EliminationDays
		l.EliminationDays = &days
	}
	if l.BenefitPeriodYears == 0 {
		l.BenefitPeriodYears = DefaultBenefitPeriodYears
	}
	return l
}

// Elimination returns the elimination period in days
func (l LTCInsurance) Elimination() int {
	if l.EliminationDays == nil {
		return DefaultEliminationDays
	}
	return *l.EliminationDays
}

// SamplingOptions toggles the variance-reduction techniques
type SamplingOptions struct {
	Antithetic     bool `yaml:"antithetic" json:"antithetic"`
	LatinHypercube bool `yaml:"latin_hypercube" json:"latinHypercube"`
	ControlVariate bool `yaml:"control_variate" json:"controlVariate"`
}

// DefaultSamplingOptions enables every technique
func DefaultSamplingOptions() SamplingOptions {
	return SamplingOptions{Antithetic: true, LatinHypercube: true, ControlVariate: true}
}

// IsCouple reports whether the household has a spouse
func (p *SimulationParameters) IsCouple() bool {
	return p.Household.Spouse != nil
}

// TotalAssets returns the bucket total, or CurrentRetirementAssets when no buckets are given
func (p *SimulationParameters) TotalAssets() decimal.Decimal {
	if p.Buckets.IsZero() {
		return p.CurrentRetirementAssets
	}
	return p.Buckets.Total()
}

// EffectiveBuckets returns the starting buckets, placing CurrentRetirementAssets in the
// tax-deferred bucket when no breakdown was supplied
func (p *SimulationParameters) EffectiveBuckets() AssetBuckets {
	if p.Buckets.IsZero() {
		return AssetBuckets{TaxDeferred: p.CurrentRetirementAssets}
	}
	return p.Buckets
}

// EffectiveSavingsSplit returns the contribution split, defaulting to all tax-deferred
func (p *SimulationParameters) EffectiveSavingsSplit() SavingsSplit {
	if p.SavingsSplit == nil {
		return SavingsSplit{TaxDeferred: decimal.NewFromInt(1)}
	}
	return *p.SavingsSplit
}

// EffectiveSampling returns the sampling options, all enabled when unset
func (p *SimulationParameters) EffectiveSampling() SamplingOptions {
	if p.Sampling == nil {
		return DefaultSamplingOptions()
	}
	return *p.Sampling
}

// EffectiveSurvivorSpendingFactor defaults to 0.8 when unset
func (p *SimulationParameters) EffectiveSurvivorSpendingFactor() decimal.Decimal {
	if p.SurvivorSpendingFactor.IsZero() {
		return decimal.NewFromFloat(0.8)
	}
	return p.SurvivorSpendingFactor
}

// FilingStatus returns the configured status, inferring it from the household when empty
func (p *SimulationParameters) FilingStatus() string {
	if p.Tax.FilingStatus != "" {
		return p.Tax.FilingStatus
	}
	if p.IsCouple() {
		return FilingMFJ
	}
	return FilingSingle
}

// PreRetirementIncome returns the configured lookback seed, falling back to expenses plus savings
func (p *SimulationParameters) PreRetirementIncome() decimal.Decimal {
	if !p.Tax.PreRetirementIncome.IsZero() {
		return p.Tax.PreRetirementIncome
	}
	return p.AnnualRetirementExpenses.Add(p.AnnualSavings)
}

// LifeExpectancyFor returns the person's life expectancy baseline. Without an override a
// spouse gets the same remaining years as the user.
func (p *SimulationParameters) LifeExpectancyFor(person Person) int {
	if person.LifeExpectancy > 0 {
		return person.LifeExpectancy
	}
	return p.LifeExpectancy + person.CurrentAge - p.Household.User.CurrentAge
}

// DeepCopy returns a copy that shares no mutable state with p
func (p *SimulationParameters) DeepCopy() *SimulationParameters {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Household.Spouse != nil {
		spouse := *p.Household.Spouse
		cp.Household.Spouse = &spouse
	}
	if p.SavingsSplit != nil {
		split := *p.SavingsSplit
		cp.SavingsSplit = &split
	}
	if p.Tax.EffectiveRate != nil {
		rate := *p.Tax.EffectiveRate
		cp.Tax.EffectiveRate = &rate
	}
	if p.PartTimeIncome != nil {
		pt := *p.PartTimeIncome
		cp.PartTimeIncome = &pt
	}
	if p.WithdrawalSequence != nil {
		cp.WithdrawalSequence = append([]string(nil), p.WithdrawalSequence...)
	}
	if p.IncomeStreams != nil {
		cp.IncomeStreams = append([]IncomeStream(nil), p.IncomeStreams...)
	}
	if p.LTCInsurance != nil {
		policy := *p.LTCInsurance
		if policy.EliminationDays != nil {
			days := *policy.EliminationDays
			policy.EliminationDays = &days
		}
		cp.LTCInsurance = &policy
	}
	if p.Sampling != nil {
		s := *p.Sampling
		cp.Sampling = &s
	}
	return &cp
}
