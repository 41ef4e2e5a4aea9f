package domain

import (
	"github.com/shopspring/decimal"
)

// Tables holds every static table the engine reads. It is loaded once from versioned YAML
// and shared read-only across trials.
type Tables struct {
	Version        string              `yaml:"version" json:"version"`
	FederalTax     FederalTaxRules     `yaml:"federal_tax" json:"federalTax"`
	SocialSecurity SocialSecurityRules `yaml:"social_security" json:"socialSecurity"`
	States         map[string]StateTax `yaml:"states" json:"states"`
	IRMAA          IRMAARules          `yaml:"irmaa" json:"irmaa"`
	RMD            RMDTable            `yaml:"rmd" json:"rmd"`
	Mortality      MortalityTables     `yaml:"mortality" json:"mortality"`
	Markets        MarketTables        `yaml:"markets" json:"markets"`
	LTC            LTCTables           `yaml:"ltc" json:"ltc"`
}

// TaxBracket is one marginal bracket; Max of zero means unbounded
type TaxBracket struct {
	Min  decimal.Decimal `yaml:"min" json:"min"`
	Max  decimal.Decimal `yaml:"max" json:"max"`
	Rate decimal.Decimal `yaml:"rate" json:"rate"`
}

// FilingTable holds per-filing-status bracket schedules
type FilingTable struct {
	Single []TaxBracket `yaml:"single" json:"single"`
	MFJ    []TaxBracket `yaml:"mfj" json:"mfj"`
}

// For returns the schedule for a filing status
func (f FilingTable) For(status string) []TaxBracket {
	if status == FilingMFJ {
		return f.MFJ
	}
	return f.Single
}

// FederalTaxRules contains federal income tax rules
type FederalTaxRules struct {
	StandardDeductionSingle decimal.Decimal `yaml:"standard_deduction_single" json:"standardDeductionSingle"`
	StandardDeductionMFJ    decimal.Decimal `yaml:"standard_deduction_mfj" json:"standardDeductionMFJ"`
	// AdditionalDeduction65Plus is per qualifying person
	AdditionalDeduction65Plus decimal.Decimal `yaml:"additional_deduction_65_plus" json:"additionalDeduction65Plus"`
	OrdinaryBrackets          FilingTable     `yaml:"ordinary_brackets" json:"ordinaryBrackets"`
	CapitalGainsBrackets      FilingTable     `yaml:"capital_gains_brackets" json:"capitalGainsBrackets"`
}

// StandardDeduction returns the base deduction for a filing status
func (f FederalTaxRules) StandardDeduction(status string) decimal.Decimal {
	if status == FilingMFJ {
		return f.StandardDeductionMFJ
	}
	return f.StandardDeductionSingle
}

// SSTaxThresholds are the provisional-income thresholds for benefit taxation
type SSTaxThresholds struct {
	Threshold1 decimal.Decimal `yaml:"threshold_1" json:"threshold1"`
	Threshold2 decimal.Decimal `yaml:"threshold_2" json:"threshold2"`
}

// SocialSecurityRules contains benefit taxation and claim-age adjustment rules
type SocialSecurityRules struct {
	TaxationSingle           SSTaxThresholds `yaml:"taxation_single" json:"taxationSingle"`
	TaxationMFJ              SSTaxThresholds `yaml:"taxation_mfj" json:"taxationMFJ"`
	EarlyReductionFirst36    decimal.Decimal `yaml:"early_reduction_first_36" json:"earlyReductionFirst36"`
	EarlyReductionAdditional decimal.Decimal `yaml:"early_reduction_additional" json:"earlyReductionAdditional"`
	DelayedCreditPerYear     decimal.Decimal `yaml:"delayed_credit_per_year" json:"delayedCreditPerYear"`
	MaxDelayAge              int             `yaml:"max_delay_age" json:"maxDelayAge"`
	DefaultFRA               int             `yaml:"default_fra" json:"defaultFRA"`
}

// Thresholds returns the provisional-income thresholds for a filing status
func (s SocialSecurityRules) Thresholds(status string) SSTaxThresholds {
	if status == FilingMFJ {
		return s.TaxationMFJ
	}
	return s.TaxationSingle
}

// StateTax describes one state's income tax. A state with neither Rate nor Brackets has no income tax.
type StateTax struct {
	Rate                   decimal.Decimal `yaml:"rate" json:"rate"`
	Brackets               *FilingTable    `yaml:"brackets,omitempty" json:"brackets,omitempty"`
	SocialSecurityExempt   bool            `yaml:"social_security_exempt" json:"socialSecurityExempt"`
	RetirementIncomeExempt bool            `yaml:"retirement_income_exempt" json:"retirementIncomeExempt"`
	// RetirementExclusionCap limits the retirement income exemption when non-zero
	RetirementExclusionCap decimal.Decimal `yaml:"retirement_exclusion_cap" json:"retirementExclusionCap"`
	LTCCostFactor          float64         `yaml:"ltc_cost_factor" json:"ltcCostFactor"`
}

// IRMAATier is one income-related surcharge tier
type IRMAATier struct {
	IncomeThresholdSingle decimal.Decimal `yaml:"income_threshold_single" json:"incomeThresholdSingle"`
	IncomeThresholdJoint  decimal.Decimal `yaml:"income_threshold_joint" json:"incomeThresholdJoint"`
	MonthlySurcharge      decimal.Decimal `yaml:"monthly_surcharge" json:"monthlySurcharge"`
}

// IRMAARules contains the surcharge tiers and the income lookback
type IRMAARules struct {
	EligibilityAge int         `yaml:"eligibility_age" json:"eligibilityAge"`
	LookbackYears  int         `yaml:"lookback_years" json:"lookbackYears"`
	Tiers          []IRMAATier `yaml:"tiers" json:"tiers"`
}

// RMDTable is the uniform lifetime distribution period table
type RMDTable struct {
	StartAge int             `yaml:"start_age" json:"startAge"`
	Divisors map[int]float64 `yaml:"divisors" json:"divisors"`
}

// Divisor returns the distribution period for an age, or zero when no RMD applies
func (r RMDTable) Divisor(age int) float64 {
	if age < r.StartAge {
		return 0
	}
	if d, ok := r.Divisors[age]; ok {
		return d
	}
	// past the end of the table use the last (smallest) published divisor
	best, bestAge := 0.0, -1
	for a, d := range r.Divisors {
		if a <= age && a > bestAge {
			best, bestAge = d, a
		}
	}
	return best
}

// GompertzMakeham is the hazard mu(x) = A + B*exp(C*x)
type GompertzMakeham struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
}

// MortalityTables holds the mortality law per sex
type MortalityTables struct {
	MaxAge int             `yaml:"max_age" json:"maxAge"`
	Male   GompertzMakeham `yaml:"male" json:"male"`
	Female GompertzMakeham `yaml:"female" json:"female"`
	Unisex GompertzMakeham `yaml:"unisex" json:"unisex"`
}

// For returns the law for a sex, falling back to unisex
func (m MortalityTables) For(sex string) GompertzMakeham {
	switch sex {
	case "male":
		return m.Male
	case "female":
		return m.Female
	default:
		return m.Unisex
	}
}

// Regime is a market regime applied for the first DurationYears of retirement-horizon years
type Regime struct {
	Name          string             `yaml:"name" json:"name"`
	Probability   float64            `yaml:"probability" json:"probability"`
	DurationYears int                `yaml:"duration_years" json:"durationYears"`
	Shift         map[string]float64 `yaml:"shift" json:"shift"`
}

// MarketTables holds correlation, inflation and regime tables
type MarketTables struct {
	// Correlation is indexed in AssetClasses order
	Correlation          [][]float64 `yaml:"correlation" json:"correlation"`
	InflationVolatility  float64     `yaml:"inflation_volatility" json:"inflationVolatility"`
	InflationPersistence float64     `yaml:"inflation_persistence" json:"inflationPersistence"`
	ReturnFloor          float64     `yaml:"return_floor" json:"returnFloor"`
	InflationFloor       float64     `yaml:"inflation_floor" json:"inflationFloor"`
	Regimes              []Regime    `yaml:"regimes" json:"regimes"`
}

// HazardBand is an annual LTC incidence hazard for ages in [FromAge, ToAge]
type HazardBand struct {
	FromAge int     `yaml:"from_age" json:"fromAge"`
	ToAge   int     `yaml:"to_age" json:"toAge"`
	Hazard  float64 `yaml:"hazard" json:"hazard"`
}

// DurationOutcome is one point of the discrete care-duration distribution
type DurationOutcome struct {
	Years       int     `yaml:"years" json:"years"`
	Probability float64 `yaml:"probability" json:"probability"`
}

// LTCTables holds the long-term-care incidence, duration and cost tables
type LTCTables struct {
	Hazards         []HazardBand      `yaml:"hazards" json:"hazards"`
	Durations       []DurationOutcome `yaml:"durations" json:"durations"`
	BaseAnnualCost  float64           `yaml:"base_annual_cost" json:"baseAnnualCost"`
	CostSigma       float64           `yaml:"cost_sigma" json:"costSigma"`
	DefaultCostFact float64           `yaml:"default_cost_factor" json:"defaultCostFactor"`
}

// HazardAt returns the annual incidence hazard at an age
func (l LTCTables) HazardAt(age int) float64 {
	for _, b := range l.Hazards {
		if age >= b.FromAge && age <= b.ToAge {
			return b.Hazard
		}
	}
	return 0
}

// CostFactor returns the state's LTC cost multiplier
func (t *Tables) CostFactor(state string) float64 {
	if s, ok := t.States[state]; ok && s.LTCCostFactor > 0 {
		return s.LTCCostFactor
	}
	if t.LTC.DefaultCostFact > 0 {
		return t.LTC.DefaultCostFact
	}
	return 1
}
