package domain

// Guardrail actions recorded on each retired year
const (
	GuardrailNone      = ""
	GuardrailInflation = "inflation"
	GuardrailFrozen    = "frozen"
	GuardrailCut       = "cut"
	GuardrailRaise     = "raise"
	GuardrailFloor     = "floor"
)

// Household members referenced by trial events
const (
	PersonUser   = "user"
	PersonSpouse = "spouse"
)

// Balances is the working bucket state of one trial. It is plain float64 so the yearly walk
// stays allocation free; results convert back to decimal.
type Balances struct {
	Cash         float64 `json:"cash" msgpack:"cash"`
	Taxable      float64 `json:"taxable" msgpack:"taxable"`
	TaxableBasis float64 `json:"taxableBasis" msgpack:"taxable_basis"`
	TaxDeferred  float64 `json:"taxDeferred" msgpack:"tax_deferred"`
	TaxFree      float64 `json:"taxFree" msgpack:"tax_free"`
}

// Total returns the sum of all bucket balances
func (b Balances) Total() float64 {
	return b.Cash + b.Taxable + b.TaxDeferred + b.TaxFree
}

// BalancesFrom converts starting buckets into the working representation
func BalancesFrom(b AssetBuckets) Balances {
	return Balances{
		Cash:         b.Cash.InexactFloat64(),
		Taxable:      b.Taxable.InexactFloat64(),
		TaxableBasis: b.TaxableBasis.InexactFloat64(),
		TaxDeferred:  b.TaxDeferred.InexactFloat64(),
		TaxFree:      b.TaxFree.InexactFloat64(),
	}
}

// LTCEvent is the single long-term-care episode of a trial
type LTCEvent struct {
	Person   string `json:"person" msgpack:"person"`
	OnsetAge int    `json:"onsetAge" msgpack:"onset_age"`
	// OnsetYear is the offset in years from the start of the trial
	OnsetYear     int `json:"onsetYear" msgpack:"onset_year"`
	DurationYears int `json:"durationYears" msgpack:"duration_years"`
	// AnnualGrossCost is in today's dollars, before inflation
	AnnualGrossCost float64 `json:"annualGrossCost" msgpack:"annual_gross_cost"`
	// GrossCosts and NetCosts are nominal per care year, filled in by the projector
	GrossCosts []float64 `json:"grossCosts" msgpack:"gross_costs"`
	NetCosts   []float64 `json:"netCosts" msgpack:"net_costs"`
}

// ActiveAt reports whether care is being received in the given trial year
func (e *LTCEvent) ActiveAt(year int) bool {
	return e != nil && year >= e.OnsetYear && year < e.OnsetYear+e.DurationYears
}

// TotalGross sums the nominal gross cost over the care years
func (e *LTCEvent) TotalGross() float64 {
	if e == nil {
		return 0
	}
	var total float64
	for _, c := range e.GrossCosts {
		total += c
	}
	return total
}

// TotalNet sums the nominal net cost over the care years
func (e *LTCEvent) TotalNet() float64 {
	if e == nil {
		return 0
	}
	var total float64
	for _, c := range e.NetCosts {
		total += c
	}
	return total
}

// YearlyCashFlow is one year of a trial walk. Amounts are nominal.
type YearlyCashFlow struct {
	YearIndex int `json:"yearIndex" msgpack:"year_index"`
	// Year counts from 1 and carries no calendar meaning
	Year      int  `json:"year" msgpack:"year"`
	Age       int  `json:"age" msgpack:"age"`
	SpouseAge int  `json:"spouseAge,omitempty" msgpack:"spouse_age"`
	Retired   bool `json:"retired" msgpack:"retired"`

	StartBalance     float64 `json:"startBalance" msgpack:"start_balance"`
	EndBalance       float64 `json:"endBalance" msgpack:"end_balance"`
	PortfolioReturn  float64 `json:"portfolioReturn" msgpack:"portfolio_return"`
	Inflation        float64 `json:"inflation" msgpack:"inflation"`
	Withdrawal       float64 `json:"withdrawal" msgpack:"withdrawal"`
	PortfolioDraw    float64 `json:"portfolioDraw" msgpack:"portfolio_draw"`
	GuaranteedIncome float64 `json:"guaranteedIncome" msgpack:"guaranteed_income"`
	Taxes            float64 `json:"taxes" msgpack:"taxes"`
	IRMAASurcharge   float64 `json:"irmaaSurcharge" msgpack:"irmaa_surcharge"`
	Healthcare       float64 `json:"healthcare" msgpack:"healthcare"`
	LTCNetCost       float64 `json:"ltcNetCost" msgpack:"ltc_net_cost"`
	LTCPremium       float64 `json:"ltcPremium" msgpack:"ltc_premium"`
	Contributions    float64 `json:"contributions" msgpack:"contributions"`
	RMD              float64 `json:"rmd" msgpack:"rmd"`
	NetCashFlow      float64 `json:"netCashFlow" msgpack:"net_cash_flow"`
	GuardrailAction  string  `json:"guardrailAction,omitempty" msgpack:"guardrail_action"`
	Shortfall        float64 `json:"shortfall,omitempty" msgpack:"shortfall"`

	Buckets Balances `json:"buckets" msgpack:"buckets"`
}

// Trial is one simulated lifetime
type Trial struct {
	Index          int    `json:"index" msgpack:"index"`
	Regime         string `json:"regime" msgpack:"regime"`
	UserDeathAge   int    `json:"userDeathAge" msgpack:"user_death_age"`
	SpouseDeathAge int    `json:"spouseDeathAge,omitempty" msgpack:"spouse_death_age"`
	// Horizon is the number of simulated years
	Horizon int       `json:"horizon" msgpack:"horizon"`
	LTC     *LTCEvent `json:"ltcEvent,omitempty" msgpack:"ltc_event"`

	Years []YearlyCashFlow `json:"years" msgpack:"years"`

	Success       bool    `json:"success" msgpack:"success"`
	DepletionAge  int     `json:"depletionAge,omitempty" msgpack:"depletion_age"`
	EndingBalance float64 `json:"endingBalance" msgpack:"ending_balance"`

	GuardrailCuts   int `json:"guardrailCuts" msgpack:"guardrail_cuts"`
	GuardrailRaises int `json:"guardrailRaises" msgpack:"guardrail_raises"`

	// MeanRealizedReturn is the control variate: the mean portfolio return over the
	// first ControlWindow years
	MeanRealizedReturn float64 `json:"meanRealizedReturn" msgpack:"mean_realized_return"`
	Corrupted          bool    `json:"corrupted,omitempty" msgpack:"corrupted"`
}

// GuardrailAdjustments is the total number of cuts and raises
func (t *Trial) GuardrailAdjustments() int {
	return t.GuardrailCuts + t.GuardrailRaises
}
