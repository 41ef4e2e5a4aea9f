package domain

import (
	"github.com/shopspring/decimal"
)

// BandPercentiles are the quantiles reported in every balance band
var BandPercentiles = []float64{0.05, 0.10, 0.25, 0.50, 0.75, 0.90, 0.95}

// AggregateResult is the outcome distribution of a simulation batch
type AggregateResult struct {
	RunID         string `json:"runId"`
	Seed          uint64 `json:"seed"`
	Iterations    int    `json:"iterations"`
	TablesVersion string `json:"tablesVersion"`

	IncludedTrials   int `json:"includedTrials"`
	ExcludedTrials   int `json:"excludedTrials"`
	SuccessfulTrials int `json:"successfulTrials"`

	SuccessProbability float64                 `json:"successProbability"`
	ControlVariate     *ControlVariateEstimate `json:"controlVariate,omitempty"`

	AverageEndingBalance  decimal.Decimal `json:"averageEndingBalance"`
	MedianEndingBalance   decimal.Decimal `json:"medianEndingBalance"`
	ExpectedEndingBalance decimal.Decimal `json:"expectedEndingBalance"`

	PercentileBands            []PercentileBand `json:"percentileBands"`
	AverageYearsUntilDepletion float64          `json:"averageYearsUntilDepletion"`

	Guardrails GuardrailStats `json:"guardrails"`
	LTC        LTCStats       `json:"ltc"`

	GapAnalysis          *GapAnalysis          `json:"gapAnalysis,omitempty"`
	OptimalRetirementAge *OptimalRetirementAge `json:"optimalRetirementAge,omitempty"`
}

// ControlVariateEstimate is the variance-reduced success probability
type ControlVariateEstimate struct {
	AdjustedProbability float64 `json:"adjustedProbability"`
	Beta                float64 `json:"beta"`
	SampleMean          float64 `json:"sampleMean"`
	ExpectedMean        float64 `json:"expectedMean"`
}

// PercentileBand holds end-of-year balance percentiles at one age
type PercentileBand struct {
	Age    int             `json:"age"`
	Trials int             `json:"trials"`
	P5     decimal.Decimal `json:"p5"`
	P10    decimal.Decimal `json:"p10"`
	P25    decimal.Decimal `json:"p25"`
	P50    decimal.Decimal `json:"p50"`
	P75    decimal.Decimal `json:"p75"`
	P90    decimal.Decimal `json:"p90"`
	P95    decimal.Decimal `json:"p95"`
}

// Values returns the band in BandPercentiles order
func (b PercentileBand) Values() []decimal.Decimal {
	return []decimal.Decimal{b.P5, b.P10, b.P25, b.P50, b.P75, b.P90, b.P95}
}

// GuardrailStats summarizes guardrail adjustments per trial
type GuardrailStats struct {
	MeanAdjustments float64 `json:"meanAdjustments"`
	MaxAdjustments  int     `json:"maxAdjustments"`
	MeanCuts        float64 `json:"meanCuts"`
	MeanRaises      float64 `json:"meanRaises"`
}

// LTCStats summarizes long-term-care impact
type LTCStats struct {
	TrialsWithEvent  int             `json:"trialsWithEvent"`
	IncidenceRate    float64         `json:"incidenceRate"`
	AverageGrossCost decimal.Decimal `json:"averageGrossCost"`
	AverageNetCost   decimal.Decimal `json:"averageNetCost"`
	// SuccessWithEvent is the success rate of trials that had an event, and
	// SuccessWithoutEvent the rate of the same trials re-run without it
	SuccessWithEvent        float64 `json:"successWithEvent"`
	SuccessWithoutEvent     float64 `json:"successWithoutEvent"`
	SuccessProbabilityDelta float64 `json:"successProbabilityDelta"`
}

// Gap factor priorities
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// GapFactor is one ranked plan change and its effect
type GapFactor struct {
	Name           string  `json:"name"`
	Category       string  `json:"category"`
	Description    string  `json:"description"`
	NewProbability float64 `json:"newProbability"`
	// Improvement is in percentage points
	Improvement float64 `json:"improvement"`
	ClosesGap   bool    `json:"closesGap"`
	Priority    string  `json:"priority"`
}

// GapAnalysis ranks plan changes by how much they close the gap to the target
type GapAnalysis struct {
	TargetProbability  float64 `json:"targetProbability"`
	CurrentProbability float64 `json:"currentProbability"`
	// Gap is the shortfall to the target in percentage points, zero when the target is met
	Gap     float64     `json:"gap"`
	Factors []GapFactor `json:"factors"`
}

// AgeEvaluation is one probe of the retirement-age search
type AgeEvaluation struct {
	Age         int     `json:"age"`
	Probability float64 `json:"probability"`
}

// OptimalRetirementAge is the earliest retirement age reaching the target probability
type OptimalRetirementAge struct {
	Age               int             `json:"age"`
	Probability       float64         `json:"probability"`
	DesiredAge        int             `json:"desiredAge"`
	GapYears          int             `json:"gapYears"`
	Achievable        bool            `json:"achievable"`
	TargetProbability float64         `json:"targetProbability"`
	Evaluated         []AgeEvaluation `json:"evaluated"`
}
