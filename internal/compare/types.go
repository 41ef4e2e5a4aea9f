package compare

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// ComparisonResult is one scenario's headline metrics and its deltas from the base
type ComparisonResult struct {
	ScenarioName string `json:"scenarioName"`
	Description  string `json:"description"`

	SuccessProbability  float64         `json:"successProbability"`
	MedianEndingBalance decimal.Decimal `json:"medianEndingBalance"`
	P10EndingBalance    decimal.Decimal `json:"p10EndingBalance"`
	YearsUntilDepletion float64         `json:"yearsUntilDepletion"`
	RetirementAge       int             `json:"retirementAge"`
	LTCNetCost          decimal.Decimal `json:"ltcNetCost"`

	// Deltas from base; probability in percentage points
	ProbabilityDiff    float64         `json:"probabilityDiff"`
	MedianBalanceDiff  decimal.Decimal `json:"medianBalanceDiff"`
	DepletionYearsDiff float64         `json:"depletionYearsDiff"`
	RetirementAgeDiff  int             `json:"retirementAgeDiff"`
}

// ComparisonSet is a base scenario and the alternatives run against it
type ComparisonSet struct {
	BaseScenarioName   string             `json:"baseScenarioName"`
	BaseResult         *ComparisonResult  `json:"baseResult"`
	AlternativeResults []ComparisonResult `json:"alternativeResults"`
	Recommendations    []string           `json:"recommendations"`
	ConfigPath         string             `json:"configPath,omitempty"`
	Seed               uint64             `json:"seed"`
	Iterations         int                `json:"iterations"`
}

// MetricsCalculator extracts comparison metrics from aggregate results
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateMetrics reads the headline metrics of one batch
func (mc *MetricsCalculator) CalculateMetrics(name string, params *domain.SimulationParameters, result *domain.AggregateResult) ComparisonResult {
	return ComparisonResult{
		ScenarioName:        name,
		SuccessProbability:  result.SuccessProbability,
		MedianEndingBalance: result.MedianEndingBalance,
		P10EndingBalance:    finalP10(result.PercentileBands),
		YearsUntilDepletion: result.AverageYearsUntilDepletion,
		RetirementAge:       params.RetirementAge,
		LTCNetCost:          result.LTC.AverageNetCost,
	}
}

// CalculateComparison fills the deltas of scenario against base
func (mc *MetricsCalculator) CalculateComparison(scenario, base ComparisonResult) ComparisonResult {
	scenario.ProbabilityDiff = (scenario.SuccessProbability - base.SuccessProbability) * 100
	scenario.MedianBalanceDiff = scenario.MedianEndingBalance.Sub(base.MedianEndingBalance)
	scenario.DepletionYearsDiff = scenario.YearsUntilDepletion - base.YearsUntilDepletion
	scenario.RetirementAgeDiff = scenario.RetirementAge - base.RetirementAge
	return scenario
}

func finalP10(bands []domain.PercentileBand) decimal.Decimal {
	if len(bands) == 0 {
		return decimal.Zero
	}
	return bands[len(bands)-1].P10
}

// GenerateRecommendations names the alternatives that beat the base
func GenerateRecommendations(compSet *ComparisonSet) []string {
	recommendations := []string{}

	if compSet.BaseResult == nil || len(compSet.AlternativeResults) == 0 {
		return recommendations
	}
	base := compSet.BaseResult

	bestProbability := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.SuccessProbability > bestProbability.SuccessProbability {
			bestProbability = alt
		}
	}
	if bestProbability != base {
		recommendations = append(recommendations, fmt.Sprintf(
			"Most reliable: %s raises success probability by %.1f points", bestProbability.ScenarioName, bestProbability.ProbabilityDiff))
	}

	bestBalance := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.MedianEndingBalance.GreaterThan(bestBalance.MedianEndingBalance) {
			bestBalance = alt
		}
	}
	if bestBalance != base {
		recommendations = append(recommendations,
			"Largest legacy: "+bestBalance.ScenarioName+" leaves $"+bestBalance.MedianBalanceDiff.StringFixed(0)+
				" more at the median")
	}

	// earliest retirement that still does at least as well as the base
	earliest := base
	for i := range compSet.AlternativeResults {
		alt := &compSet.AlternativeResults[i]
		if alt.RetirementAge < earliest.RetirementAge && alt.SuccessProbability >= base.SuccessProbability {
			earliest = alt
		}
	}
	if earliest != base {
		recommendations = append(recommendations, fmt.Sprintf(
			"Earliest exit: %s retires %d years sooner without lowering success probability",
			earliest.ScenarioName, -earliest.RetirementAgeDiff))
	}

	return recommendations
}
