package compare

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// CSVFormatter formats comparison results as CSV
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Scenario",
		"Type",
		"Success Probability",
		"Median Ending Balance",
		"P10 Ending Balance",
		"Years Until Depletion",
		"Retirement Age",
		"Probability Diff (pts)",
		"Median Balance Diff",
		"Depletion Years Diff",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	if compSet.BaseResult != nil {
		if err := writer.Write(cf.formatRow(compSet.BaseResult, "base")); err != nil {
			return "", err
		}
	}
	for i := range compSet.AlternativeResults {
		if err := writer.Write(cf.formatRow(&compSet.AlternativeResults[i], "alternative")); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func (cf *CSVFormatter) formatRow(result *ComparisonResult, scenarioType string) []string {
	return []string{
		result.ScenarioName,
		scenarioType,
		formatFloat(result.SuccessProbability, 4),
		result.MedianEndingBalance.StringFixed(2),
		result.P10EndingBalance.StringFixed(2),
		formatFloat(result.YearsUntilDepletion, 1),
		strconv.Itoa(result.RetirementAge),
		formatFloat(result.ProbabilityDiff, 1),
		result.MedianBalanceDiff.StringFixed(2),
		formatFloat(result.DepletionYearsDiff, 1),
	}
}

func formatFloat(f float64, prec int) string {
	return strconv.FormatFloat(f, 'f', prec, 64)
}
