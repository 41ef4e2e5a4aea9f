package breakeven

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rgehrsitz/viability/internal/domain"
)

// TableFormatter formats solver and gap results as plain console tables
type TableFormatter struct{}

// FormatOptimalAge renders the retirement-age search
func (tf *TableFormatter) FormatOptimalAge(result *domain.OptimalRetirementAge) string {
	var sb strings.Builder

	sb.WriteString("OPTIMAL RETIREMENT AGE\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")

	sb.WriteString(fmt.Sprintf("Target Probability:  %s\n", tf.formatPercent(result.TargetProbability)))
	sb.WriteString(fmt.Sprintf("Desired Age:         %d\n", result.DesiredAge))
	sb.WriteString(fmt.Sprintf("Status:              %s\n", tf.formatStatus(result.Achievable)))
	if result.Achievable {
		sb.WriteString(fmt.Sprintf("Earliest Age:        %d (%s)\n", result.Age, tf.formatPercent(result.Probability)))
	} else {
		sb.WriteString(fmt.Sprintf("Best Age Searched:   %d (%s)\n", result.Age, tf.formatPercent(result.Probability)))
	}
	sb.WriteString(fmt.Sprintf("Gap:                 %s\n", tf.formatYears(result.GapYears)))
	sb.WriteString("\n")

	if len(result.Evaluated) > 0 {
		sb.WriteString("AGES EVALUATED\n")
		sb.WriteString(strings.Repeat("-", 60) + "\n")
		for _, e := range result.Evaluated {
			marker := ""
			if e.Probability >= result.TargetProbability {
				marker = "  ✓"
			}
			sb.WriteString(fmt.Sprintf("  %3d  %8s%s\n", e.Age, tf.formatPercent(e.Probability), marker))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// FormatGap renders the ranked gap factors
func (tf *TableFormatter) FormatGap(analysis *domain.GapAnalysis) string {
	var sb strings.Builder

	sb.WriteString("GAP ANALYSIS\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Current Probability: %s\n", tf.formatPercent(analysis.CurrentProbability)))
	sb.WriteString(fmt.Sprintf("Target Probability:  %s\n", tf.formatPercent(analysis.TargetProbability)))
	sb.WriteString(fmt.Sprintf("Gap:                 %.1f points\n", analysis.Gap))
	sb.WriteString("\n")

	if len(analysis.Factors) == 0 {
		sb.WriteString("No applicable plan changes.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("%-20s %-12s %10s %12s %-8s\n", "Change", "Category", "New", "Improvement", "Priority"))
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	for _, f := range analysis.Factors {
		sb.WriteString(fmt.Sprintf("%-20s %-12s %10s %12s %-8s\n",
			tf.truncate(f.Name, 20),
			f.Category,
			tf.formatPercent(f.NewProbability),
			fmt.Sprintf("%+.1f pts", f.Improvement),
			f.Priority))
	}
	sb.WriteString("\n")

	for _, f := range analysis.Factors {
		if f.ClosesGap {
			sb.WriteString(fmt.Sprintf("• %s closes the gap on its own\n", f.Description))
		}
	}

	return sb.String()
}

// JSONFormatter formats results as JSON
type JSONFormatter struct {
	Pretty bool
}

// Format generates JSON output for any solver or gap result
func (jf *JSONFormatter) Format(result any) (string, error) {
	var data []byte
	var err error

	if jf.Pretty {
		data, err = json.MarshalIndent(result, "", "  ")
	} else {
		data, err = json.Marshal(result)
	}

	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Helper methods

func (tf *TableFormatter) formatStatus(achievable bool) string {
	if achievable {
		return "✓ Target reachable"
	}
	return "⚠ Target not reachable within search range"
}

func (tf *TableFormatter) formatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

func (tf *TableFormatter) formatYears(years int) string {
	switch {
	case years > 0:
		return fmt.Sprintf("work %d more year(s)", years)
	case years < 0:
		return fmt.Sprintf("could retire %d year(s) early", -years)
	}
	return "on track"
}

func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
