package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/viability/internal/domain"
)

// defaultTarget colors probabilities when the result carries no target
const defaultTarget = 0.85

// ConsoleFormatter renders a human-readable report. Plain drops all styling.
type ConsoleFormatter struct {
	Plain bool
}

func (c ConsoleFormatter) Name() string {
	if c.Plain {
		return "console-lite"
	}
	return "console"
}

func (c ConsoleFormatter) render(s lipgloss.Style, text string) string {
	if c.Plain {
		return text
	}
	return s.Render(text)
}

func (c ConsoleFormatter) line(buf *bytes.Buffer, label, value string) {
	if c.Plain {
		fmt.Fprintf(buf, "  %-30s%s\n", label, value)
		return
	}
	fmt.Fprintf(buf, "  %s%s\n", labelStyle.Render(label), valueStyle.Render(value))
}

func (c ConsoleFormatter) section(buf *bytes.Buffer, title string) {
	if c.Plain {
		fmt.Fprintf(buf, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
		return
	}
	fmt.Fprintln(buf, sectionStyle.Render(title))
}

func (c ConsoleFormatter) Format(r *Report) ([]byte, error) {
	if r == nil || r.Result == nil {
		return nil, fmt.Errorf("no result to format")
	}
	res := r.Result
	var buf bytes.Buffer

	name := "Household"
	if r.Params != nil && r.Params.Name != "" {
		name = r.Params.Name
	}
	fmt.Fprintln(&buf, c.render(titleStyle, "RETIREMENT VIABILITY: "+strings.ToUpper(name)))
	if c.Plain {
		fmt.Fprintln(&buf, strings.Repeat("=", 60))
	}

	target := defaultTarget
	switch {
	case res.GapAnalysis != nil:
		target = res.GapAnalysis.TargetProbability
	case res.OptimalRetirementAge != nil:
		target = res.OptimalRetirementAge.TargetProbability
	}

	headline := fmt.Sprintf("Success probability  %s   (target %s)",
		c.render(probabilityStyle(res.SuccessProbability, target), FormatPercentage(res.SuccessProbability)),
		FormatPercentage(target))
	if cv := res.ControlVariate; cv != nil {
		headline += fmt.Sprintf("\nControl-variate adjusted  %s", FormatPercentage(cv.AdjustedProbability))
	}
	if c.Plain {
		fmt.Fprintf(&buf, "%s\n", headline)
	} else {
		fmt.Fprintln(&buf, headlineStyle.Render(headline))
	}
	fmt.Fprintln(&buf, c.render(mutedStyle, fmt.Sprintf("run %s · seed %d · %d trials (%d excluded) · tables %s",
		res.RunID, res.Seed, res.IncludedTrials, res.ExcludedTrials, res.TablesVersion)))

	c.section(&buf, "ENDING BALANCE")
	c.line(&buf, "Average", FormatCurrency(res.AverageEndingBalance))
	c.line(&buf, "Median", FormatCurrency(res.MedianEndingBalance))
	c.line(&buf, "At expected returns", FormatCurrency(res.ExpectedEndingBalance))
	if res.SuccessfulTrials < res.IncludedTrials {
		c.line(&buf, "Avg years until depletion", fmt.Sprintf("%.1f", res.AverageYearsUntilDepletion))
	}

	if len(res.PercentileBands) > 0 {
		c.section(&buf, "PORTFOLIO BALANCE BY AGE")
		c.bands(&buf, res.PercentileBands)
	}

	c.section(&buf, "GUARDRAILS")
	c.line(&buf, "Adjustments per trial", fmt.Sprintf("%.2f (max %d)", res.Guardrails.MeanAdjustments, res.Guardrails.MaxAdjustments))
	c.line(&buf, "Cuts / raises per trial", fmt.Sprintf("%.2f / %.2f", res.Guardrails.MeanCuts, res.Guardrails.MeanRaises))

	c.section(&buf, "LONG-TERM CARE")
	ltc := res.LTC
	c.line(&buf, "Incidence", fmt.Sprintf("%s (%d trials)", FormatPercentage(ltc.IncidenceRate), ltc.TrialsWithEvent))
	if ltc.TrialsWithEvent > 0 {
		c.line(&buf, "Average lifetime cost", fmt.Sprintf("%s gross / %s net", FormatCurrency(ltc.AverageGrossCost), FormatCurrency(ltc.AverageNetCost)))
		c.line(&buf, "Success with / without care", fmt.Sprintf("%s / %s", FormatPercentage(ltc.SuccessWithEvent), FormatPercentage(ltc.SuccessWithoutEvent)))
		c.line(&buf, "Probability cost of care", fmt.Sprintf("%.1f points", ltc.SuccessProbabilityDelta*100))
	}

	if gap := res.GapAnalysis; gap != nil {
		c.section(&buf, "CLOSING THE GAP")
		c.line(&buf, "Gap to target", fmt.Sprintf("%.1f points", gap.Gap))
		if len(gap.Factors) == 0 {
			fmt.Fprintln(&buf, "  No applicable plan changes.")
		}
		for i, f := range gap.Factors {
			fmt.Fprintf(&buf, "  %d. %-42s %+6.1f pts  → %s  %s\n", i+1, f.Description, f.Improvement,
				FormatPercentage(f.NewProbability), c.render(priorityStyle(f.Priority), "["+f.Priority+"]"))
		}
	}

	if opt := res.OptimalRetirementAge; opt != nil {
		c.section(&buf, "RETIREMENT AGE")
		if opt.Achievable {
			c.line(&buf, "Earliest age reaching target", fmt.Sprintf("%d (%s)", opt.Age, FormatPercentage(opt.Probability)))
		} else {
			c.line(&buf, "Target not reached by", fmt.Sprintf("%d (%s)", opt.Age, FormatPercentage(opt.Probability)))
		}
		c.line(&buf, "Desired age", fmt.Sprintf("%d", opt.DesiredAge))
		switch {
		case opt.GapYears > 0:
			c.line(&buf, "Gap", fmt.Sprintf("%d more year(s) of work", opt.GapYears))
		case opt.GapYears < 0 && opt.Achievable:
			c.line(&buf, "Gap", fmt.Sprintf("could retire %d year(s) earlier", -opt.GapYears))
		default:
			c.line(&buf, "Gap", "on track")
		}
	}

	if assumptions := BuildAssumptions(r.Params, r.Tables); len(assumptions) > 0 {
		c.section(&buf, "ASSUMPTIONS")
		for _, a := range assumptions {
			fmt.Fprintf(&buf, "  • %s\n", c.render(mutedStyle, a))
		}
	}

	return buf.Bytes(), nil
}

// bands prints every fifth age plus the last one
func (c ConsoleFormatter) bands(buf *bytes.Buffer, bands []domain.PercentileBand) {
	header := fmt.Sprintf("  %4s %14s %14s %14s %14s %14s", "Age", "5th", "25th", "Median", "75th", "95th")
	fmt.Fprintln(buf, c.render(tableHeaderStyle, header))
	for i, b := range bands {
		if i%5 != 0 && i != len(bands)-1 {
			continue
		}
		fmt.Fprintf(buf, "  %4d %14s %14s %14s %14s %14s\n", b.Age,
			FormatCurrency(b.P5), FormatCurrency(b.P25), FormatCurrency(b.P50), FormatCurrency(b.P75), FormatCurrency(b.P95))
	}
}
