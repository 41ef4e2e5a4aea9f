// Package output renders simulation results for people and for other programs.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// Report bundles what a formatter renders
type Report struct {
	Params *domain.SimulationParameters
	Tables *domain.Tables
	Result *domain.AggregateResult
}

// Formatter renders a report into bytes
type Formatter interface {
	Name() string
	Format(r *Report) ([]byte, error)
}

// FormatterFunc adapts a function into a Formatter
type FormatterFunc struct {
	ID string
	F  func(r *Report) ([]byte, error)
}

func (f FormatterFunc) Name() string { return f.ID }

func (f FormatterFunc) Format(r *Report) ([]byte, error) { return f.F(r) }

var formatters = map[string]Formatter{
	"console":      ConsoleFormatter{},
	"console-lite": ConsoleFormatter{Plain: true},
	"json":         JSONFormatter{Pretty: true},
	"csv":          CSVBandsFormatter{},
}

var aliases = map[string]string{
	"text":  "console-lite",
	"plain": "console-lite",
	"bands": "csv",
}

// GetFormatterByName resolves a formatter or alias; nil when unknown
func GetFormatterByName(name string) Formatter {
	name = strings.ToLower(strings.TrimSpace(name))
	if target, ok := aliases[name]; ok {
		name = target
	}
	return formatters[name]
}

// AvailableFormatterNames lists formatter names, sorted
func AvailableFormatterNames() []string {
	names := make([]string, 0, len(formatters))
	for name := range formatters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AvailableFormatAliases lists accepted aliases, sorted
func AvailableFormatAliases() []string {
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFormatted formats r with f and writes it to w
func WriteFormatted(w io.Writer, f Formatter, r *Report) error {
	if r == nil || r.Result == nil {
		return fmt.Errorf("nothing to format")
	}
	data, err := f.Format(r)
	if err != nil {
		return fmt.Errorf("%s formatter: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// FormatCurrency formats a decimal as whole dollars with thousands separators
func FormatCurrency(amount decimal.Decimal) string {
	s := amount.Round(0).Abs().StringFixed(0)
	var sb strings.Builder
	if amount.Round(0).IsNegative() {
		sb.WriteByte('-')
	}
	sb.WriteByte('$')
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// FormatPercentage formats a probability as a percentage with one decimal
func FormatPercentage(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}
