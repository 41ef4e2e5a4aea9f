package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"github.com/rgehrsitz/viability/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed data/tables.yaml
var defaultTablesYAML []byte

// DefaultTables returns the embedded tables
func DefaultTables() (*domain.Tables, error) {
	return ParseTables(defaultTablesYAML)
}

// LoadTables reads tables from path, or returns the embedded tables when path is empty
func LoadTables(path string) (*domain.Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables %s: %w", path, err)
	}
	return ParseTables(data)
}

// ParseTables decodes and checks a tables document
func ParseTables(data []byte) (*domain.Tables, error) {
	var t domain.Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse tables YAML: %w", err)
	}
	if err := validateTables(&t); err != nil {
		return nil, fmt.Errorf("tables %q invalid: %w", t.Version, err)
	}
	return &t, nil
}

// MarshalTables renders tables back to YAML
func MarshalTables(t *domain.Tables) ([]byte, error) {
	data, err := yaml.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tables YAML: %w", err)
	}
	return data, nil
}

func validateTables(t *domain.Tables) error {
	v := &domain.ValidationError{}
	if t.Version == "" {
		v.Add("version", "is required")
	}
	if len(t.FederalTax.OrdinaryBrackets.Single) == 0 || len(t.FederalTax.OrdinaryBrackets.MFJ) == 0 {
		v.Add("federal_tax.ordinary_brackets", "single and mfj schedules are required")
	}

	n := len(domain.AssetClasses)
	c := t.Markets.Correlation
	if len(c) != n {
		v.Add("markets.correlation", "must be %dx%d", n, n)
	} else {
		for i := range c {
			if len(c[i]) != n {
				v.Add("markets.correlation", "must be %dx%d", n, n)
				break
			}
			if c[i][i] != 1 {
				v.Add("markets.correlation", "diagonal must be 1")
			}
			for j := range c[i] {
				if c[i][j] != c[j][i] {
					v.Add("markets.correlation", "must be symmetric")
				}
			}
		}
	}

	if len(t.Markets.Regimes) == 0 {
		v.Add("markets.regimes", "at least one regime is required")
	}
	var regimeSum float64
	for _, r := range t.Markets.Regimes {
		if r.Probability < 0 {
			v.Add("markets.regimes", "regime %s has a negative probability", r.Name)
		}
		regimeSum += r.Probability
	}
	if len(t.Markets.Regimes) > 0 && math.Abs(regimeSum-1) > 1e-9 {
		v.Add("markets.regimes", "probabilities must sum to 1, got %.6f", regimeSum)
	}

	if t.Mortality.MaxAge <= 0 {
		v.Add("mortality.max_age", "must be positive")
	}
	for name, law := range map[string]domain.GompertzMakeham{"male": t.Mortality.Male, "female": t.Mortality.Female, "unisex": t.Mortality.Unisex} {
		if law.B <= 0 || law.C <= 0 || law.A < 0 {
			v.Add("mortality."+name, "requires a >= 0, b > 0, c > 0")
		}
	}

	var durSum float64
	for _, d := range t.LTC.Durations {
		if d.Years <= 0 {
			v.Add("ltc.durations", "years must be positive")
		}
		durSum += d.Probability
	}
	if math.Abs(durSum-1) > 1e-9 {
		v.Add("ltc.durations", "probabilities must sum to 1, got %.6f", durSum)
	}
	if t.LTC.BaseAnnualCost <= 0 {
		v.Add("ltc.base_annual_cost", "must be positive")
	}

	if t.IRMAA.LookbackYears < 0 {
		v.Add("irmaa.lookback_years", "cannot be negative")
	}
	if t.RMD.StartAge <= 0 || len(t.RMD.Divisors) == 0 {
		v.Add("rmd", "start_age and divisors are required")
	}
	return v.OrNil()
}
