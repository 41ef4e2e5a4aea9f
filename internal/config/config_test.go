package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const householdYAML = `
name: Test household
household:
  user:
    name: Alex
    current_age: 45
    sex: female
    social_security:
      annual_benefit_at_fra: 28000
      claim_age: 67
  spouse:
    name: Sam
    current_age: 47
    social_security:
      annual_benefit_at_fra: 18000
      claim_age: 65
retirement_age: 67
life_expectancy: 90
current_retirement_assets: 350000
buckets:
  cash: 20000
  taxable: 80000
  taxable_basis: 60000
  tax_deferred: 200000
  tax_free: 50000
annual_savings: 25000
annual_retirement_expenses: 80000
annual_healthcare_expenses: 8000
inflation_rate: 0.025
healthcare_inflation_differential: 0.02
allocation:
  stocks: 0.60
  bonds: 0.35
  cash: 0.05
capital_markets:
  stocks: { expected_return: 0.07, volatility: 0.16, mean_reversion: 0.1 }
  bonds: { expected_return: 0.04, volatility: 0.06, mean_reversion: 0.3 }
  cash: { expected_return: 0.025, volatility: 0.01, mean_reversion: 0.7 }
withdrawal_rate: 0.04
tax:
  filing_status: mfj
  state: PA
ltc_insurance:
  daily_benefit: 200
  elimination_days: 90
  benefit_period_years: 3
  inflation_rider: 0.03
  annual_premium: 3500
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeFile(t, "household.yaml", householdYAML)

	params, err := NewInputParser().LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "Test household", params.Name)
	assert.Equal(t, 45, params.Household.User.CurrentAge)
	require.NotNil(t, params.Household.Spouse)
	assert.Equal(t, 65, params.Household.Spouse.SocialSecurity.ClaimAge)
	assert.True(t, params.Buckets.TaxDeferred.Equal(decimal.NewFromInt(200000)))
	assert.True(t, params.Allocation.Stocks.Equal(decimal.NewFromFloat(0.6)))
	assert.Equal(t, domain.FilingMFJ, params.FilingStatus())
	require.NotNil(t, params.LTCInsurance)
	require.NotNil(t, params.LTCInsurance.EliminationDays)
	assert.Equal(t, 90, *params.LTCInsurance.EliminationDays)
}

func TestLoadFromFile_MissingFile(t *testing.T) {
	_, err := NewInputParser().LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read file")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := NewInputParser().Parse([]byte("household: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParse_ValidationErrorIsReachable(t *testing.T) {
	bad := householdYAML + "\nsurvivor_spending_factor: 1.5\n"
	_, err := NewInputParser().Parse([]byte(bad))
	require.Error(t, err)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.True(t, ve.HasField("survivor_spending_factor"))
}

func TestMarshalRoundTripKeepsValidity(t *testing.T) {
	ip := NewInputParser()
	data, err := ip.Marshal(domain.SampleParameters())
	require.NoError(t, err)

	params, err := ip.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, 67, params.RetirementAge)
}

func TestDefaultTables(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	assert.NotEmpty(t, tables.Version)
	assert.Len(t, tables.FederalTax.OrdinaryBrackets.MFJ, 7)
	assert.Equal(t, 2, tables.IRMAA.LookbackYears)
	assert.Equal(t, 26.5, tables.RMD.Divisor(73))
	assert.Len(t, tables.Markets.Correlation, len(domain.AssetClasses))
	assert.Equal(t, 0.03, tables.LTC.HazardAt(80))
	assert.Greater(t, tables.CostFactor("MA"), tables.CostFactor("TX"))
	assert.Equal(t, 1.0, tables.CostFactor("ZZ"))
	assert.True(t, tables.States["PA"].SocialSecurityExempt)
}

func TestLoadTables_Override(t *testing.T) {
	path := writeFile(t, "tables.yaml", string(defaultTablesYAML))
	tables, err := LoadTables(path)
	require.NoError(t, err)
	assert.Equal(t, "2025.1", tables.Version)
}

func TestMarshalTables(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)

	data, err := MarshalTables(tables)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: \"2025.1\"")

	reparsed, err := ParseTables(data)
	require.NoError(t, err)
	assert.Equal(t, tables.Version, reparsed.Version)
}

func TestParseTables_RejectsBadRegimes(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	tables.Markets.Regimes[0].Probability = 0.9

	err = validateTables(tables)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("markets.regimes"))
}

func TestParseTables_RejectsAsymmetricCorrelation(t *testing.T) {
	tables, err := DefaultTables()
	require.NoError(t, err)
	tables.Markets.Correlation[0][1] = 0.5

	var ve *domain.ValidationError
	require.ErrorAs(t, validateTables(tables), &ve)
	assert.True(t, ve.HasField("markets.correlation"))
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("VIABILITY_LOG_LEVEL", "debug")
	t.Setenv("VIABILITY_WORKERS", "3")
	t.Setenv("VIABILITY_ADDR", ":9090")
	t.Setenv("VIABILITY_PRETTY_LOG", "false")

	env := LoadEnv()
	assert.Equal(t, "debug", env.LogLevel)
	assert.Equal(t, 3, env.Workers)
	assert.Equal(t, ":9090", env.Addr)
	assert.False(t, env.PrettyLog)
}

func TestLoadEnv_IgnoresInvalidWorkers(t *testing.T) {
	t.Setenv("VIABILITY_WORKERS", "-2")
	env := LoadEnv()
	assert.Positive(t, env.Workers)
}
