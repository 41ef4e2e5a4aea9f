package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/sequencing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestReport() *Report {
	band := func(age int, base int64) domain.PercentileBand {
		d := func(m int64) decimal.Decimal { return decimal.NewFromInt(base * m) }
		return domain.PercentileBand{Age: age, Trials: 100, P5: d(1), P10: d(2), P25: d(3), P50: d(4), P75: d(5), P90: d(6), P95: d(7)}
	}
	return &Report{
		Params: domain.SampleParameters(),
		Result: &domain.AggregateResult{
			RunID:                "run-1",
			Seed:                 42,
			Iterations:           100,
			TablesVersion:        "test",
			IncludedTrials:       100,
			SuccessfulTrials:     72,
			SuccessProbability:   0.72,
			AverageEndingBalance: decimal.NewFromInt(1234567),
			MedianEndingBalance:  decimal.NewFromInt(900000),
			PercentileBands:      []domain.PercentileBand{band(45, 1000), band(46, 1100)},
			LTC:                  domain.LTCStats{TrialsWithEvent: 10, IncidenceRate: 0.1, SuccessWithEvent: 0.5, SuccessWithoutEvent: 0.8, SuccessProbabilityDelta: 0.03},
			GapAnalysis: &domain.GapAnalysis{
				TargetProbability: 0.85, CurrentProbability: 0.72, Gap: 13,
				Factors: []domain.GapFactor{{Name: "raise_savings", Description: "Raise annual savings by 25%", NewProbability: 0.87, Improvement: 15, ClosesGap: true, Priority: domain.PriorityHigh}},
			},
			OptimalRetirementAge: &domain.OptimalRetirementAge{Age: 69, Probability: 0.86, DesiredAge: 67, GapYears: 2, Achievable: true, TargetProbability: 0.85},
		},
	}
}

func TestFormatterFunc(t *testing.T) {
	called := false
	formatter := FormatterFunc{
		ID: "test-formatter",
		F: func(r *Report) ([]byte, error) {
			called = true
			return []byte("test output"), nil
		},
	}

	out, err := formatter.Format(buildTestReport())
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "test output", string(out))
	assert.Equal(t, "test-formatter", formatter.Name())
}

func TestWriteFormatted(t *testing.T) {
	var buf bytes.Buffer
	f := FormatterFunc{ID: "x", F: func(*Report) ([]byte, error) { return []byte("content"), nil }}
	require.NoError(t, WriteFormatted(&buf, f, buildTestReport()))
	assert.Equal(t, "content", buf.String())

	failing := FormatterFunc{ID: "broken", F: func(*Report) ([]byte, error) { return nil, errors.New("boom") }}
	err := WriteFormatted(&buf, failing, buildTestReport())
	assert.EqualError(t, err, "broken formatter: boom")

	assert.Error(t, WriteFormatted(&buf, f, &Report{}))
}

func TestGetFormatterByName(t *testing.T) {
	assert.Equal(t, "console", GetFormatterByName("console").Name())
	assert.Equal(t, "console-lite", GetFormatterByName("TEXT").Name())
	assert.Equal(t, "csv", GetFormatterByName("bands").Name())
	assert.Nil(t, GetFormatterByName("non-existent"))

	assert.Equal(t, []string{"console", "console-lite", "csv", "json"}, AvailableFormatterNames())
	assert.Contains(t, AvailableFormatAliases(), "plain")
}

func TestConsoleFormatter_Plain(t *testing.T) {
	out, err := ConsoleFormatter{Plain: true}.Format(buildTestReport())
	require.NoError(t, err)
	content := string(out)

	assert.Contains(t, content, "RETIREMENT VIABILITY: REFERENCE HOUSEHOLD")
	assert.Contains(t, content, "Success probability  72.0%   (target 85.0%)")
	assert.Contains(t, content, "$1,234,567")
	assert.Contains(t, content, "Raise annual savings by 25%")
	assert.Contains(t, content, "[high]")
	assert.Contains(t, content, "69 (86.0%)")
	assert.Contains(t, content, "2 more year(s) of work")
	assert.Contains(t, content, "General inflation: 2.5% mean")
	assert.NotContains(t, content, "\x1b[")
}

func TestConsoleFormatter_Styled(t *testing.T) {
	out, err := ConsoleFormatter{}.Format(buildTestReport())
	require.NoError(t, err)
	assert.Contains(t, string(out), "72.0%")
	assert.Contains(t, string(out), "LONG-TERM CARE")
}

func TestConsoleFormatter_NoResult(t *testing.T) {
	_, err := ConsoleFormatter{}.Format(&Report{})
	assert.Error(t, err)
}

func TestJSONFormatter(t *testing.T) {
	out, err := JSONFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "run-1", decoded["runId"])
	assert.Equal(t, 0.72, decoded["successProbability"])
	assert.Contains(t, decoded, "gapAnalysis")
}

func TestCSVBandsFormatter(t *testing.T) {
	out, err := CSVBandsFormatter{}.Format(buildTestReport())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "age,trials,p5,p10,p25,p50,p75,p90,p95", lines[0])
	assert.Equal(t, "45,100,1000.00,2000.00,3000.00,4000.00,5000.00,6000.00,7000.00", lines[1])
}

func TestTracesRoundTrip(t *testing.T) {
	trials := []domain.Trial{
		{
			Index:   0,
			Regime:  "normal",
			Horizon: 2,
			Success: true,
			LTC:     &domain.LTCEvent{Person: domain.PersonUser, OnsetAge: 82, DurationYears: 2, NetCosts: []float64{1, 2}},
			Years: []domain.YearlyCashFlow{
				{YearIndex: 0, Year: 1, Age: 45, EndBalance: 100, GuardrailAction: domain.GuardrailCut, Buckets: domain.Balances{Cash: 100}},
				{YearIndex: 1, Year: 2, Age: 46, EndBalance: 90},
			},
		},
		{Index: 1, DepletionAge: 80},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTraces(&buf, "run-9", trials))

	runID, decoded, err := ReadTraces(&buf)
	require.NoError(t, err)
	assert.Equal(t, "run-9", runID)
	require.Len(t, decoded, 2)
	assert.Equal(t, "normal", decoded[0].Regime)
	assert.Equal(t, domain.GuardrailCut, decoded[0].Years[0].GuardrailAction)
	assert.Equal(t, 100.0, decoded[0].Years[0].Buckets.Cash)
	assert.Equal(t, 82, decoded[0].LTC.OnsetAge)
	assert.Nil(t, decoded[1].LTC)
	assert.Equal(t, 80, decoded[1].DepletionAge)
}

func TestSaveTraces(t *testing.T) {
	path := t.TempDir() + "/traces.msgpack"
	require.NoError(t, SaveTraces(path, "run-2", []domain.Trial{{Index: 3}}))
}

func TestFormatCurrency(t *testing.T) {
	tests := map[float64]string{
		0:          "$0",
		999.4:      "$999",
		1000:       "$1,000",
		1234567.89: "$1,234,568",
		-25000:     "-$25,000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrency(decimal.NewFromFloat(in)), "%v", in)
	}
}

func TestBuildAssumptions(t *testing.T) {
	p := domain.SampleParameters()
	rate := decimal.NewFromFloat(0.18)
	p.Tax.EffectiveRate = &rate

	got := BuildAssumptions(p, &domain.Tables{Version: "2024.1"})
	joined := strings.Join(got, "\n")
	assert.Contains(t, joined, "Taxes: flat 18.0% effective rate")
	assert.Contains(t, joined, "Long-term care: self-funded")
	assert.Contains(t, joined, "Withdrawal order (standard): "+strings.Join(sequencing.NewStandardStrategy().Order(), ", "))
	assert.Contains(t, joined, "antithetic variates, Latin hypercube, control variate")
	assert.Contains(t, joined, "Tables version: 2024.1")
	assert.NotContains(t, joined, "Survivor spending")

	assert.Nil(t, BuildAssumptions(nil, nil))
}
