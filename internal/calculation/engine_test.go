package calculation

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rgehrsitz/viability/internal/config"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat"
)

func loadTables(t *testing.T) *domain.Tables {
	t.Helper()
	tables, err := config.DefaultTables()
	require.NoError(t, err)
	return tables
}

func newEngine(t *testing.T, params *domain.SimulationParameters, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(params, loadTables(t), opts)
	require.NoError(t, err)
	return e
}

func run(t *testing.T, params *domain.SimulationParameters, opts Options) (*domain.AggregateResult, []domain.Trial) {
	t.Helper()
	res, traces, err := newEngine(t, params, opts).Run(context.Background())
	require.NoError(t, err)
	return res, traces
}

func TestNewEngine_SetLogger(t *testing.T) {
	engine := newEngine(t, domain.SampleParameters(), Options{Iterations: 10, Seed: 1})
	assert.IsType(t, NopLogger{}, engine.Logger, "Should default to no-op logger")

	customLogger := &TestLogger{}
	engine.SetLogger(customLogger)
	assert.Equal(t, customLogger, engine.Logger, "Should set custom logger")

	engine.SetLogger(nil)
	assert.IsType(t, NopLogger{}, engine.Logger, "Should be no-op logger")
}

func TestNewEngine_ValidationError(t *testing.T) {
	params := domain.SampleParameters()
	params.Allocation.Bonds = decimal.NewFromFloat(0.5)

	_, err := NewEngine(params, loadTables(t), Options{Iterations: 0, Seed: 1})
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("allocation"))
	assert.True(t, ve.HasField("iterations"))
}

func TestRun_DeterministicAcrossWorkerCounts(t *testing.T) {
	params := domain.SampleParameters()

	single, _ := run(t, params, Options{Iterations: 400, Seed: 42, Workers: 1})
	parallel, _ := run(t, params, Options{Iterations: 400, Seed: 42, Workers: 8})
	again, _ := run(t, params, Options{Iterations: 400, Seed: 42, Workers: 3})

	assert.Equal(t, single, parallel)
	assert.Equal(t, single, again)

	other, _ := run(t, params, Options{Iterations: 400, Seed: 43, Workers: 2})
	assert.NotEqual(t, single.RunID, other.RunID)
}

func TestRun_ResultInvariants(t *testing.T) {
	logger := &TestLogger{}
	e := newEngine(t, domain.SampleParameters(), Options{Iterations: 300, Seed: 7, RetainTraces: 25})
	e.SetLogger(logger)
	res, traces, err := e.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, logger.messages)

	assert.Equal(t, 300, res.IncludedTrials+res.ExcludedTrials)
	assert.GreaterOrEqual(t, res.SuccessProbability, 0.0)
	assert.LessOrEqual(t, res.SuccessProbability, 1.0)
	assert.Equal(t, float64(res.SuccessfulTrials)/float64(res.IncludedTrials), res.SuccessProbability)
	assert.Equal(t, "2025.1", res.TablesVersion)
	assert.Equal(t, uint64(7), res.Seed)
	assert.NotEmpty(t, res.RunID)

	require.NotEmpty(t, res.PercentileBands)
	assert.Equal(t, 45, res.PercentileBands[0].Age)
	for _, band := range res.PercentileBands {
		v := band.Values()
		for k := 1; k < len(v); k++ {
			assert.True(t, v[k].GreaterThanOrEqual(v[k-1]), "age %d percentiles out of order", band.Age)
		}
		assert.False(t, band.P5.IsNegative())
	}

	require.Len(t, traces, 25)
	for i, trial := range traces {
		assert.Equal(t, i, trial.Index)
		assert.GreaterOrEqual(t, trial.EndingBalance, 0.0)
		for _, y := range trial.Years {
			assert.GreaterOrEqual(t, y.EndBalance, 0.0)
			assert.InDelta(t, y.EndBalance, y.Buckets.Total(), 1e-6)
		}
		if !trial.Success && !trial.Corrupted {
			last := trial.Years[len(trial.Years)-1]
			assert.Zero(t, last.EndBalance)
			assert.Equal(t, last.Age, trial.DepletionAge)
		}
	}

	assert.GreaterOrEqual(t, res.LTC.IncidenceRate, 0.0)
	assert.LessOrEqual(t, res.LTC.IncidenceRate, 1.0)
	assert.GreaterOrEqual(t, res.LTC.SuccessWithoutEvent, res.LTC.SuccessWithEvent)
	assert.LessOrEqual(t, res.LTC.AverageNetCost.InexactFloat64(), res.LTC.AverageGrossCost.InexactFloat64()+1e-6)
	assert.GreaterOrEqual(t, res.Guardrails.MaxAdjustments, 0)
}

func TestRun_WithdrawalNeverBelowFloor(t *testing.T) {
	couple := coupleParams()
	couple.AnnualRetirementExpenses = decimal.NewFromInt(110000)

	tests := []struct {
		name   string
		params *domain.SimulationParameters
	}{
		{"single", domain.SampleParameters()},
		{"couple with survivor spending", couple},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, traces := run(t, tt.params, Options{Iterations: 200, Seed: 11, RetainTraces: 200})

			floor := tt.params.Guardrails.WithDefaults().EssentialFloor.InexactFloat64()
			base := tt.params.AnnualRetirementExpenses.InexactFloat64()
			for _, trial := range traces {
				index := 1.0
				for _, y := range trial.Years {
					if y.YearIndex > 0 {
						index *= 1 + y.Inflation
					}
					if y.Retired {
						assert.GreaterOrEqual(t, y.Withdrawal, floor*base*index*(1-1e-9),
							"trial %d age %d", trial.Index, y.Age)
					}
				}
			}
		})
	}
}

func TestRun_ControlVariate(t *testing.T) {
	res, _ := run(t, domain.SampleParameters(), Options{Iterations: 400, Seed: 5})
	require.NotNil(t, res.ControlVariate)
	assert.GreaterOrEqual(t, res.ControlVariate.AdjustedProbability, 0.0)
	assert.LessOrEqual(t, res.ControlVariate.AdjustedProbability, 1.0)
	assert.InDelta(t, res.ControlVariate.ExpectedMean, res.ControlVariate.SampleMean, 0.02)

	params := domain.SampleParameters()
	params.Sampling = &domain.SamplingOptions{Antithetic: true, LatinHypercube: true}
	res, _ = run(t, params, Options{Iterations: 100, Seed: 5})
	assert.Nil(t, res.ControlVariate)
}

func TestRun_MonotonicInSavings(t *testing.T) {
	low := domain.SampleParameters()
	high := domain.SampleParameters()
	high.AnnualSavings = decimal.NewFromInt(40000)

	lowRes, _ := run(t, low, Options{Iterations: 500, Seed: 99})
	highRes, _ := run(t, high, Options{Iterations: 500, Seed: 99})
	assert.GreaterOrEqual(t, highRes.SuccessProbability, lowRes.SuccessProbability)
	assert.True(t, highRes.MedianEndingBalance.GreaterThanOrEqual(lowRes.MedianEndingBalance))
}

func TestRun_MonotonicInRetirementAge(t *testing.T) {
	early := domain.SampleParameters()
	late := domain.SampleParameters()
	late.RetirementAge = 70
	late.Household.User.SocialSecurity.ClaimAge = 70

	earlyRes, _ := run(t, early, Options{Iterations: 500, Seed: 99})
	lateRes, _ := run(t, late, Options{Iterations: 500, Seed: 99})
	assert.GreaterOrEqual(t, lateRes.SuccessProbability, earlyRes.SuccessProbability)
}

func TestRun_AntitheticReducesVariance(t *testing.T) {
	if testing.Short() {
		t.Skip("repeated batches")
	}
	estimates := func(antithetic bool) []float64 {
		params := domain.SampleParameters()
		params.Sampling = &domain.SamplingOptions{Antithetic: antithetic}
		out := make([]float64, 0, 40)
		for seed := uint64(1); seed <= 40; seed++ {
			res, _ := run(t, params, Options{Iterations: 200, Seed: seed})
			out = append(out, res.SuccessProbability)
		}
		return out
	}
	plain := stat.StdDev(estimates(false), nil)
	paired := stat.StdDev(estimates(true), nil)
	assert.LessOrEqual(t, paired, plain)
}

func TestRun_ReferenceHouseholdReproducible(t *testing.T) {
	params := domain.SampleParameters()
	first, firstTraces := run(t, params, Options{Iterations: 1000, Seed: 20240601, RetainTraces: 1})
	second, secondTraces := run(t, params.DeepCopy(), Options{Iterations: 1000, Seed: 20240601, RetainTraces: 1})

	assert.Equal(t, first, second)
	assert.Equal(t, firstTraces, secondTraces)
	assert.Equal(t, 1000, first.IncludedTrials)
	assert.True(t, first.ExpectedEndingBalance.GreaterThanOrEqual(decimal.Zero))
}

func TestRun_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, traces, err := newEngine(t, domain.SampleParameters(), Options{Iterations: 100, Seed: 1}).Run(ctx)
	assert.Nil(t, res)
	assert.Nil(t, traces)
	assert.True(t, errors.Is(err, ErrCanceled))

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 100, be.Total)
	assert.Less(t, be.Completed, be.Total)
}

func TestRun_Timeout(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, _, err := newEngine(t, domain.SampleParameters(), Options{Iterations: 100, Seed: 1}).Run(ctx)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.False(t, errors.Is(err, ErrCanceled))
}

func TestProjector_ExpectedPath(t *testing.T) {
	params := domain.SampleParameters()
	e := newEngine(t, params, Options{Iterations: 10, Seed: 1})

	s := e.Generator().Expected(90, 0)
	trial := e.Projector().Project(s, false)

	assert.Nil(t, trial.LTC)
	assert.Equal(t, 46, trial.Horizon)
	assert.Equal(t, 45, trial.Years[0].Age)
	assert.False(t, trial.Years[0].Retired)
	assert.InDelta(t, 25000, trial.Years[0].Contributions, 1e-9)

	retired := trial.Years[67-45]
	assert.True(t, retired.Retired)
	assert.Greater(t, retired.GuaranteedIncome, 0.0)
	assert.Greater(t, retired.Healthcare, 0.0)
	assert.InDelta(t, e.ExpectedEndingBalance(), trial.EndingBalance, 1e-6)
}

func coupleParams() *domain.SimulationParameters {
	params := domain.SampleParameters()
	params.Household.Spouse = &domain.Person{
		Name:       "Sam",
		CurrentAge: 45,
		Sex:        "male",
		SocialSecurity: domain.SocialSecurity{
			AnnualBenefitAtFRA: decimal.NewFromInt(20000),
			ClaimAge:           67,
		},
	}
	params.Tax.FilingStatus = domain.FilingMFJ
	return params
}

func TestProjector_CoupleSurvivor(t *testing.T) {
	params := coupleParams()
	e := newEngine(t, params, Options{Iterations: 10, Seed: 1})

	// user dies at 75, spouse lives to 90
	trial := e.Projector().Project(e.Generator().Expected(75, 90), false)
	require.Equal(t, 46, trial.Horizon)

	before := trial.Years[75-45]
	after := trial.Years[77-45]
	assert.Equal(t, 75, before.Age)
	assert.True(t, after.Retired)
	// the survivor steps up to the larger benefit and spending falls by the survivor factor,
	// never below the floor
	idx := 1 + after.Inflation
	assert.LessOrEqual(t, after.Withdrawal/before.Withdrawal, idx*(1+1e-9))
	assert.Greater(t, after.GuaranteedIncome, 0.0)
	assert.Less(t, after.GuaranteedIncome, before.GuaranteedIncome)
}

func TestProjector_IncomeBeforeRetirement(t *testing.T) {
	params := domain.SampleParameters()
	params.Household.User.CurrentAge = 60
	params.Household.User.SocialSecurity.ClaimAge = 62
	params.IncomeStreams = []domain.IncomeStream{
		{Name: "pension", AnnualAmount: decimal.NewFromInt(30000), StartAge: 60, Taxable: true},
	}
	e := newEngine(t, params, Options{Iterations: 10, Seed: 1})
	trial := e.Projector().Project(e.Generator().Expected(90, 0), false)

	baseline := domain.SampleParameters()
	baseline.Household.User.CurrentAge = 60
	b := newEngine(t, baseline, Options{Iterations: 10, Seed: 1})
	without := b.Projector().Project(b.Generator().Expected(90, 0), false)

	first := trial.Years[0]
	assert.Equal(t, 60, first.Age)
	assert.False(t, first.Retired)
	assert.InDelta(t, 30000, first.GuaranteedIncome, 1e-6)
	assert.Greater(t, first.Taxes, 0.0)
	assert.Greater(t, first.EndBalance, without.Years[0].EndBalance)
	assert.Zero(t, without.Years[0].GuaranteedIncome)

	// benefits claimed at 62 are paid while still working
	claimed := trial.Years[62-60]
	assert.False(t, claimed.Retired)
	assert.Greater(t, claimed.GuaranteedIncome, trial.Years[1].GuaranteedIncome)
}

func TestClaimFactor(t *testing.T) {
	rules := loadTables(t).SocialSecurity
	assert.InDelta(t, 0.70, ClaimFactor(rules, 62, 67), 1e-6)
	assert.InDelta(t, 0.80, ClaimFactor(rules, 64, 67), 1e-6)
	assert.InDelta(t, 1.00, ClaimFactor(rules, 67, 67), 1e-12)
	assert.InDelta(t, 1.24, ClaimFactor(rules, 70, 67), 1e-12)
	assert.InDelta(t, 1.24, ClaimFactor(rules, 72, 67), 1e-12)
	assert.InDelta(t, 1.00, ClaimFactor(rules, 67, 0), 1e-12)
}

func TestSocialSecuritySurvivorStepUp(t *testing.T) {
	b := [2]benefit{{annual: 30000, claimAge: 67}, {annual: 0}}
	ages := [2]int{70, 68}

	assert.Equal(t, 30000.0, socialSecurity(b, ages, [2]bool{true, true}, true))
	assert.Equal(t, 30000.0, socialSecurity(b, ages, [2]bool{false, true}, true))
	assert.Zero(t, socialSecurity(b, [2]int{70, 58}, [2]bool{false, true}, true))
	assert.Equal(t, 30000.0, socialSecurity(b, ages, [2]bool{true, false}, false))
	assert.Zero(t, socialSecurity(b, [2]int{66, 64}, [2]bool{true, true}, true))
}

func TestAggregate_NoTrials(t *testing.T) {
	_, err := aggregate([]outcome{{corrupted: true}}, batchSummary{})
	assert.ErrorIs(t, err, ErrNoTrials)
}

func TestAggregate_Statistics(t *testing.T) {
	event := &domain.LTCEvent{GrossCosts: []float64{100000}, NetCosts: []float64{40000}}
	outcomes := []outcome{
		{success: true, ending: 100, endBalances: []float64{50, 100}, cuts: 1, control: 0.05},
		{success: false, ending: 0, depletionAge: 75, endBalances: []float64{10, 0}, raises: 2, control: 0.03, ltc: event},
		{success: true, ending: 300, endBalances: []float64{70, 300}, control: 0.07, ltc: event, successWithoutLTC: true},
		{corrupted: true, ending: math.NaN()},
	}
	res, err := aggregate(outcomes, batchSummary{currentAge: 60, retirementAge: 65, controlVariate: true, expectedMean: 0.05})
	require.NoError(t, err)

	assert.Equal(t, 3, res.IncludedTrials)
	assert.Equal(t, 1, res.ExcludedTrials)
	assert.InDelta(t, 2.0/3.0, res.SuccessProbability, 1e-12)
	assert.True(t, res.AverageEndingBalance.Equal(decimal.NewFromFloat(133.33)))
	assert.True(t, res.MedianEndingBalance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 10.0, res.AverageYearsUntilDepletion)

	require.Len(t, res.PercentileBands, 2)
	assert.Equal(t, 61, res.PercentileBands[1].Age)
	assert.True(t, res.PercentileBands[1].P50.Equal(decimal.NewFromInt(100)))

	assert.Equal(t, 2, res.Guardrails.MaxAdjustments)
	assert.InDelta(t, 1.0, res.Guardrails.MeanAdjustments, 1e-12)

	assert.Equal(t, 2, res.LTC.TrialsWithEvent)
	assert.True(t, res.LTC.AverageNetCost.Equal(decimal.NewFromInt(40000)))
	assert.InDelta(t, 0.5, res.LTC.SuccessWithEvent, 1e-12)
	assert.InDelta(t, 0.5, res.LTC.SuccessWithoutEvent, 1e-12)

	require.NotNil(t, res.ControlVariate)
	assert.InDelta(t, 0.05, res.ControlVariate.SampleMean, 1e-12)
	// sample mean equals the expected mean so no adjustment is made
	assert.InDelta(t, res.SuccessProbability, res.ControlVariate.AdjustedProbability, 1e-12)
}

// TestLogger is a simple logger for testing
type TestLogger struct {
	messages []string
}

func (tl *TestLogger) Debugf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "DEBUG: "+format)
}

func (tl *TestLogger) Infof(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "INFO: "+format)
}

func (tl *TestLogger) Warnf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "WARN: "+format)
}

func (tl *TestLogger) Errorf(format string, args ...interface{}) {
	tl.messages = append(tl.messages, "ERROR: "+format)
}
