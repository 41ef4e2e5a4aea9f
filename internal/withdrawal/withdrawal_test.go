package withdrawal

import (
	"testing"

	"github.com/rgehrsitz/viability/internal/config"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTables(t *testing.T) *domain.Tables {
	t.Helper()
	tables, err := config.DefaultTables()
	require.NoError(t, err)
	return tables
}

func TestFederalTax_OrdinaryBrackets(t *testing.T) {
	calc := NewTaxCalculator(loadTables(t), "TX", nil)

	tests := []struct {
		name     string
		input    TaxInput
		expected float64
	}{
		{
			name:     "single under 65",
			input:    TaxInput{RetirementIncome: 60000, FilingStatus: domain.FilingSingle, InflationIndex: 1},
			expected: 1192.5 + 33075*0.12,
		},
		{
			name:     "single 65 plus gets additional deduction",
			input:    TaxInput{RetirementIncome: 60000, FilingStatus: domain.FilingSingle, Seniors: 1, InflationIndex: 1},
			expected: 1192.5 + 31475*0.12,
		},
		{
			name:     "thresholds follow inflation",
			input:    TaxInput{RetirementIncome: 60000, FilingStatus: domain.FilingSingle, InflationIndex: 2},
			expected: 2385 + 6150*0.12,
		},
		{
			name:     "income below deduction",
			input:    TaxInput{RetirementIncome: 10000, FilingStatus: domain.FilingSingle, InflationIndex: 1},
			expected: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := calc.Compute(tt.input)
			assert.InDelta(t, tt.expected, res.Federal, 0.01)
			assert.Zero(t, res.State)
		})
	}
}

func TestFederalTax_CapitalGainsStackOnOrdinary(t *testing.T) {
	calc := NewTaxCalculator(loadTables(t), "TX", nil)
	res := calc.Compute(TaxInput{RetirementIncome: 60000, CapitalGains: 10000, FilingStatus: domain.FilingSingle, InflationIndex: 1})

	// 3350 of gains fit in the 0% band, the rest is taxed at 15%
	assert.InDelta(t, 5161.5+6650*0.15, res.Federal, 0.01)
	assert.InDelta(t, 70000, res.AGI, 1e-9)
}

func TestTaxableSocialSecurity(t *testing.T) {
	calc := NewTaxCalculator(loadTables(t), "TX", nil)

	assert.Zero(t, calc.TaxableSocialSecurity(30000, 5000, domain.FilingSingle))
	assert.InDelta(t, 2000, calc.TaxableSocialSecurity(30000, 14000, domain.FilingSingle), 1e-9)
	assert.InDelta(t, 5350, calc.TaxableSocialSecurity(30000, 20000, domain.FilingSingle), 1e-9)
	assert.InDelta(t, 0.85*30000, calc.TaxableSocialSecurity(30000, 500000, domain.FilingSingle), 1e-9)

	// joint thresholds are higher
	assert.Zero(t, calc.TaxableSocialSecurity(30000, 16000, domain.FilingMFJ))
}

func TestStateTax(t *testing.T) {
	tables := loadTables(t)

	pa := NewTaxCalculator(tables, "PA", nil)
	assert.InDelta(t, 50000*0.0307, pa.Compute(TaxInput{Wages: 50000, InflationIndex: 1}).State, 0.01)
	assert.Zero(t, pa.Compute(TaxInput{RetirementIncome: 40000, SocialSecurity: 30000, InflationIndex: 1}).State)

	ga := NewTaxCalculator(tables, "GA", nil)
	assert.InDelta(t, 35000*0.0539, ga.Compute(TaxInput{RetirementIncome: 100000, InflationIndex: 1}).State, 0.01)

	unknown := NewTaxCalculator(tables, "ZZ", nil)
	assert.Zero(t, unknown.Compute(TaxInput{Wages: 100000, InflationIndex: 1}).State)

	ca := NewTaxCalculator(tables, "CA", nil)
	assert.Greater(t, ca.Compute(TaxInput{Wages: 100000, InflationIndex: 1}).State, 0.0)
}

func TestEffectiveRateOverridesBrackets(t *testing.T) {
	rate := decimal.NewFromFloat(0.15)
	calc := NewTaxCalculator(loadTables(t), "PA", &rate)

	res := calc.Compute(TaxInput{RetirementIncome: 60000, FilingStatus: domain.FilingSingle, InflationIndex: 1})
	assert.InDelta(t, 0.15*45000, res.Federal, 0.01)
	assert.Zero(t, res.State)
}

func TestIRMAASurcharge(t *testing.T) {
	m := NewIRMAA(loadTables(t).IRMAA)

	assert.Equal(t, 2, m.Lookback())
	assert.Equal(t, 1, m.Covered(64, 65))
	assert.Equal(t, 0, m.Covered(60))

	assert.Zero(t, m.Surcharge(100000, domain.FilingSingle, 1, 1))
	assert.InDelta(t, 185*12, m.Surcharge(150000, domain.FilingSingle, 1, 1), 1e-9)
	assert.InDelta(t, 2*185*12, m.Surcharge(300000, domain.FilingMFJ, 2, 1), 1e-9)
	assert.InDelta(t, 443.9*12, m.Surcharge(600000, domain.FilingSingle, 1, 1), 1e-6)
	assert.Zero(t, m.Surcharge(150000, domain.FilingSingle, 0, 1))

	// indexed thresholds move the household below the first tier
	assert.Zero(t, m.Surcharge(150000, domain.FilingSingle, 1, 2))
}

func TestMAGIHistory(t *testing.T) {
	h := NewMAGIHistory(90000, 10)
	assert.Equal(t, 90000.0, h.At(-2))
	assert.Equal(t, 90000.0, h.At(0))

	h.Record(100000)
	h.Record(120000)
	assert.Equal(t, 100000.0, h.At(0))
	assert.Equal(t, 120000.0, h.At(1))
	assert.Equal(t, 90000.0, h.At(2))
}

func TestRequiredDistribution(t *testing.T) {
	table := loadTables(t).RMD

	assert.Zero(t, RequiredDistribution(table, 72, 500000))
	assert.InDelta(t, 500000/26.5, RequiredDistribution(table, 73, 500000), 1e-9)
	assert.Zero(t, RequiredDistribution(table, 80, 0))
}

func TestGuardrails(t *testing.T) {
	g := NewGuardrails(domain.DefaultGuardrailConfig(), 0.04)

	t.Run("within band", func(t *testing.T) {
		st := &GuardrailState{}
		g.Start(st, 40000)
		assert.Equal(t, domain.GuardrailNone, g.Adjust(st, 40000, 1000000, domain.GuardrailNone))
		assert.Equal(t, 40000.0, st.Spending)
	})

	t.Run("cut when rate too high", func(t *testing.T) {
		st := &GuardrailState{}
		g.Start(st, 40000)
		assert.Equal(t, domain.GuardrailCut, g.Adjust(st, 40000, 700000, domain.GuardrailInflation))
		assert.InDelta(t, 36000, st.Spending, 1e-9)
		assert.Equal(t, 1, st.Cuts)
	})

	t.Run("raise when rate too low", func(t *testing.T) {
		st := &GuardrailState{}
		g.Start(st, 40000)
		assert.Equal(t, domain.GuardrailRaise, g.Adjust(st, 40000, 1500000, domain.GuardrailInflation))
		assert.InDelta(t, 44000, st.Spending, 1e-9)
		assert.Equal(t, 1, st.Raises)
	})

	t.Run("floor holds after repeated cuts", func(t *testing.T) {
		st := &GuardrailState{}
		g.Start(st, 40000)
		var action string
		for i := 0; i < 6; i++ {
			action = g.Adjust(st, st.Spending, 100000, domain.GuardrailInflation)
			assert.GreaterOrEqual(t, st.Spending, g.Floor(st))
		}
		assert.Equal(t, domain.GuardrailFloor, action)
		assert.InDelta(t, 28000, st.Spending, 1e-9)
	})

	t.Run("reference rate taken from first year", func(t *testing.T) {
		g := NewGuardrails(domain.DefaultGuardrailConfig(), 0)
		st := &GuardrailState{}
		g.Start(st, 50000)
		g.Adjust(st, 50000, 1000000, domain.GuardrailNone)
		assert.InDelta(t, 0.05, st.ReferenceRate, 1e-12)
		assert.Zero(t, st.Cuts+st.Raises)
	})
}

func TestGuardrails_Inflate(t *testing.T) {
	cfg := domain.DefaultGuardrailConfig()
	cfg.SkipInflationAfterLoss = true
	g := NewGuardrails(cfg, 0.04)

	st := &GuardrailState{}
	g.Start(st, 40000)
	assert.Equal(t, domain.GuardrailInflation, g.Inflate(st, 0.03, 0.05))
	assert.InDelta(t, 41200, st.Spending, 1e-9)

	assert.Equal(t, domain.GuardrailFrozen, g.Inflate(st, 0.03, -0.10))
	assert.InDelta(t, 41200, st.Spending, 1e-9)
	assert.InDelta(t, 40000*1.03*1.03, st.Baseline, 1e-9)
}

func newStrategy(t *testing.T, mutate func(p *domain.SimulationParameters)) *Strategy {
	t.Helper()
	p := domain.SampleParameters()
	p.Tax.State = "TX"
	if mutate != nil {
		mutate(p)
	}
	s, err := NewStrategy(p, loadTables(t))
	require.NoError(t, err)
	return s
}

func TestSolve_GrossesUpForTaxes(t *testing.T) {
	s := newStrategy(t, nil)
	b := domain.Balances{Cash: 10000, TaxDeferred: 500000}
	in := YearInput{Expenses: 60000, FilingStatus: domain.FilingSingle, InflationIndex: 1}

	out := s.Solve(b, in)

	assert.LessOrEqual(t, out.Passes, maxPasses)
	assert.Greater(t, out.Tax.Total(), 0.0)
	assert.InDelta(t, in.Expenses, out.PortfolioDraw-out.Tax.Total(), grossTolerance)
	assert.Zero(t, out.Shortfall)
	assert.Equal(t, 510000.0, b.Total(), "solve must not mutate balances")

	s.Execute(&b, out)
	assert.InDelta(t, 510000-out.PortfolioDraw, b.Total(), 1e-6)
	assert.Zero(t, b.Cash)
}

func TestSolve_ReportsShortfall(t *testing.T) {
	s := newStrategy(t, nil)
	out := s.Solve(domain.Balances{Cash: 1000}, YearInput{Expenses: 5000, FilingStatus: domain.FilingSingle, InflationIndex: 1})

	assert.InDelta(t, 1000, out.PortfolioDraw, 1e-9)
	assert.InDelta(t, 4000, out.Shortfall, 1e-9)
}

func TestSolve_IncomeCoversExpenses(t *testing.T) {
	s := newStrategy(t, nil)
	out := s.Solve(domain.Balances{TaxDeferred: 100000}, YearInput{
		Expenses: 20000, SocialSecurity: 30000, FilingStatus: domain.FilingSingle, InflationIndex: 1,
	})

	assert.Zero(t, out.PortfolioDraw)
	assert.InDelta(t, 10000, out.Reinvested, 1e-9)
}

func TestSolve_ExcessRMDIsReinvested(t *testing.T) {
	s := newStrategy(t, nil)
	b := domain.Balances{TaxDeferred: 100000}
	out := s.Solve(b, YearInput{Expenses: 10000, RMD: 40000, FilingStatus: domain.FilingSingle, InflationIndex: 1})

	tax := 1192.5 + 13075*0.12
	assert.InDelta(t, 40000, out.PortfolioDraw, 1e-9)
	assert.InDelta(t, tax, out.Tax.Total(), 0.01)
	assert.InDelta(t, 40000-10000-tax, out.Reinvested, 0.01)

	s.Execute(&b, out)
	assert.InDelta(t, 60000, b.TaxDeferred, 1e-9)
	assert.InDelta(t, out.Reinvested, b.Taxable, 1e-9)
	assert.InDelta(t, out.Reinvested, b.TaxableBasis, 1e-9)
}

func TestNewStrategy_RejectsBadSequence(t *testing.T) {
	p := domain.SampleParameters()
	p.WithdrawalSequence = []string{"cash", "crypto"}

	_, err := NewStrategy(p, loadTables(t))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("withdrawal_sequence"))
}

func TestNewStrategy_RejectsUnknownStrategy(t *testing.T) {
	p := domain.SampleParameters()
	p.WithdrawalStrategy = "tax_efficent"

	_, err := NewStrategy(p, loadTables(t))
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.True(t, ve.HasField("withdrawal_strategy"))
}
