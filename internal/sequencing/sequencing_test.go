package sequencing

import (
	"testing"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testBalances() domain.Balances {
	return domain.Balances{Cash: 10000, Taxable: 50000, TaxableBasis: 30000, TaxDeferred: 100000, TaxFree: 40000}
}

func TestCreateStrategy(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		sequence []string
		expected string
	}{
		{"default", "", nil, "standard"},
		{"standard", "standard", nil, "standard"},
		{"tax efficient", "tax_efficient", nil, "tax_efficient"},
		{"custom sequence", "", []string{SourceTaxFree, SourceCash}, "custom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy, err := CreateStrategy(tt.strategy, tt.sequence)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, strategy.Name())

			plan := strategy.Plan(CreateWithdrawalSources(testBalances()), 10000)
			assert.NotEmpty(t, plan.Allocations)
			assert.InDelta(t, 10000, plan.TotalSourced, 1e-9)
		})
	}
}

func TestCreateStrategy_UnknownName(t *testing.T) {
	_, err := CreateStrategy("bracket_magic", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bracket_magic")

	// an explicit sequence takes precedence over the name
	s, err := CreateStrategy("bracket_magic", []string{SourceCash})
	require.NoError(t, err)
	assert.Equal(t, "custom", s.Name())
}

func TestNewCustomStrategy_Validation(t *testing.T) {
	_, err := NewCustomStrategy([]string{"roth"})
	assert.Error(t, err)

	_, err = NewCustomStrategy([]string{SourceCash, SourceCash})
	assert.Error(t, err)

	s, err := NewCustomStrategy([]string{SourceTaxFree})
	require.NoError(t, err)
	assert.Equal(t, []string{SourceTaxFree, SourceCash, SourceTaxable, SourceTaxDeferred}, s.Order())
}

func TestStandardStrategy_Order(t *testing.T) {
	plan := NewStandardStrategy().Plan(CreateWithdrawalSources(testBalances()), 70000)

	require.Len(t, plan.Allocations, 3)
	assert.Equal(t, SourceCash, plan.Allocations[0].Source)
	assert.Equal(t, 10000.0, plan.Allocations[0].Gross)
	assert.Equal(t, SourceTaxable, plan.Allocations[1].Source)
	assert.Equal(t, 50000.0, plan.Allocations[1].Gross)
	assert.Equal(t, SourceTaxDeferred, plan.Allocations[2].Source)
	assert.Equal(t, 10000.0, plan.Allocations[2].Gross)
	assert.Zero(t, plan.RemainingNeed)
}

func TestStandardStrategy_CapitalGainsFromBasis(t *testing.T) {
	b := domain.Balances{Taxable: 50000, TaxableBasis: 30000}
	plan := NewStandardStrategy().Plan(CreateWithdrawalSources(b), 10000)

	require.Len(t, plan.Allocations, 1)
	alloc := plan.Allocations[0]
	// 40% of the balance is gain
	assert.InDelta(t, 4000, alloc.CapitalGainsPortion, 1e-9)
	assert.InDelta(t, 6000, alloc.TaxFreePortion, 1e-9)
	assert.InDelta(t, 4000, plan.EstimatedMAGIImpact, 1e-9)
	assert.Zero(t, plan.EstimatedOrdinaryIncome)
}

func TestStandardStrategy_Shortfall(t *testing.T) {
	b := testBalances()
	plan := NewStandardStrategy().Plan(CreateWithdrawalSources(b), 250000)

	assert.InDelta(t, b.Total(), plan.TotalSourced, 1e-9)
	assert.InDelta(t, 250000-b.Total(), plan.RemainingNeed, 1e-9)
}

func TestApply_ReducesBasisProportionally(t *testing.T) {
	b := testBalances()
	plan := NewStandardStrategy().Plan(CreateWithdrawalSources(b), 35000)
	Apply(&b, plan)

	assert.InDelta(t, 0, b.Cash, 1e-9)
	assert.InDelta(t, 25000, b.Taxable, 1e-9)
	// half the taxable balance was sold, so half the basis goes with it
	assert.InDelta(t, 15000, b.TaxableBasis, 1e-9)
	assert.InDelta(t, 100000, b.TaxDeferred, 1e-9)
}

func TestApply_BucketsSumToTotal(t *testing.T) {
	b := testBalances()
	before := b.Total()
	for _, need := range []float64{5000, 42000, 77000, 1000} {
		plan := NewStandardStrategy().Plan(CreateWithdrawalSources(b), need)
		Apply(&b, plan)
		before -= plan.TotalSourced
		assert.InDelta(t, before, b.Total(), 1e-6)
	}
}

func TestDepositReinvestGrow(t *testing.T) {
	b := domain.Balances{}
	Deposit(&b, Split{Taxable: 0.25, TaxDeferred: 0.75}, 20000)
	assert.Equal(t, 5000.0, b.Taxable)
	assert.Equal(t, 5000.0, b.TaxableBasis)
	assert.Equal(t, 15000.0, b.TaxDeferred)

	Reinvest(&b, 1000)
	assert.Equal(t, 6000.0, b.Taxable)
	assert.Equal(t, 6000.0, b.TaxableBasis)

	Grow(&b, 0.10)
	assert.InDelta(t, 6600, b.Taxable, 1e-9)
	assert.Equal(t, 6000.0, b.TaxableBasis)
	assert.InDelta(t, 16500, b.TaxDeferred, 1e-9)
}
