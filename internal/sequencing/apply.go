package sequencing

import (
	"github.com/rgehrsitz/viability/internal/domain"
)

// Apply debits a plan from the buckets. Taxable basis is reduced in proportion to the share
// of the taxable balance sold.
func Apply(b *domain.Balances, plan WithdrawalPlan) {
	for _, a := range plan.Allocations {
		switch a.Source {
		case SourceCash:
			b.Cash = max(0, b.Cash-a.Gross)
		case SourceTaxable:
			if b.Taxable > 0 {
				b.TaxableBasis -= b.TaxableBasis * min(1, a.Gross/b.Taxable)
			}
			b.Taxable = max(0, b.Taxable-a.Gross)
			if b.Taxable == 0 {
				b.TaxableBasis = 0
			}
		case SourceTaxDeferred:
			b.TaxDeferred = max(0, b.TaxDeferred-a.Gross)
		case SourceTaxFree:
			b.TaxFree = max(0, b.TaxFree-a.Gross)
		}
	}
}

// Split holds contribution fractions by bucket
type Split struct {
	Cash, Taxable, TaxDeferred, TaxFree float64
}

// SplitFrom converts the configured savings split
func SplitFrom(s domain.SavingsSplit) Split {
	return Split{
		Cash:        s.Cash.InexactFloat64(),
		Taxable:     s.Taxable.InexactFloat64(),
		TaxDeferred: s.TaxDeferred.InexactFloat64(),
		TaxFree:     s.TaxFree.InexactFloat64(),
	}
}

// Deposit adds a contribution across buckets. New taxable money is all basis.
func Deposit(b *domain.Balances, split Split, amount float64) {
	if amount <= 0 {
		return
	}
	b.Cash += amount * split.Cash
	b.Taxable += amount * split.Taxable
	b.TaxableBasis += amount * split.Taxable
	b.TaxDeferred += amount * split.TaxDeferred
	b.TaxFree += amount * split.TaxFree
}

// Reinvest moves after-tax money into the taxable bucket, e.g. a required distribution that
// exceeded the year's need
func Reinvest(b *domain.Balances, amount float64) {
	if amount <= 0 {
		return
	}
	b.Taxable += amount
	b.TaxableBasis += amount
}

// Grow applies one year's portfolio return to every bucket. Basis is unaffected.
func Grow(b *domain.Balances, r float64) {
	f := 1 + r
	b.Cash *= f
	b.Taxable *= f
	b.TaxDeferred *= f
	b.TaxFree *= f
}
