package sequencing

import (
	"fmt"

	"github.com/rgehrsitz/viability/internal/domain"
)

// CreateStrategy resolves a strategy by name; an explicit sequence selects a custom order.
// An empty name means standard.
func CreateStrategy(name string, sequence []string) (SequencingStrategy, error) {
	if len(sequence) > 0 {
		s, err := NewCustomStrategy(sequence)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	switch name {
	case "", "standard":
		return NewStandardStrategy(), nil
	case "tax_efficient":
		return NewTaxEfficientStrategy(), nil
	default:
		return nil, fmt.Errorf("unknown withdrawal strategy %q (want standard or tax_efficient)", name)
	}
}

// NewCustomStrategy validates a user-specified order. Buckets left out are drawn last in
// standard order so a plan never stops while money remains.
func NewCustomStrategy(sequence []string) (*OrderedStrategy, error) {
	allowed := map[string]bool{SourceCash: true, SourceTaxable: true, SourceTaxDeferred: true, SourceTaxFree: true}
	seen := map[string]bool{}
	order := make([]string, 0, len(allowed))
	for _, name := range sequence {
		if !allowed[name] {
			return nil, fmt.Errorf("unknown withdrawal source %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("withdrawal source %q listed twice", name)
		}
		seen[name] = true
		order = append(order, name)
	}
	for _, name := range NewStandardStrategy().order {
		if !seen[name] {
			order = append(order, name)
		}
	}
	return &OrderedStrategy{name: "custom", order: order}, nil
}

// CreateWithdrawalSources lists the buckets of b as sources
func CreateWithdrawalSources(b domain.Balances) []WithdrawalSource {
	return []WithdrawalSource{
		{Name: SourceCash, Balance: b.Cash, TaxTreatment: TaxFree},
		{Name: SourceTaxable, Balance: b.Taxable, Basis: b.TaxableBasis, TaxTreatment: CapitalGains},
		{Name: SourceTaxDeferred, Balance: b.TaxDeferred, TaxTreatment: OrdinaryIncome},
		{Name: SourceTaxFree, Balance: b.TaxFree, TaxTreatment: TaxFree},
	}
}
