// Package sequencing decides which bucket each withdrawal dollar comes from and how that
// dollar is taxed.
package sequencing

// Bucket names
const (
	SourceCash        = "cash"
	SourceTaxable     = "taxable"
	SourceTaxDeferred = "tax_deferred"
	SourceTaxFree     = "tax_free"
)

// TaxTreatment represents tax characteristics of a withdrawal source
// Ordinary: fully taxable as ordinary income (tax-deferred accounts)
// TaxFree: no current year tax impact (cash, Roth-style accounts)
// CapitalGains: only the gain portion is taxed, via basis tracking
type TaxTreatment int

const (
	TaxFree TaxTreatment = iota
	OrdinaryIncome
	CapitalGains
)

func (tt TaxTreatment) String() string {
	switch tt {
	case TaxFree:
		return "tax_free"
	case OrdinaryIncome:
		return "ordinary"
	case CapitalGains:
		return "capital_gains"
	default:
		return "unknown"
	}
}

// TreatmentOf returns the tax treatment of a bucket
func TreatmentOf(source string) TaxTreatment {
	switch source {
	case SourceTaxable:
		return CapitalGains
	case SourceTaxDeferred:
		return OrdinaryIncome
	default:
		return TaxFree
	}
}

// WithdrawalSource represents an available pool for withdrawals
// Basis is only meaningful for the taxable bucket
type WithdrawalSource struct {
	Name         string
	Balance      float64
	Basis        float64
	TaxTreatment TaxTreatment
}

// WithdrawalAllocation captures the withdrawal from one source and its tax decomposition
// OrdinaryPortion: amount treated as ordinary income
// CapitalGainsPortion: gain recognized on a taxable-bucket sale
// TaxFreePortion: cash, tax-free bucket, or basis recovery
// MAGIImpact: portion contributing to MAGI (ordinary + capital gains)
type WithdrawalAllocation struct {
	Source              string
	Gross               float64
	OrdinaryPortion     float64
	CapitalGainsPortion float64
	TaxFreePortion      float64
	MAGIImpact          float64
}

// WithdrawalPlan aggregates the full plan for meeting a target amount
// RemainingNeed is the unmet portion when balances run out
type WithdrawalPlan struct {
	Requested               float64
	Allocations             []WithdrawalAllocation
	TotalSourced            float64
	RemainingNeed           float64
	EstimatedOrdinaryIncome float64
	EstimatedCapitalGains   float64
	EstimatedMAGIImpact     float64
	StrategyUsed            string
}

// SequencingStrategy defines interface for all withdrawal sequencing algorithms
type SequencingStrategy interface {
	Name() string
	// Order lists source names in the order they are drawn
	Order() []string
	Plan(sources []WithdrawalSource, need float64) WithdrawalPlan
}
