package sequencing

// OrderedStrategy draws from sources in a fixed order
type OrderedStrategy struct {
	name  string
	order []string
}

// NewStandardStrategy spends cash, then taxable, then tax-deferred, preserving tax-free for last
func NewStandardStrategy() *OrderedStrategy {
	return &OrderedStrategy{name: "standard", order: []string{SourceCash, SourceTaxable, SourceTaxDeferred, SourceTaxFree}}
}

// NewTaxEfficientStrategy spends cash, then tax-free, then tax-deferred, leaving taxable for last
// to keep realized gains low in early retirement
func NewTaxEfficientStrategy() *OrderedStrategy {
	return &OrderedStrategy{name: "tax_efficient", order: []string{SourceCash, SourceTaxFree, SourceTaxDeferred, SourceTaxable}}
}

func (s *OrderedStrategy) Name() string { return s.name }

// Order returns the sourcing order
func (s *OrderedStrategy) Order() []string { return s.order }

func (s *OrderedStrategy) Plan(sources []WithdrawalSource, need float64) WithdrawalPlan {
	plan := WithdrawalPlan{Requested: need, StrategyUsed: s.name}
	remaining := need

	lookup := map[string]*WithdrawalSource{}
	for i := range sources {
		lookup[sources[i].Name] = &sources[i]
	}

	for _, name := range s.order {
		if remaining <= 0 {
			break
		}
		src, ok := lookup[name]
		if !ok || src.Balance <= 0 {
			continue
		}

		withdraw := min(src.Balance, remaining)
		alloc := allocate(src, withdraw)

		plan.Allocations = append(plan.Allocations, alloc)
		plan.TotalSourced += withdraw
		remaining -= withdraw
		plan.EstimatedOrdinaryIncome += alloc.OrdinaryPortion
		plan.EstimatedCapitalGains += alloc.CapitalGainsPortion
		plan.EstimatedMAGIImpact += alloc.MAGIImpact
	}

	plan.RemainingNeed = max(0, remaining)
	return plan
}

func allocate(src *WithdrawalSource, withdraw float64) WithdrawalAllocation {
	alloc := WithdrawalAllocation{Source: src.Name, Gross: withdraw}
	switch src.TaxTreatment {
	case OrdinaryIncome:
		alloc.OrdinaryPortion = withdraw
		alloc.MAGIImpact = withdraw
	case TaxFree:
		alloc.TaxFreePortion = withdraw
	case CapitalGains:
		// gain portion = (Balance - Basis)/Balance * withdraw
		gain := 0.0
		if src.Balance > 0 {
			unrealized := max(0, src.Balance-src.Basis)
			gain = withdraw * unrealized / src.Balance
		}
		alloc.CapitalGainsPortion = gain
		alloc.TaxFreePortion = withdraw - gain
		alloc.MAGIImpact = gain
	}
	return alloc
}
