package domain

import (
	"github.com/shopspring/decimal"
)

// SampleParameters returns the reference household: a 45-year-old planning to retire at 67
// with a life expectancy of 90. It backs the `example` command and the regression tests.
func SampleParameters() *SimulationParameters {
	return &SimulationParameters{
		Name: "Reference household",
		Household: Household{
			User: Person{
				Name:       "Alex",
				CurrentAge: 45,
				Sex:        "female",
				SocialSecurity: SocialSecurity{
					AnnualBenefitAtFRA: decimal.NewFromInt(28000),
					ClaimAge:           67,
					FullRetirementAge:  67,
				},
			},
		},
		RetirementAge:           67,
		LifeExpectancy:          90,
		CurrentRetirementAssets: decimal.NewFromInt(350000),
		Buckets: AssetBuckets{
			Cash:         decimal.NewFromInt(20000),
			Taxable:      decimal.NewFromInt(80000),
			TaxableBasis: decimal.NewFromInt(60000),
			TaxDeferred:  decimal.NewFromInt(200000),
			TaxFree:      decimal.NewFromInt(50000),
		},
		AnnualSavings:                   decimal.NewFromInt(25000),
		SavingsGrowthRate:               decimal.NewFromFloat(0.02),
		AnnualRetirementExpenses:        decimal.NewFromInt(80000),
		AnnualHealthcareExpenses:        decimal.NewFromInt(8000),
		InflationRate:                   decimal.NewFromFloat(0.025),
		HealthcareInflationDifferential: decimal.NewFromFloat(0.02),
		Allocation: Allocation{
			Stocks: decimal.NewFromFloat(0.60),
			Bonds:  decimal.NewFromFloat(0.35),
			Cash:   decimal.NewFromFloat(0.05),
		},
		CapitalMarkets: CapitalMarkets{
			Stocks: AssetAssumption{ExpectedReturn: decimal.NewFromFloat(0.07), Volatility: decimal.NewFromFloat(0.16), MeanReversion: decimal.NewFromFloat(0.10)},
			Bonds:  AssetAssumption{ExpectedReturn: decimal.NewFromFloat(0.04), Volatility: decimal.NewFromFloat(0.06), MeanReversion: decimal.NewFromFloat(0.30)},
			Cash:   AssetAssumption{ExpectedReturn: decimal.NewFromFloat(0.025), Volatility: decimal.NewFromFloat(0.01), MeanReversion: decimal.NewFromFloat(0.70)},
		},
		WithdrawalRate: decimal.NewFromFloat(0.04),
		Guardrails:     DefaultGuardrailConfig(),
		Tax: TaxProfile{
			FilingStatus: FilingSingle,
			State:        "PA",
		},
	}
}
