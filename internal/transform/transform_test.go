package transform

import (
	"errors"
	"strings"
	"testing"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

func TestApplyTransforms_NilParameters(t *testing.T) {
	_, err := ApplyTransforms(nil, []ScenarioTransform{&DelayRetirement{Years: 1}})
	if err == nil {
		t.Error("Expected error for nil parameters, got nil")
	}
}

func TestApplyTransforms_EmptyTransforms(t *testing.T) {
	base := domain.SampleParameters()

	result, err := ApplyTransforms(base, nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result == base {
		t.Error("Expected a copy, got the same pointer")
	}
	if result.RetirementAge != base.RetirementAge {
		t.Errorf("Expected retirement age %d, got %d", base.RetirementAge, result.RetirementAge)
	}
}

func TestApplyTransforms_ChainDoesNotMutateBase(t *testing.T) {
	base := domain.SampleParameters()

	result, err := ApplyTransforms(base, []ScenarioTransform{
		&DelayRetirement{Years: 2},
		&DelaySSClaim{Person: domain.PersonUser, NewAge: 70},
		&ReduceExpenses{Percent: decimal.NewFromFloat(0.10)},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if result.RetirementAge != 69 {
		t.Errorf("Expected retirement age 69, got %d", result.RetirementAge)
	}
	if result.Household.User.SocialSecurity.ClaimAge != 70 {
		t.Errorf("Expected claim age 70, got %d", result.Household.User.SocialSecurity.ClaimAge)
	}
	if !result.AnnualRetirementExpenses.Equal(decimal.NewFromInt(72000)) {
		t.Errorf("Expected expenses 72000, got %s", result.AnnualRetirementExpenses)
	}

	if base.RetirementAge != 67 || base.Household.User.SocialSecurity.ClaimAge != 67 {
		t.Error("Base parameters were modified")
	}
	if !base.AnnualRetirementExpenses.Equal(decimal.NewFromInt(80000)) {
		t.Error("Base expenses were modified")
	}
}

func TestApplyTransforms_ValidationErrorIsWrapped(t *testing.T) {
	base := domain.SampleParameters()

	_, err := ApplyTransforms(base, []ScenarioTransform{&DelayRetirement{Years: 30}})
	if err == nil {
		t.Fatal("Expected validation error")
	}
	if !strings.Contains(err.Error(), "transform delay_retirement validation failed") {
		t.Errorf("Unexpected error text: %v", err)
	}

	var te *TransformError
	if !errors.As(err, &te) {
		t.Fatalf("Expected *TransformError in chain, got %T", err)
	}
	if te.Operation != "validate" {
		t.Errorf("Expected operation validate, got %s", te.Operation)
	}
}

func TestApplyTransforms_NilTransform(t *testing.T) {
	_, err := ApplyTransforms(domain.SampleParameters(), []ScenarioTransform{nil})
	if err == nil {
		t.Error("Expected error for nil transform")
	}
}

func TestSetRetirementAge(t *testing.T) {
	base := domain.SampleParameters()

	if err := (&SetRetirementAge{Age: 40}).Validate(base); err == nil {
		t.Error("Expected error for age before current age")
	}
	if err := (&SetRetirementAge{Age: 90}).Validate(base); err == nil {
		t.Error("Expected error for age at life expectancy")
	}

	result, err := ApplyTransforms(base, []ScenarioTransform{&SetRetirementAge{Age: 62}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.RetirementAge != 62 {
		t.Errorf("Expected 62, got %d", result.RetirementAge)
	}
}

func TestDelaySSClaim_Spouse(t *testing.T) {
	base := domain.SampleParameters()

	if err := (&DelaySSClaim{Person: domain.PersonSpouse, NewAge: 70}).Validate(base); err == nil {
		t.Error("Expected error for missing spouse")
	}
	if err := (&DelaySSClaim{Person: domain.PersonUser, NewAge: 71}).Validate(base); err == nil {
		t.Error("Expected error for claim age above 70")
	}
	if err := (&DelaySSClaim{Person: "cousin", NewAge: 67}).Validate(base); err == nil {
		t.Error("Expected error for unknown person")
	}

	base.Household.Spouse = &domain.Person{Name: "Sam", CurrentAge: 47, SocialSecurity: domain.SocialSecurity{ClaimAge: 62}}
	result, err := ApplyTransforms(base, []ScenarioTransform{&DelaySSClaim{Person: domain.PersonSpouse, NewAge: 68}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Household.Spouse.SocialSecurity.ClaimAge != 68 {
		t.Errorf("Expected spouse claim age 68, got %d", result.Household.Spouse.SocialSecurity.ClaimAge)
	}
	if base.Household.Spouse.SocialSecurity.ClaimAge != 62 {
		t.Error("Base spouse was modified")
	}
}

func TestRaiseSavings(t *testing.T) {
	base := domain.SampleParameters()

	result, err := ApplyTransforms(base, []ScenarioTransform{&RaiseSavings{Percent: decimal.NewFromFloat(0.25)}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.AnnualSavings.Equal(decimal.NewFromInt(31250)) {
		t.Errorf("Expected savings 31250, got %s", result.AnnualSavings)
	}

	base.RetirementAge = base.Household.User.CurrentAge
	if err := (&RaiseSavings{Percent: decimal.NewFromFloat(0.25)}).Validate(base); err == nil {
		t.Error("Expected error for a retired household")
	}
}

func TestReduceExpenses_Bounds(t *testing.T) {
	base := domain.SampleParameters()
	for _, pct := range []float64{0, 1, -0.1} {
		if err := (&ReduceExpenses{Percent: decimal.NewFromFloat(pct)}).Validate(base); err == nil {
			t.Errorf("Expected error for percent %v", pct)
		}
	}
}

func TestShiftAllocation(t *testing.T) {
	base := domain.SampleParameters()

	result, err := ApplyTransforms(base, []ScenarioTransform{&ShiftAllocation{Stocks: decimal.NewFromFloat(-0.10)}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Allocation.Stocks.Equal(decimal.NewFromFloat(0.50)) {
		t.Errorf("Expected stocks 0.50, got %s", result.Allocation.Stocks)
	}
	if !result.Allocation.Bonds.Equal(decimal.NewFromFloat(0.45)) {
		t.Errorf("Expected bonds 0.45, got %s", result.Allocation.Bonds)
	}
	if err := result.Validate(); err != nil {
		t.Errorf("Shifted parameters should stay valid: %v", err)
	}

	if err := (&ShiftAllocation{Stocks: decimal.NewFromFloat(0.50)}).Validate(base); err == nil {
		t.Error("Expected error when bonds would go negative")
	}
	if err := (&ShiftAllocation{}).Validate(base); err == nil {
		t.Error("Expected error for a zero shift")
	}
}

func TestAddLTCInsurance(t *testing.T) {
	base := domain.SampleParameters()
	transform := &AddLTCInsurance{Policy: domain.DefaultLTCInsurance()}

	result, err := ApplyTransforms(base, []ScenarioTransform{transform})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.LTCInsurance == nil {
		t.Fatal("Expected a policy")
	}
	if result.LTCInsurance.PurchaseAge != base.Household.User.CurrentAge {
		t.Errorf("Expected purchase age %d, got %d", base.Household.User.CurrentAge, result.LTCInsurance.PurchaseAge)
	}
	if base.LTCInsurance != nil {
		t.Error("Base parameters were modified")
	}

	if err := transform.Validate(result); err == nil {
		t.Error("Expected error when a policy already exists")
	}
}

func TestModifyInflation(t *testing.T) {
	base := domain.SampleParameters()

	result, err := ApplyTransforms(base, []ScenarioTransform{&ModifyInflation{NewRate: decimal.NewFromFloat(0.04)}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.InflationRate.Equal(decimal.NewFromFloat(0.04)) {
		t.Errorf("Expected 0.04, got %s", result.InflationRate)
	}

	if err := (&ModifyInflation{NewRate: decimal.NewFromFloat(0.15)}).Validate(base); err == nil {
		t.Error("Expected error for 15% inflation")
	}
}

func TestSetSurvivorSpendingFactor_RequiresCouple(t *testing.T) {
	base := domain.SampleParameters()
	transform := &SetSurvivorSpendingFactor{Factor: decimal.NewFromFloat(0.7)}

	if err := transform.Validate(base); err == nil {
		t.Error("Expected error for single household")
	}

	base.Household.Spouse = &domain.Person{Name: "Sam", CurrentAge: 47}
	result, err := ApplyTransforms(base, []ScenarioTransform{transform})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.SurvivorSpendingFactor.Equal(decimal.NewFromFloat(0.7)) {
		t.Errorf("Expected 0.7, got %s", result.SurvivorSpendingFactor)
	}
}

func TestSetLifeExpectancy(t *testing.T) {
	base := domain.SampleParameters()

	if err := (&SetLifeExpectancy{Age: 45}).Validate(base); err == nil {
		t.Error("Expected error for life expectancy at current age")
	}

	result, err := ApplyTransforms(base, []ScenarioTransform{&SetLifeExpectancy{Age: 95}})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.LifeExpectancy != 95 {
		t.Errorf("Expected 95, got %d", result.LifeExpectancy)
	}
}

func TestTransformDescriptions(t *testing.T) {
	tests := []struct {
		transform ScenarioTransform
		want      string
	}{
		{&DelayRetirement{Years: 2}, "Delay retirement by 2 years"},
		{&RaiseSavings{Percent: decimal.NewFromFloat(0.25)}, "Raise annual savings by 25%"},
		{&ReduceExpenses{Percent: decimal.NewFromFloat(0.10)}, "Reduce retirement expenses by 10%"},
		{&ShiftAllocation{Stocks: decimal.NewFromFloat(-0.10)}, "Shift 10% from stocks to bonds"},
		{&ShiftAllocation{Stocks: decimal.NewFromFloat(0.05)}, "Shift 5% from bonds to stocks"},
		{&ModifyInflation{NewRate: decimal.NewFromFloat(0.025)}, "Change inflation rate to 2.5%"},
	}

	for _, tt := range tests {
		if got := tt.transform.Description(); got != tt.want {
			t.Errorf("%s: expected %q, got %q", tt.transform.Name(), tt.want, got)
		}
	}
}
