package transform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// TransformRegistry provides a central registry for all available transforms.
// It enables creation of transforms from string parameters, useful for CLI commands.
type TransformRegistry struct {
	factories map[string]TransformFactory
}

// TransformFactory is a function that creates a transform from parameters.
type TransformFactory func(params map[string]string) (ScenarioTransform, error)

// NewTransformRegistry creates a new registry with all built-in transforms registered.
func NewTransformRegistry() *TransformRegistry {
	registry := &TransformRegistry{
		factories: make(map[string]TransformFactory),
	}

	registry.Register("raise_savings", createRaiseSavings)
	registry.Register("reduce_expenses", createReduceExpenses)
	registry.Register("add_ltc_insurance", createAddLTCInsurance)
	registry.Register("delay_retirement", createDelayRetirement)
	registry.Register("set_retirement_age", createSetRetirementAge)
	registry.Register("shift_allocation", createShiftAllocation)
	registry.Register("delay_ss", createDelaySSClaim)
	registry.Register("modify_inflation", createModifyInflation)
	registry.Register("set_survivor_spending", createSetSurvivorSpendingFactor)
	registry.Register("set_life_expectancy", createSetLifeExpectancy)

	return registry
}

// Register adds a transform factory to the registry.
func (r *TransformRegistry) Register(name string, factory TransformFactory) {
	r.factories[name] = factory
}

// Create creates a transform by name with the given parameters.
func (r *TransformRegistry) Create(name string, params map[string]string) (ScenarioTransform, error) {
	factory, exists := r.factories[name]
	if !exists {
		return nil, fmt.Errorf("unknown transform: %s", name)
	}

	return factory(params)
}

// List returns the sorted names of all registered transforms.
func (r *TransformRegistry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseTransformSpec parses a transform specification string.
// Format: "transform_name:param1=value1,param2=value2"
// Example: "delay_ss:person=spouse,age=70"
func (r *TransformRegistry) ParseTransformSpec(spec string) (ScenarioTransform, error) {
	name, paramsStr, found := strings.Cut(spec, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("invalid transform spec format, expected 'name:params', got: %s", spec)
	}

	params := make(map[string]string)
	paramsStr = strings.TrimSpace(paramsStr)
	if found && paramsStr != "" {
		for _, paramPair := range strings.Split(paramsStr, ",") {
			kv := strings.SplitN(paramPair, "=", 2)
			if len(kv) != 2 {
				return nil, fmt.Errorf("invalid parameter format, expected 'key=value', got: %s", paramPair)
			}
			params[strings.TrimSpace(kv[0])] = strings.TrimSpace(kv[1])
		}
	}

	return r.Create(name, params)
}

// Factory functions for each transform

func intParam(transform string, params map[string]string, key string) (int, error) {
	s, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

// decimalParam returns def when the key is absent and def is non-nil
func decimalParam(transform string, params map[string]string, key string, def *decimal.Decimal) (decimal.Decimal, error) {
	s, ok := params[key]
	if !ok {
		if def != nil {
			return *def, nil
		}
		return decimal.Zero, fmt.Errorf("%s requires '%s' parameter", transform, key)
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s value: %w", key, err)
	}
	return v, nil
}

func createRaiseSavings(params map[string]string) (ScenarioTransform, error) {
	def := decimal.NewFromFloat(0.25)
	pct, err := decimalParam("raise_savings", params, "percent", &def)
	if err != nil {
		return nil, err
	}
	return &RaiseSavings{Percent: pct}, nil
}

func createReduceExpenses(params map[string]string) (ScenarioTransform, error) {
	def := decimal.NewFromFloat(0.10)
	pct, err := decimalParam("reduce_expenses", params, "percent", &def)
	if err != nil {
		return nil, err
	}
	return &ReduceExpenses{Percent: pct}, nil
}

func createAddLTCInsurance(params map[string]string) (ScenarioTransform, error) {
	policy := domain.DefaultLTCInsurance()

	if _, ok := params["daily_benefit"]; ok {
		v, err := decimalParam("add_ltc_insurance", params, "daily_benefit", nil)
		if err != nil {
			return nil, err
		}
		policy.DailyBenefit = v
	}
	if _, ok := params["premium"]; ok {
		v, err := decimalParam("add_ltc_insurance", params, "premium", nil)
		if err != nil {
			return nil, err
		}
		policy.AnnualPremium = v
	}
	if _, ok := params["years"]; ok {
		v, err := intParam("add_ltc_insurance", params, "years")
		if err != nil {
			return nil, err
		}
		policy.BenefitPeriodYears = v
	}

	return &AddLTCInsurance{Policy: policy}, nil
}

func createDelayRetirement(params map[string]string) (ScenarioTransform, error) {
	years, err := intParam("delay_retirement", params, "years")
	if err != nil {
		return nil, err
	}
	return &DelayRetirement{Years: years}, nil
}

func createSetRetirementAge(params map[string]string) (ScenarioTransform, error) {
	age, err := intParam("set_retirement_age", params, "age")
	if err != nil {
		return nil, err
	}
	return &SetRetirementAge{Age: age}, nil
}

func createShiftAllocation(params map[string]string) (ScenarioTransform, error) {
	stocks, err := decimalParam("shift_allocation", params, "stocks", nil)
	if err != nil {
		return nil, err
	}
	return &ShiftAllocation{Stocks: stocks}, nil
}

func createDelaySSClaim(params map[string]string) (ScenarioTransform, error) {
	age, err := intParam("delay_ss", params, "age")
	if err != nil {
		return nil, err
	}

	person := params["person"]
	if person == "" {
		person = domain.PersonUser
	}

	return &DelaySSClaim{
		Person: person,
		NewAge: age,
	}, nil
}

func createModifyInflation(params map[string]string) (ScenarioTransform, error) {
	rate, err := decimalParam("modify_inflation", params, "rate", nil)
	if err != nil {
		return nil, err
	}
	return &ModifyInflation{NewRate: rate}, nil
}

func createSetSurvivorSpendingFactor(params map[string]string) (ScenarioTransform, error) {
	factor, err := decimalParam("set_survivor_spending", params, "factor", nil)
	if err != nil {
		return nil, err
	}
	return &SetSurvivorSpendingFactor{Factor: factor}, nil
}

func createSetLifeExpectancy(params map[string]string) (ScenarioTransform, error) {
	age, err := intParam("set_life_expectancy", params, "age")
	if err != nil {
		return nil, err
	}
	return &SetLifeExpectancy{Age: age}, nil
}
