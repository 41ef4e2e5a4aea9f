package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/shopspring/decimal"
)

// TemplateRegistry manages built-in scenario templates
type TemplateRegistry struct {
	templates map[string]Template
}

// Template represents a named collection of transforms
type Template struct {
	Name        string
	Category    string
	Description string
	Transforms  []ScenarioTransform
}

// NewTemplateRegistry creates an empty template registry
func NewTemplateRegistry() *TemplateRegistry {
	return &TemplateRegistry{
		templates: make(map[string]Template),
	}
}

// Register adds a template to the registry
func (tr *TemplateRegistry) Register(t Template) {
	tr.templates[strings.ToLower(t.Name)] = t
}

// Get retrieves a template by name (case-insensitive)
func (tr *TemplateRegistry) Get(name string) (Template, bool) {
	t, ok := tr.templates[strings.ToLower(name)]
	return t, ok
}

// List returns all registered template names, sorted
func (tr *TemplateRegistry) List() []string {
	names := make([]string, 0, len(tr.templates))
	for name := range tr.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	categoryTiming      = "Retirement Timing"
	categorySS          = "Social Security"
	categorySpending    = "Spending & Savings"
	categoryRisk        = "Risk & Insurance"
	categoryCombination = "Combination Strategies"
)

var templateCategories = []string{categoryTiming, categorySS, categorySpending, categoryRisk, categoryCombination}

// CreateBuiltInTemplates creates a template registry with common retirement what-ifs
func CreateBuiltInTemplates() *TemplateRegistry {
	registry := NewTemplateRegistry()

	registry.Register(Template{
		Name:        "work_one_more_year",
		Category:    categoryTiming,
		Description: "Delay retirement by 1 year",
		Transforms:  []ScenarioTransform{&DelayRetirement{Years: 1}},
	})

	registry.Register(Template{
		Name:        "work_two_more_years",
		Category:    categoryTiming,
		Description: "Delay retirement by 2 years",
		Transforms:  []ScenarioTransform{&DelayRetirement{Years: 2}},
	})

	registry.Register(Template{
		Name:        "delay_ss_67",
		Category:    categorySS,
		Description: "Claim Social Security at 67 (Full Retirement Age)",
		Transforms:  []ScenarioTransform{&DelaySSClaim{Person: domain.PersonUser, NewAge: 67}},
	})

	registry.Register(Template{
		Name:        "delay_ss_70",
		Category:    categorySS,
		Description: "Claim Social Security at 70 (maximum benefit)",
		Transforms:  []ScenarioTransform{&DelaySSClaim{Person: domain.PersonUser, NewAge: 70}},
	})

	registry.Register(Template{
		Name:        "lean_retirement",
		Category:    categorySpending,
		Description: "Cut retirement expenses by 10%",
		Transforms:  []ScenarioTransform{&ReduceExpenses{Percent: decimal.NewFromFloat(0.10)}},
	})

	registry.Register(Template{
		Name:        "save_more",
		Category:    categorySpending,
		Description: "Raise annual savings by 25%",
		Transforms:  []ScenarioTransform{&RaiseSavings{Percent: decimal.NewFromFloat(0.25)}},
	})

	registry.Register(Template{
		Name:        "insure_care",
		Category:    categoryRisk,
		Description: "Buy a typical long-term-care policy",
		Transforms:  []ScenarioTransform{&AddLTCInsurance{Policy: domain.DefaultLTCInsurance()}},
	})

	registry.Register(Template{
		Name:        "conservative_allocation",
		Category:    categoryRisk,
		Description: "Shift 10% from stocks to bonds",
		Transforms:  []ScenarioTransform{&ShiftAllocation{Stocks: decimal.NewFromFloat(-0.10)}},
	})

	registry.Register(Template{
		Name:        "high_inflation",
		Category:    categoryRisk,
		Description: "Stress test with 4% inflation",
		Transforms:  []ScenarioTransform{&ModifyInflation{NewRate: decimal.NewFromFloat(0.04)}},
	})

	registry.Register(Template{
		Name:        "work_longer_delay_ss_70",
		Category:    categoryCombination,
		Description: "Delay retirement 2 years + claim SS at 70",
		Transforms: []ScenarioTransform{
			&DelayRetirement{Years: 2},
			&DelaySSClaim{Person: domain.PersonUser, NewAge: 70},
		},
	})

	registry.Register(Template{
		Name:        "belt_and_braces",
		Category:    categoryCombination,
		Description: "Save 25% more, spend 10% less, claim SS at 70",
		Transforms: []ScenarioTransform{
			&RaiseSavings{Percent: decimal.NewFromFloat(0.25)},
			&ReduceExpenses{Percent: decimal.NewFromFloat(0.10)},
			&DelaySSClaim{Person: domain.PersonUser, NewAge: 70},
		},
	})

	return registry
}

// ApplyTemplate applies a template to base parameters
func ApplyTemplate(base *domain.SimulationParameters, template Template) (*domain.SimulationParameters, error) {
	if len(template.Transforms) == 0 {
		return base.DeepCopy(), nil
	}
	return ApplyTransforms(base, template.Transforms)
}

// ParseTemplateList parses a comma-separated list of template names
func ParseTemplateList(templateList string) []string {
	if templateList == "" {
		return nil
	}

	parts := strings.Split(templateList, ",")
	templates := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			templates = append(templates, trimmed)
		}
	}
	return templates
}

// GetTemplateHelp returns formatted help text for all templates
func GetTemplateHelp(registry *TemplateRegistry) string {
	if len(registry.templates) == 0 {
		return "No templates registered"
	}

	var sb strings.Builder
	sb.WriteString("Available Templates:\n\n")

	categories := make(map[string][]Template)
	for _, name := range registry.List() {
		t := registry.templates[name]
		category := t.Category
		if category == "" {
			category = categoryCombination
		}
		categories[category] = append(categories[category], t)
	}

	for _, category := range templateCategories {
		templates := categories[category]
		if len(templates) == 0 {
			continue
		}

		sb.WriteString(fmt.Sprintf("%s:\n", category))
		for _, t := range templates {
			sb.WriteString(fmt.Sprintf("  %-30s %s\n", t.Name, t.Description))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Usage:\n")
	sb.WriteString("  viability simulate plan.yaml --template work_one_more_year\n")
	sb.WriteString("  viability simulate plan.yaml --what-if delay_ss:age=70 --what-if reduce_expenses:percent=0.15\n")

	return sb.String()
}
