package compare

import (
	"context"
	"fmt"

	"github.com/rgehrsitz/viability/internal/calculation"
	"github.com/rgehrsitz/viability/internal/domain"
	"github.com/rgehrsitz/viability/internal/transform"
)

// CompareEngine runs a base household and template alternatives on identical market draws
type CompareEngine struct {
	Tables            *domain.Tables
	Options           calculation.Options
	Logger            calculation.Logger
	MetricsCalculator *MetricsCalculator
	TemplateRegistry  *transform.TemplateRegistry
}

// NewCompareEngine creates a comparison engine. Options.Seed should be fixed so every
// scenario sees the same draws.
func NewCompareEngine(tables *domain.Tables, opts calculation.Options) *CompareEngine {
	return &CompareEngine{
		Tables:            tables,
		Options:           opts,
		Logger:            calculation.NopLogger{},
		MetricsCalculator: NewMetricsCalculator(),
		TemplateRegistry:  transform.CreateBuiltInTemplates(),
	}
}

// CompareOptions configures comparison behavior
type CompareOptions struct {
	BaseScenarioName string   // label for the unmodified household
	Templates        []string // template names to apply
}

// Compare runs the base household and every template
func (ce *CompareEngine) Compare(
	ctx context.Context,
	base *domain.SimulationParameters,
	options CompareOptions,
) (*ComparisonSet, error) {
	if base == nil {
		return nil, fmt.Errorf("base parameters cannot be nil")
	}
	if len(options.Templates) == 0 {
		return nil, fmt.Errorf("at least one template is required")
	}
	name := options.BaseScenarioName
	if name == "" {
		name = "base"
	}

	baseAgg, err := ce.run(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to simulate base scenario: %w", err)
	}
	baseResult := ce.MetricsCalculator.CalculateMetrics(name, base, baseAgg)
	baseResult.Description = "Household as entered"

	alternatives := make([]ComparisonResult, 0, len(options.Templates))
	for _, templateName := range options.Templates {
		template, ok := ce.TemplateRegistry.Get(templateName)
		if !ok {
			return nil, fmt.Errorf("template %s not found", templateName)
		}

		modified, err := transform.ApplyTemplate(base, template)
		if err != nil {
			return nil, fmt.Errorf("failed to apply template %s: %w", templateName, err)
		}

		agg, err := ce.run(ctx, modified)
		if err != nil {
			return nil, fmt.Errorf("failed to simulate scenario %s: %w", templateName, err)
		}

		alt := ce.MetricsCalculator.CalculateMetrics(templateName, modified, agg)
		alt.Description = template.Description
		alternatives = append(alternatives, ce.MetricsCalculator.CalculateComparison(alt, baseResult))
	}

	compSet := &ComparisonSet{
		BaseScenarioName:   name,
		BaseResult:         &baseResult,
		AlternativeResults: alternatives,
		Seed:               baseAgg.Seed,
		Iterations:         baseAgg.Iterations,
	}
	compSet.Recommendations = GenerateRecommendations(compSet)

	return compSet, nil
}

func (ce *CompareEngine) run(ctx context.Context, params *domain.SimulationParameters) (*domain.AggregateResult, error) {
	opts := ce.Options
	opts.RetainTraces = 0

	engine, err := calculation.NewEngine(params, ce.Tables, opts)
	if err != nil {
		return nil, err
	}
	engine.SetLogger(ce.Logger)

	result, _, err := engine.Run(ctx)
	return result, err
}
