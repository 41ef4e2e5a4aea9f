package config

import (
	"fmt"
	"os"

	"github.com/rgehrsitz/viability/internal/domain"
	"gopkg.in/yaml.v3"
)

// InputParser handles parsing of household parameter files
type InputParser struct{}

// NewInputParser creates a new input parser
func NewInputParser() *InputParser {
	return &InputParser{}
}

// LoadFromFile loads simulation parameters from a YAML or JSON file
func (ip *InputParser) LoadFromFile(filename string) (*domain.SimulationParameters, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	return ip.Parse(data)
}

// Parse decodes and validates simulation parameters. YAML is a superset of JSON so both
// formats are accepted.
func (ip *InputParser) Parse(data []byte) (*domain.SimulationParameters, error) {
	var params domain.SimulationParameters
	if err := yaml.Unmarshal(data, &params); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("parameter validation failed: %w", err)
	}

	return &params, nil
}

// Marshal renders parameters back to YAML
func (ip *InputParser) Marshal(params *domain.SimulationParameters) ([]byte, error) {
	data, err := yaml.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return data, nil
}
