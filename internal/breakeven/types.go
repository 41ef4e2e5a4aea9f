package breakeven

import (
	"fmt"
)

// Constraints bound the retirement-age search and set the success target
type Constraints struct {
	// TargetProbability is the success probability to reach, e.g. 0.85
	TargetProbability float64 `json:"target_probability"`

	// Retirement age bounds; a zero MinRetirementAge means the current age
	MinRetirementAge int `json:"min_retirement_age,omitempty"`
	MaxRetirementAge int `json:"max_retirement_age,omitempty"`
}

// DefaultConstraints returns sensible default constraints
func DefaultConstraints() Constraints {
	return Constraints{
		TargetProbability: 0.85,
		MaxRetirementAge:  75,
	}
}

// Validate checks if constraints are internally consistent
func (c *Constraints) Validate() error {
	if c.TargetProbability <= 0 || c.TargetProbability > 1 {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   fmt.Sprintf("target probability must be in (0, 1], got %g", c.TargetProbability),
		}
	}

	if c.MaxRetirementAge <= 0 {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "max_retirement_age is required",
		}
	}

	if c.MinRetirementAge > c.MaxRetirementAge {
		return &BreakEvenError{
			Operation: "validate_constraints",
			Message:   "min_retirement_age cannot be greater than max_retirement_age",
		}
	}

	return nil
}

// BreakEvenError represents errors from break-even solver
type BreakEvenError struct {
	Operation string
	Message   string
	Cause     error
}

func (e *BreakEvenError) Error() string {
	if e.Cause != nil {
		return e.Operation + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Operation + ": " + e.Message
}

func (e *BreakEvenError) Unwrap() error {
	return e.Cause
}
