package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one refinement run plus the assertions over its outcome.
type Scenario struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Records     []any     `yaml:"records"`
	Sort        []SortKey `yaml:"sort,omitempty"`

	// Filter is AND'ed with the union of Templates when both are set.
	Filter    *RuleStep  `yaml:"filter,omitempty"`
	Templates []RuleStep `yaml:"templates,omitempty"`

	Offset *int `yaml:"offset,omitempty"`
	Limit  *int `yaml:"limit,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// SortKey is a path or operator call with an optional direction.
type SortKey struct {
	Key       string `yaml:"key"`
	Direction string `yaml:"direction,omitempty"` // asc when empty
}

// RuleStep is a filter rule with its named parameters.
type RuleStep struct {
	Rule   string         `yaml:"rule"`
	Params map[string]any `yaml:"params,omitempty"`
}

// Assertion validates the refined records, the total or the error.
type Assertion struct {
	Type string `yaml:"type"`

	// Path and Values are used by result_order.
	Path   string `yaml:"path,omitempty"`
	Values []any  `yaml:"values,omitempty"`

	// Count is used by result_count and total.
	Count int `yaml:"count,omitempty"`

	// Where is used by result_contains. Keys are record paths.
	Where map[string]any `yaml:"where,omitempty"`

	// Message is used by error.
	Message string `yaml:"message,omitempty"`
}

// Assertion type constants.
const (
	AssertResultOrder    = "result_order"
	AssertResultCount    = "result_count"
	AssertResultContains = "result_contains"
	AssertTotal          = "total"
	AssertError          = "error"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos surface as errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Records == nil {
		return fmt.Errorf("records is required (use [] for no records)")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, key := range s.Sort {
		if key.Key == "" {
			return fmt.Errorf("sort[%d]: key is required", i)
		}
	}
	if s.Filter != nil && s.Filter.Rule == "" {
		return fmt.Errorf("filter: rule is required")
	}
	for i, step := range s.Templates {
		if step.Rule == "" {
			return fmt.Errorf("templates[%d]: rule is required", i)
		}
	}
	if s.Offset != nil && *s.Offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}
	if s.Limit != nil && *s.Limit < 0 {
		return fmt.Errorf("limit must be non-negative")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertResultOrder:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for result_order", index)
		}
	case AssertResultCount, AssertTotal:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertResultContains:
		if len(a.Where) == 0 {
			return fmt.Errorf("assertions[%d]: where is required for result_contains", index)
		}
	case AssertError:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
