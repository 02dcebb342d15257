package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sqlgraph/internal/traversal"
)

// Scenario is one compilation scenario.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Topology is CUE source declaring the entities.
	Topology string `yaml:"topology"`

	// Data lists rows per physical table. Tables are seeded in topology
	// order.
	Data map[string][]map[string]any `yaml:"data,omitempty"`

	// Batch seeds the data in buffered-write mode, leaving the flush to the
	// compile pass.
	Batch bool `yaml:"batch,omitempty"`

	Steps  []traversal.StepSpec `yaml:"steps"`
	Expect Expect               `yaml:"expect"`

	// TraceID is the fixed trace id used for the compile pass. Empty means
	// "test-trace-default".
	TraceID string `yaml:"trace_id,omitempty"`
}

// Outcomes of a compile pass.
const (
	OutcomeCompiled  = "compiled"
	OutcomeSkipped   = "skipped"
	OutcomeUntouched = "untouched"
	OutcomeError     = "error"
)

// Expect lists what a scenario must observe. Unset fields are not checked.
type Expect struct {
	Outcome string `yaml:"outcome"`

	// Error is the compile error code required when Outcome is "error".
	Error string `yaml:"error,omitempty"`

	// Reason is a substring of the skip reason.
	Reason string `yaml:"reason,omitempty"`

	// Nodes are matched against plan nodes in id order.
	Nodes []NodeExpect `yaml:"nodes,omitempty"`

	// Rows is the number of rows the traversal produces.
	Rows *int `yaml:"rows,omitempty"`

	// IDs are the ids of the produced rows' current elements, in order.
	IDs []any `yaml:"ids,omitempty"`

	// Events must all appear, in this order, among the emitted diagnostics.
	Events []string `yaml:"events,omitempty"`
}

// NodeExpect describes one plan node.
type NodeExpect struct {
	Entity           string `yaml:"entity,omitempty"`
	Address          string `yaml:"address,omitempty"`
	FanOut           string `yaml:"fan_out,omitempty"`
	EagerLoad        *bool  `yaml:"eager_load,omitempty"`
	PushOrderToStore *bool  `yaml:"push_order_to_store,omitempty"`
	PushRangeToStore *bool  `yaml:"push_range_to_store,omitempty"`
	OrderInMemory    *bool  `yaml:"order_in_memory,omitempty"`
	RangeInMemory    *bool  `yaml:"range_in_memory,omitempty"`
}

// LoadScenario reads and validates a scenario file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Topology == "" {
		return fmt.Errorf("topology is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	switch s.Expect.Outcome {
	case OutcomeCompiled, OutcomeSkipped, OutcomeUntouched:
		if s.Expect.Error != "" {
			return fmt.Errorf("expect.error is only valid with outcome %q", OutcomeError)
		}
	case OutcomeError:
		if s.Expect.Error == "" {
			return fmt.Errorf("expect.error is required with outcome %q", OutcomeError)
		}
	case "":
		return fmt.Errorf("expect.outcome is required")
	default:
		return fmt.Errorf("expect.outcome: unknown outcome %q", s.Expect.Outcome)
	}

	if s.Expect.Rows != nil && *s.Expect.Rows < 0 {
		return fmt.Errorf("expect.rows must be non-negative")
	}
	if s.Expect.Rows != nil && len(s.Expect.IDs) > 0 && *s.Expect.Rows != len(s.Expect.IDs) {
		return fmt.Errorf("expect.rows (%d) disagrees with expect.ids (%d)", *s.Expect.Rows, len(s.Expect.IDs))
	}
	return nil
}
