package harness

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Predictory42/predictory/internal/ledger"
)

// Scenario defines a conformance test scenario: contract parameters, a
// timed sequence of ledger operations, and the error codes any step is
// expected to be rejected with.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// State holds the contract parameters the ledger is initialized with.
	State StateParams `yaml:"state"`

	// Steps is the timed operation sequence.
	Steps []Step `yaml:"steps"`
}

// StateParams mirrors the singleton contract state for scenario setup.
type StateParams struct {
	Authority           string `yaml:"authority"`
	Multiplier          int64  `yaml:"multiplier"`
	EventPrice          int64  `yaml:"event_price"`
	PlatformFee         int64  `yaml:"platform_fee"`
	OrgReward           int64  `yaml:"org_reward"`
	CompletionDeadline  int64  `yaml:"completion_deadline"`
	AppellationDeadline int64  `yaml:"appellation_deadline"`
}

// Step is one ledger operation at a fixed clock time.
type Step struct {
	// At pins the manual clock before the operation runs, unix seconds.
	At int64 `yaml:"at"`

	// Op names the operation: user.create, user.deposit, user.withdraw,
	// event.create, event.option, event.cancel, event.complete, vote,
	// claim, recharge, appeal, burn.
	Op string `yaml:"op"`

	// Actor is the acting user identity.
	Actor string `yaml:"actor"`

	// Event is the target event id, for event-scoped operations.
	Event string `yaml:"event,omitempty"`

	// Args carries operation-specific arguments.
	Args map[string]any `yaml:"args,omitempty"`

	// Expect is the ledger error code this step must be rejected with.
	// Empty means the step must succeed.
	Expect string `yaml:"expect,omitempty"`
}

// EventID parses the step's event id.
func (s *Step) EventID() (uuid.UUID, error) {
	if s.Event == "" {
		return uuid.Nil, fmt.Errorf("op %s requires an event id", s.Op)
	}
	id, err := uuid.Parse(s.Event)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse event id %q: %w", s.Event, err)
	}
	return id, nil
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expct:" vs "expect:".
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.State.Authority == "" {
		return fmt.Errorf("state.authority is required")
	}
	if s.State.Multiplier <= 0 {
		return fmt.Errorf("state.multiplier must be positive")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	at := int64(0)
	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if !knownOps[step.Op] {
			return fmt.Errorf("steps[%d]: unknown op %q", i, step.Op)
		}
		if step.Actor == "" {
			return fmt.Errorf("steps[%d]: actor is required", i)
		}
		if step.At < at {
			return fmt.Errorf("steps[%d]: time moves backwards (%d < %d)", i, step.At, at)
		}
		at = step.At
	}
	return nil
}

var knownOps = map[string]bool{
	"user.create":    true,
	"user.deposit":   true,
	"user.withdraw":  true,
	"event.create":   true,
	"event.option":   true,
	"event.cancel":   true,
	"event.complete": true,
	"vote":           true,
	"claim":          true,
	"recharge":       true,
	"appeal":         true,
	"burn":           true,
}

// ledgerState converts the scenario parameters into the state record.
func (p StateParams) ledgerState() *ledger.State {
	return &ledger.State{
		Authority:           p.Authority,
		Multiplier:          p.Multiplier,
		EventPrice:          p.EventPrice,
		PlatformFee:         p.PlatformFee,
		OrgReward:           p.OrgReward,
		CompletionDeadline:  p.CompletionDeadline,
		AppellationDeadline: p.AppellationDeadline,
	}
}
