package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/organization-ai-projects/simcore/internal/config"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
)

// Scenario defines one record/replay check.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Run is the manifest the scenario records. Its fields sit at the top
	// level of the scenario file. The ledger path is ignored.
	Run config.Manifest `yaml:",inline"`

	// RunID is an optional fixed run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Tamper alters one recorded input before a second replay.
	Tamper *Tamper `yaml:"tamper,omitempty"`

	// Expect describes the recorded run's outcome.
	Expect Expect `yaml:"expect"`
}

// Tamper replaces the payload of the record with sequence number Seq.
type Tamper struct {
	Seq     uint64 `yaml:"seq"`
	Payload string `yaml:"payload"`
}

// Expect lists outcome checks. Zero values are checked too, except for the
// optional fields.
type Expect struct {
	// Ticks is the last committed tick.
	Ticks uint64 `yaml:"ticks"`

	// State is the final scheduler state: "stopped" or "faulted".
	State string `yaml:"state"`

	// Error is a substring of the error that ended the run. Empty means the
	// run must end without error.
	Error string `yaml:"error,omitempty"`

	// Faults counts domain errors absorbed under the skip-tick policy.
	Faults int `yaml:"faults"`

	// Population is the exact final population, when set.
	Population *int `yaml:"population,omitempty"`

	// TurnedAwayAtLeast is a lower bound on rejected arrivals.
	TurnedAwayAtLeast int `yaml:"turned_away_at_least,omitempty"`

	// DesyncTick is the tick at which the tampered replay must diverge.
	// Required when Tamper is set.
	DesyncTick uint64 `yaml:"desync_tick,omitempty"`
}

// LoadScenario reads and validates a scenario file. Manifest fields the
// file omits take their defaults.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario := &Scenario{Run: *config.Default()}
	if err := config.Decode(data, scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario %s: %w", path, err)
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return scenario, nil
}

// LoadScenarios loads every *.yaml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	slices.Sort(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := s.Run.Validate(); err != nil {
		return err
	}

	switch s.Expect.State {
	case scheduler.StateStopped.String(), scheduler.StateFaulted.String():
	default:
		return fmt.Errorf("expect.state must be %q or %q, got %q",
			scheduler.StateStopped, scheduler.StateFaulted, s.Expect.State)
	}
	if s.Expect.Ticks > s.Run.Ticks {
		return fmt.Errorf("expect.ticks %d exceeds ticks %d", s.Expect.Ticks, s.Run.Ticks)
	}

	if s.Tamper != nil {
		if s.Tamper.Seq == 0 {
			return fmt.Errorf("tamper.seq must be at least 1")
		}
		if s.Expect.DesyncTick == 0 {
			return fmt.Errorf("expect.desync_tick is required with tamper")
		}
	} else if s.Expect.DesyncTick != 0 {
		return fmt.Errorf("expect.desync_tick requires tamper")
	}
	return nil
}
