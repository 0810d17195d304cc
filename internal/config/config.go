// Package config loads run manifests.
//
// A manifest is YAML decoded strictly (unknown fields are errors) on top of
// Default, then validated against an embedded CUE schema. Command-line flags
// are applied by the caller after loading and the result re-validated.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/demo"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
	"github.com/organization-ai-projects/simcore/internal/session"
)

//go:embed schema.cue
var schemaSource string

// Manifest describes one run.
type Manifest struct {
	Label       string      `yaml:"label" json:"label,omitempty"`
	Seed        uint64      `yaml:"seed" json:"seed"`
	Ticks       uint64      `yaml:"ticks" json:"ticks"`
	Workers     int         `yaml:"workers" json:"workers"`
	FaultPolicy string      `yaml:"fault_policy" json:"fault_policy"`
	Ledger      string      `yaml:"ledger" json:"ledger"`
	Colony      demo.Params `yaml:"colony" json:"colony"`
	Inputs      []Input     `yaml:"inputs" json:"inputs,omitempty"`
}

// Input is an external event submitted before its tick runs.
type Input struct {
	Tick    uint64 `yaml:"tick" json:"tick"`
	System  string `yaml:"system" json:"system"`
	Kind    string `yaml:"kind" json:"kind"`
	Payload string `yaml:"payload" json:"payload,omitempty"`
}

// Default returns the manifest used when no file is given.
func Default() *Manifest {
	return &Manifest{
		Seed:        0,
		Ticks:       10,
		Workers:     1,
		FaultPolicy: scheduler.FaultHalt.String(),
		Ledger:      "simcore.db",
		Colony:      demo.DefaultParams(),
	}
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes data over Default and validates the result.
func Parse(data []byte) (*Manifest, error) {
	m := Default()
	if err := Decode(data, m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Decode strictly decodes YAML into v. Fields absent from data keep their
// current values.
func Decode(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	return nil
}

// ValidationError reports a manifest that does not satisfy the schema.
type ValidationError struct {
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid manifest: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks m against the schema and the checks the schema cannot
// express.
func (m *Manifest) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile manifest schema: %w", err)
	}

	value := schema.LookupPath(cue.ParsePath("#Manifest")).Unify(ctx.Encode(m))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Err: err}
	}

	for i, in := range m.Inputs {
		if in.Tick > m.Ticks {
			return &ValidationError{Err: fmt.Errorf("inputs.%d: tick %d is beyond the last tick %d", i, in.Tick, m.Ticks)}
		}
	}
	if err := m.Colony.Validate(); err != nil {
		return &ValidationError{Err: fmt.Errorf("colony: %w", err)}
	}
	return nil
}

// Session converts m into a run configuration.
func (m *Manifest) Session() (session.Config, error) {
	policy, err := scheduler.ParseFaultPolicy(m.FaultPolicy)
	if err != nil {
		return session.Config{}, err
	}

	inputs := make([]session.Input, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		inputs = append(inputs, session.Input{
			Tick:    core.Tick(in.Tick),
			System:  core.SystemID(in.System),
			Kind:    core.EventKind(in.Kind),
			Payload: []byte(in.Payload),
		})
	}

	return session.Config{
		Seed:    core.Seed(m.Seed),
		Ticks:   m.Ticks,
		Workers: m.Workers,
		Label:   m.Label,
		Domain: session.Domain{
			Colony:      m.Colony,
			FaultPolicy: policy,
		},
		Inputs: inputs,
	}, nil
}
