package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/organization-ai-projects/simcore/internal/canon"
)

// TraceSnapshot captures the deterministic parts of a scenario result.
type TraceSnapshot struct {
	ScenarioName string
	PlanHash     string
	Records      []TraceRecord
	Ticks        uint64
	State        string
	Faults       int
	Verified     bool
	DesyncTick   uint64 // zero when the scenario has no tamper
}

// TraceRecord is one committed input.
type TraceRecord struct {
	Seq     uint64
	Tick    uint64
	System  string
	Kind    string
	Payload string
}

// Snapshot extracts the trace of a result.
func Snapshot(name string, res *Result) TraceSnapshot {
	rec := res.Record
	s := TraceSnapshot{
		ScenarioName: name,
		PlanHash:     rec.Header.PlanHash,
		Records:      make([]TraceRecord, 0, len(rec.Recording.Records)),
		Ticks:        uint64(rec.Ticks),
		State:        rec.State.String(),
		Faults:       rec.Faults,
		Verified:     res.Replay.Verified(),
	}
	for _, r := range rec.Recording.Records {
		s.Records = append(s.Records, TraceRecord{
			Seq:     r.Seq,
			Tick:    uint64(r.Tick),
			System:  string(r.System),
			Kind:    string(r.Kind),
			Payload: string(r.Payload),
		})
	}
	if res.Tampered != nil {
		s.DesyncTick = desyncTick(res.Tampered.Err)
	}
	return s
}

// Canonical returns the snapshot as canonical JSON.
func (s TraceSnapshot) Canonical() ([]byte, error) {
	records := make(canon.Array, len(s.Records))
	for i, r := range s.Records {
		records[i] = canon.Obj(
			canon.P("seq", canon.Uint(r.Seq)),
			canon.P("tick", canon.Uint(r.Tick)),
			canon.P("system", canon.String(r.System)),
			canon.P("kind", canon.String(r.Kind)),
			canon.P("payload", canon.String(r.Payload)),
		)
	}

	obj := canon.Obj(
		canon.P("scenario", canon.String(s.ScenarioName)),
		canon.P("plan", canon.String(s.PlanHash)),
		canon.P("records", records),
		canon.P("ticks", canon.Uint(s.Ticks)),
		canon.P("state", canon.String(s.State)),
		canon.P("faults", canon.Int(s.Faults)),
		canon.P("verified", canon.Bool(s.Verified)),
	)
	if s.DesyncTick != 0 {
		obj["desync_tick"] = canon.Uint(s.DesyncTick)
	}
	return canon.Marshal(obj)
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. It returns the result so callers
// can also check Pass.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(t.Context(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result).Canonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
