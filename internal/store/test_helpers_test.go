package store

import (
	"path/filepath"
	"testing"

	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

// createTestStore opens a fresh ledger in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestHeader returns a header with minimal required fields.
func createTestHeader(runID string, seed core.Seed) eventlog.Header {
	return eventlog.Header{
		RunID:         runID,
		Seed:          seed,
		PlanHash:      "plan-hash",
		EngineVersion: core.EngineVersion,
	}
}

func testHash(b byte) core.StateHash {
	var h core.StateHash
	for i := range h {
		h[i] = b
	}
	return h
}
