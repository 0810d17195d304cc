package store

import (
	"context"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/eventlog"
)

// LoadRecording reads a complete run back as an eventlog.Recording, ready for
// eventlog.NewReplayer.
func (s *Store) LoadRecording(ctx context.Context, runID string) (eventlog.Recording, error) {
	h, err := s.ReadRun(ctx, runID)
	if err != nil {
		return eventlog.Recording{}, err
	}

	records, err := s.ReadEvents(ctx, runID)
	if err != nil {
		return eventlog.Recording{}, fmt.Errorf("load recording %s: %w", runID, err)
	}

	hashes, err := s.ReadTickHashes(ctx, runID)
	if err != nil {
		return eventlog.Recording{}, fmt.Errorf("load recording %s: %w", runID, err)
	}

	return eventlog.Recording{
		Header:  h,
		Records: records,
		Hashes:  hashes,
	}, nil
}
