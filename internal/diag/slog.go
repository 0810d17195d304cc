package diag

import (
	"log/slog"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// SlogObserver writes diagnostics as structured log lines. Tick boundaries
// log at Info, per-system timings at Debug.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer that logs to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) TickStarted(tick core.Tick) error {
	o.logger.Debug("tick started", "tick", tick)
	return nil
}

func (o *SlogObserver) TickEnded(r TickReport) error {
	if r.Err != nil {
		o.logger.Warn("tick failed",
			"tick", r.Tick,
			"mode", r.Mode.String(),
			"duration", r.Duration,
			"error", r.Err,
		)
		return nil
	}
	o.logger.Info("tick committed",
		"tick", r.Tick,
		"mode", r.Mode.String(),
		"hash", r.Hash.String(),
		"systems", r.Systems,
		"inputs", r.Inputs,
		"duration", r.Duration,
	)
	return nil
}

func (o *SlogObserver) SystemRan(r SystemReport) error {
	o.logger.Debug("system ran",
		"tick", r.Tick,
		"system", r.System,
		"wave", r.Wave,
		"duration", r.Duration,
		"error", r.Err,
	)
	return nil
}

func (o *SlogObserver) LogGrew(size int) error {
	o.logger.Debug("event log grew", "records", size)
	return nil
}
