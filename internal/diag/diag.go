// Package diag provides read-only observer hooks for the scheduler.
//
// Observers see tick and system timings and log growth. They are outside the
// reproducibility contract: nothing they return or do feeds back into
// scheduling or hashing. The scheduler always calls observers through Guard,
// which logs and swallows errors and recovers panics.
package diag

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/organization-ai-projects/simcore/internal/core"
)

// TickReport describes a finished tick.
type TickReport struct {
	Tick     core.Tick
	Mode     core.Mode
	Hash     core.StateHash // zero if the tick did not commit
	Duration time.Duration
	Systems  int   // systems that ran
	Inputs   int   // input records consumed
	Err      error // nil on success
}

// SystemReport describes one system execution within a tick.
type SystemReport struct {
	Tick     core.Tick
	System   core.SystemID
	Wave     int
	Duration time.Duration
	Err      error
}

// Observer receives scheduler diagnostics. SystemRan may be called
// concurrently from wave workers; implementations must be safe for that.
type Observer interface {
	TickStarted(tick core.Tick) error
	TickEnded(r TickReport) error
	SystemRan(r SystemReport) error
	LogGrew(size int) error
}

// Guarded wraps an Observer so its failures never reach the caller.
type Guarded struct {
	obs    Observer
	logger *slog.Logger
}

// Guard wraps obs. A nil obs yields a no-op Guarded. A nil logger discards.
func Guard(obs Observer, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guarded{obs: obs, logger: logger}
}

// TickStarted forwards to the wrapped observer.
func (g *Guarded) TickStarted(tick core.Tick) {
	g.call("tick_started", func() error { return g.obs.TickStarted(tick) })
}

// TickEnded forwards to the wrapped observer.
func (g *Guarded) TickEnded(r TickReport) {
	g.call("tick_ended", func() error { return g.obs.TickEnded(r) })
}

// SystemRan forwards to the wrapped observer.
func (g *Guarded) SystemRan(r SystemReport) {
	g.call("system_ran", func() error { return g.obs.SystemRan(r) })
}

// LogGrew forwards to the wrapped observer.
func (g *Guarded) LogGrew(size int) {
	g.call("log_grew", func() error { return g.obs.LogGrew(size) })
}

func (g *Guarded) call(hook string, fn func() error) {
	if g == nil || g.obs == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("diagnostics observer panicked", "hook", hook, "panic", fmt.Sprint(r))
		}
	}()
	if err := fn(); err != nil {
		g.logger.Warn("diagnostics observer failed", "hook", hook, "error", err)
	}
}

// Multi fans out to every observer in order and joins their errors. A
// failing observer does not stop the rest.
func Multi(observers ...Observer) Observer {
	return multi(observers)
}

type multi []Observer

func (m multi) each(fn func(Observer) error) error {
	var errs []error
	for _, o := range m {
		if err := fn(o); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multi) TickStarted(tick core.Tick) error {
	return m.each(func(o Observer) error { return o.TickStarted(tick) })
}

func (m multi) TickEnded(r TickReport) error {
	return m.each(func(o Observer) error { return o.TickEnded(r) })
}

func (m multi) SystemRan(r SystemReport) error {
	return m.each(func(o Observer) error { return o.SystemRan(r) })
}

func (m multi) LogGrew(size int) error {
	return m.each(func(o Observer) error { return o.LogGrew(size) })
}
