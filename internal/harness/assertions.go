package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // which expectation
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

// evaluate checks every expectation and the replay invariant. It does not
// fail fast.
func evaluate(exp Expect, res *Result) []error {
	var errs []error
	check := func(typ string, ok bool, expected, actual any) {
		if !ok {
			errs = append(errs, &AssertionError{
				Type:     typ,
				Expected: fmt.Sprint(expected),
				Actual:   fmt.Sprint(actual),
			})
		}
	}

	rec := res.Record
	check("ticks", uint64(rec.Ticks) == exp.Ticks, exp.Ticks, rec.Ticks)
	check("state", rec.State.String() == exp.State, exp.State, rec.State)
	check("faults", rec.Faults == exp.Faults, exp.Faults, rec.Faults)

	switch {
	case exp.Error == "" && rec.Err != nil:
		check("error", false, "no error", rec.Err)
	case exp.Error != "" && rec.Err == nil:
		check("error", false, fmt.Sprintf("error containing %q", exp.Error), "no error")
	case exp.Error != "" && !strings.Contains(rec.Err.Error(), exp.Error):
		check("error", false, fmt.Sprintf("error containing %q", exp.Error), rec.Err)
	}

	if exp.Population != nil {
		check("population", rec.Summary.Population == *exp.Population, *exp.Population, rec.Summary.Population)
	}
	if exp.TurnedAwayAtLeast > 0 {
		check("turned_away", rec.Summary.TurnedAway >= exp.TurnedAwayAtLeast,
			fmt.Sprintf("at least %d", exp.TurnedAwayAtLeast), rec.Summary.TurnedAway)
	}

	replay := res.Replay
	if !replay.Verified() {
		actual := fmt.Sprintf("%d of %d ticks", replay.Ticks, replay.Recording.LastTick())
		if replay.Err != nil {
			actual += fmt.Sprintf(" (%v)", replay.Err)
		}
		check("replay", false, "every recorded tick reproduced", actual)
	}

	if res.Tampered != nil {
		got := desyncTick(res.Tampered.Err)
		check("desync_tick", got == exp.DesyncTick, exp.DesyncTick, got)
	}
	return errs
}
