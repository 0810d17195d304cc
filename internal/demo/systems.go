package demo

import (
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/arena"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
	"github.com/organization-ai-projects/simcore/internal/world"
)

// System ids.
const (
	SystemWeather     core.SystemID = "weather"
	SystemImmigration core.SystemID = "immigration"
	SystemHarvest     core.SystemID = "harvest"
	SystemConsumption core.SystemID = "consumption"
	SystemAging       core.SystemID = "aging"
)

// FamineTicks is how many consecutive hungry ticks end in famine.
const FamineTicks = 2

// ErrFamine is the domain error raised when the colony has starved for
// FamineTicks ticks in a row.
var ErrFamine = errors.New("famine")

// ErrUnexpectedInput is returned when a system receives a kind it does not handle.
var ErrUnexpectedInput = errors.New("unexpected input")

type systems struct {
	params Params
}

func (s *systems) weather(tc *scheduler.TickContext) error {
	climate, err := world.WriteAs[*Climate](tc.View, TagClimate)
	if err != nil {
		return err
	}
	climate.Season = int((uint64(tc.Tick)-1)/uint64(s.params.SeasonLength)) % len(seasons)
	climate.Rainfall = tc.Rand.IntN(11)
	return nil
}

func (s *systems) immigration(tc *scheduler.TickContext) error {
	climate, err := world.ReadAs[*Climate](tc.View, TagClimate)
	if err != nil {
		return err
	}
	colonists, err := world.WriteAs[*Colonists](tc.View, TagColonists)
	if err != nil {
		return err
	}
	census, err := world.WriteAs[*Census](tc.View, TagCensus)
	if err != nil {
		return err
	}

	for {
		in, ok := tc.Inputs.Next()
		if !ok {
			break
		}
		if in.Kind != KindImmigrant {
			return fmt.Errorf("%w: %s", ErrUnexpectedInput, in.Kind)
		}
		var im immigrant
		if err := decode(in.Kind, in.Payload, &im); err != nil {
			return err
		}
		if err := im.validate(); err != nil {
			return err
		}
		if err := admit(colonists, census, Colonist{Name: im.Name, Age: im.Age}); err != nil {
			return err
		}
	}

	// Wet weather occasionally brings a settler.
	if climate.Rainfall >= 8 && tc.Rand.IntN(4) == 0 {
		settler := Colonist{
			Name: fmt.Sprintf("settler-%d", tc.Tick),
			Age:  18 + tc.Rand.IntN(10),
		}
		if err := admit(colonists, census, settler); err != nil {
			return err
		}
	}
	return nil
}

// admit allocates c, turning it away when the colony is full.
func admit(colonists *Colonists, census *Census, c Colonist) error {
	if _, err := colonists.Allocate(c); err != nil {
		if arena.IsOutOfCapacity(err) {
			census.TurnedAway++
			return nil
		}
		return err
	}
	census.Arrivals++
	return nil
}

func (s *systems) harvest(tc *scheduler.TickContext) error {
	climate, err := world.ReadAs[*Climate](tc.View, TagClimate)
	if err != nil {
		return err
	}
	food, err := world.WriteAs[*Food](tc.View, TagFood)
	if err != nil {
		return err
	}

	yield := s.params.HarvestBase + s.params.HarvestBase*int64(climate.Rainfall)/10
	if climate.Season == winter {
		yield /= 2
	}
	food.Stock += yield

	for {
		in, ok := tc.Inputs.Next()
		if !ok {
			break
		}
		if in.Kind != KindDelivery {
			return fmt.Errorf("%w: %s", ErrUnexpectedInput, in.Kind)
		}
		var d delivery
		if err := decode(in.Kind, in.Payload, &d); err != nil {
			return err
		}
		if d.Food < 0 {
			return fmt.Errorf("%w: negative delivery %d", ErrBadPayload, d.Food)
		}
		food.Stock += d.Food
	}
	return nil
}

func (s *systems) consumption(tc *scheduler.TickContext) error {
	food, err := world.WriteAs[*Food](tc.View, TagFood)
	if err != nil {
		return err
	}
	colonists, err := world.WriteAs[*Colonists](tc.View, TagColonists)
	if err != nil {
		return err
	}

	unfed := 0
	colonists.Each(func(_ arena.EntityID, c *Colonist) bool {
		if food.Stock > 0 {
			food.Stock--
			c.Hunger = 0
		} else {
			c.Hunger++
			unfed++
		}
		return true
	})

	if unfed == 0 {
		food.Starving = 0
		return nil
	}
	food.Starving++
	if food.Starving >= FamineTicks {
		return fmt.Errorf("%w: %d colonists unfed for %d ticks", ErrFamine, unfed, food.Starving)
	}
	return nil
}

// starvationHunger is the hunger at which a colonist dies.
const starvationHunger = 3

func (s *systems) aging(tc *scheduler.TickContext) error {
	colonists, err := world.WriteAs[*Colonists](tc.View, TagColonists)
	if err != nil {
		return err
	}
	census, err := world.WriteAs[*Census](tc.View, TagCensus)
	if err != nil {
		return err
	}

	for {
		in, ok := tc.Inputs.Next()
		if !ok {
			break
		}
		if in.Kind != KindExile {
			return fmt.Errorf("%w: %s", ErrUnexpectedInput, in.Kind)
		}
		var ex exile
		if err := decode(in.Kind, in.Payload, &ex); err != nil {
			return err
		}
		// A stale id here is a use-after-free and faults the run.
		if err := colonists.Free(arena.EntityID(ex.ID)); err != nil {
			return err
		}
		census.Exiles++
	}

	var dead []arena.EntityID
	colonists.Each(func(id arena.EntityID, c *Colonist) bool {
		c.Age++
		if c.Age >= s.params.MaxAge || c.Hunger >= starvationHunger {
			dead = append(dead, id)
		}
		return true
	})
	for _, id := range dead {
		if err := colonists.Free(id); err != nil {
			return err
		}
		census.Deaths++
	}
	return nil
}
