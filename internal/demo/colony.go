package demo

import (
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/arena"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
	"github.com/organization-ai-projects/simcore/internal/world"
)

// Colony is a world populated with the colony resources and the plan that
// drives it. A Colony is used for exactly one run.
type Colony struct {
	World  *world.World
	Plan   *scheduler.Plan
	Params Params

	climate   *Climate
	colonists *Colonists
	food      *Food
	census    *Census
}

// New builds the initial colony for p. The founders are allocated before
// the first tick so their ids are (0,0), (1,0) and so on.
func New(p Params) (*Colony, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	c := &Colony{
		World:     world.New(),
		Params:    p,
		climate:   &Climate{},
		colonists: &Colonists{Arena: arena.New[Colonist](arena.WithCapacityLimit(p.Capacity))},
		food:      &Food{Stock: p.InitialFood},
		census:    &Census{},
	}
	for i := 1; i <= p.InitialColonists; i++ {
		if _, err := c.colonists.Allocate(Colonist{Name: fmt.Sprintf("founder-%d", i), Age: 20}); err != nil {
			return nil, fmt.Errorf("allocate founder %d: %w", i, err)
		}
	}

	for _, r := range []struct {
		tag      core.ResourceTag
		resource any
	}{
		{TagClimate, c.climate},
		{TagColonists, c.colonists},
		{TagFood, c.food},
		{TagCensus, c.census},
	} {
		if err := c.World.Register(r.tag, r.resource); err != nil {
			return nil, err
		}
	}

	plan, err := Plan(p)
	if err != nil {
		return nil, err
	}
	c.Plan = plan
	return c, nil
}

// Plan registers the colony systems and builds their execution plan.
func Plan(p Params) (*scheduler.Plan, error) {
	s := &systems{params: p}
	tags := func(ts ...core.ResourceTag) []core.ResourceTag { return ts }

	r := scheduler.NewRegistry()
	for _, sys := range []struct {
		id     core.SystemID
		reads  []core.ResourceTag
		writes []core.ResourceTag
		exec   scheduler.ExecuteFunc
	}{
		{SystemWeather, nil, tags(TagClimate), s.weather},
		{SystemImmigration, tags(TagClimate), tags(TagColonists, TagCensus), s.immigration},
		{SystemHarvest, tags(TagClimate), tags(TagFood), s.harvest},
		{SystemConsumption, nil, tags(TagFood, TagColonists), s.consumption},
		{SystemAging, nil, tags(TagColonists, TagCensus), s.aging},
	} {
		if err := r.Register(sys.id, sys.reads, sys.writes, sys.exec); err != nil {
			return nil, err
		}
	}
	return r.Build()
}

// Summary is a human-oriented view of the colony.
type Summary struct {
	Population int    `json:"population"`
	Food       int64  `json:"food"`
	Starving   int    `json:"starving"`
	Season     string `json:"season"`
	Rainfall   int    `json:"rainfall"`
	Arrivals   int    `json:"arrivals"`
	Deaths     int    `json:"deaths"`
	Exiles     int    `json:"exiles"`
	TurnedAway int    `json:"turned_away"`
}

// Summary reads the colony resources. Call it between ticks only.
func (c *Colony) Summary() Summary {
	return Summary{
		Population: c.colonists.Len(),
		Food:       c.food.Stock,
		Starving:   c.food.Starving,
		Season:     c.climate.SeasonName(),
		Rainfall:   c.climate.Rainfall,
		Arrivals:   c.census.Arrivals,
		Deaths:     c.census.Deaths,
		Exiles:     c.census.Exiles,
		TurnedAway: c.census.TurnedAway,
	}
}

// Colonists returns the live colonists in id order.
func (c *Colony) Colonists() []Colonist {
	out := make([]Colonist, 0, c.colonists.Len())
	c.colonists.Each(func(_ arena.EntityID, col *Colonist) bool {
		out = append(out, *col)
		return true
	})
	return out
}
