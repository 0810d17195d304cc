package demo

import (
	"github.com/organization-ai-projects/simcore/internal/arena"
	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/core"
)

// Resource tags.
const (
	TagClimate   core.ResourceTag = "climate"
	TagColonists core.ResourceTag = "colonists"
	TagFood      core.ResourceTag = "food"
	TagCensus    core.ResourceTag = "census"
)

// Season names, in order.
var seasons = [...]string{"spring", "summer", "autumn", "winter"}

const winter = 3

// Climate is the current season and rainfall (0-10).
type Climate struct {
	Season   int
	Rainfall int
}

// SeasonName returns the name of the current season.
func (c *Climate) SeasonName() string {
	return seasons[c.Season]
}

func (c *Climate) Snapshot() (canon.Value, error) {
	return canon.Obj(
		canon.P("season", canon.String(c.SeasonName())),
		canon.P("rainfall", canon.Int(c.Rainfall)),
	), nil
}

// Colonist is one member of the colony.
type Colonist struct {
	Name   string
	Age    int
	Hunger int
}

func encodeColonist(c Colonist) (canon.Value, error) {
	return canon.Obj(
		canon.P("name", canon.String(c.Name)),
		canon.P("age", canon.Int(c.Age)),
		canon.P("hunger", canon.Int(c.Hunger)),
	), nil
}

// Colonists is the population arena.
type Colonists struct {
	*arena.Arena[Colonist]
}

func (c *Colonists) Snapshot() (canon.Value, error) {
	return c.Arena.Snapshot(encodeColonist)
}

// Food is the shared stock. Starving counts consecutive ticks in which
// someone went unfed.
type Food struct {
	Stock    int64
	Starving int
}

func (f *Food) Snapshot() (canon.Value, error) {
	return canon.Obj(
		canon.P("stock", canon.Int(f.Stock)),
		canon.P("starving", canon.Int(f.Starving)),
	), nil
}

// Census accumulates population changes.
type Census struct {
	Arrivals   int
	Deaths     int
	Exiles     int
	TurnedAway int
}

func (c *Census) Snapshot() (canon.Value, error) {
	return canon.Obj(
		canon.P("arrivals", canon.Int(c.Arrivals)),
		canon.P("deaths", canon.Int(c.Deaths)),
		canon.P("exiles", canon.Int(c.Exiles)),
		canon.P("turned_away", canon.Int(c.TurnedAway)),
	), nil
}
