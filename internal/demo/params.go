package demo

import (
	"errors"
	"fmt"
)

// Params configure a colony. Zero values are not defaults; start from
// DefaultParams.
type Params struct {
	InitialFood      int64 `yaml:"initial_food" json:"initial_food"`
	InitialColonists int   `yaml:"initial_colonists" json:"initial_colonists"`
	HarvestBase      int64 `yaml:"harvest_base" json:"harvest_base"`
	Capacity         int   `yaml:"capacity" json:"capacity"`
	MaxAge           int   `yaml:"max_age" json:"max_age"`
	SeasonLength     int   `yaml:"season_length" json:"season_length"`
}

// DefaultParams returns the parameters used when a manifest omits them.
func DefaultParams() Params {
	return Params{
		InitialFood:      50,
		InitialColonists: 3,
		HarvestBase:      3,
		Capacity:         64,
		MaxAge:           80,
		SeasonLength:     5,
	}
}

// Validate reports the first invalid parameter.
func (p Params) Validate() error {
	switch {
	case p.InitialFood < 0:
		return fmt.Errorf("initial_food must not be negative, got %d", p.InitialFood)
	case p.InitialColonists < 0:
		return fmt.Errorf("initial_colonists must not be negative, got %d", p.InitialColonists)
	case p.HarvestBase < 0:
		return fmt.Errorf("harvest_base must not be negative, got %d", p.HarvestBase)
	case p.Capacity < 0:
		return fmt.Errorf("capacity must not be negative, got %d", p.Capacity)
	case p.Capacity > 0 && p.InitialColonists > p.Capacity:
		return fmt.Errorf("initial_colonists (%d) exceeds capacity (%d)", p.InitialColonists, p.Capacity)
	case p.MaxAge < 1:
		return errors.New("max_age must be at least 1")
	case p.SeasonLength < 1:
		return errors.New("season_length must be at least 1")
	}
	return nil
}
