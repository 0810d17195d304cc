package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/demo"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
)

// ErrNoDomain is returned when a recording carries no domain configuration.
var ErrNoDomain = errors.New("recording has no domain configuration")

// Domain is the configuration that, together with the seed and inputs,
// determines every tick hash. It is stored in the run header.
type Domain struct {
	Colony      demo.Params
	FaultPolicy scheduler.FaultPolicy
}

// Encode returns the canonical JSON stored in eventlog.Header.Config.
func (d Domain) Encode() ([]byte, error) {
	p := d.Colony
	return canon.Marshal(canon.Obj(
		canon.P("colony", canon.Obj(
			canon.P("initial_food", canon.Int(p.InitialFood)),
			canon.P("initial_colonists", canon.Int(p.InitialColonists)),
			canon.P("harvest_base", canon.Int(p.HarvestBase)),
			canon.P("capacity", canon.Int(p.Capacity)),
			canon.P("max_age", canon.Int(p.MaxAge)),
			canon.P("season_length", canon.Int(p.SeasonLength)),
		)),
		canon.P("fault_policy", canon.String(d.FaultPolicy.String())),
	))
}

// DecodeDomain parses a header configuration written by Encode.
func DecodeDomain(data []byte) (Domain, error) {
	if len(data) == 0 {
		return Domain{}, ErrNoDomain
	}

	var raw struct {
		Colony      demo.Params `json:"colony"`
		FaultPolicy string      `json:"fault_policy"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Domain{}, fmt.Errorf("decode domain config: %w", err)
	}
	policy, err := scheduler.ParseFaultPolicy(raw.FaultPolicy)
	if err != nil {
		return Domain{}, fmt.Errorf("decode domain config: %w", err)
	}
	return Domain{Colony: raw.Colony, FaultPolicy: policy}, nil
}
