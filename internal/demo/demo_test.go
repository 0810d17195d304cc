package demo

import (
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organization-ai-projects/simcore/internal/arena"
	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/determinism"
	"github.com/organization-ai-projects/simcore/internal/eventlog"
	"github.com/organization-ai-projects/simcore/internal/scheduler"
)

func newColony(t *testing.T, mutate func(*Params)) *Colony {
	t.Helper()
	p := DefaultParams()
	if mutate != nil {
		mutate(&p)
	}
	c, err := New(p)
	require.NoError(t, err)
	return c
}

func start(t *testing.T, c *Colony, seed core.Seed, opts ...scheduler.Option) *scheduler.Scheduler {
	t.Helper()
	log := eventlog.NewRecorder(eventlog.Header{
		RunID:         "demo",
		Seed:          seed,
		PlanHash:      c.Plan.Fingerprint(),
		EngineVersion: core.EngineVersion,
	})
	s := scheduler.New(opts...)
	require.NoError(t, s.Start(c.World, c.Plan, log))
	return s
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestPlan_Golden(t *testing.T) {
	c := newColony(t, nil)

	golden(t).Assert(t, "plan", []byte(c.Plan.Execution().String()))
	assert.Equal(t, "ba84b2dce48bb99a2dbf0f4b3559b9b43f8fe7adea0d42e06c39e92018a03f7f", c.Plan.Fingerprint())
	assert.Equal(t,
		[]core.SystemID{SystemWeather, SystemImmigration, SystemHarvest, SystemConsumption, SystemAging},
		c.Plan.Execution().Order,
	)
}

func TestPlan_IndependentOfParams(t *testing.T) {
	a, err := Plan(DefaultParams())
	require.NoError(t, err)
	b, err := Plan(Params{InitialFood: 1, HarvestBase: 9, MaxAge: 2, SeasonLength: 7})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
}

func TestNew_InitialState(t *testing.T) {
	c := newColony(t, nil)

	snap, err := c.World.Snapshot()
	require.NoError(t, err)
	data, err := canon.Marshal(snap)
	require.NoError(t, err)
	golden(t).Assert(t, "initial_state", data)

	hash, err := determinism.HashState(snap)
	require.NoError(t, err)
	assert.Equal(t, "9354969bfe488641145e409087f20c2079f62bd3b92205415d651df6b0bad5c6", hash.String())

	assert.Equal(t, Summary{Population: 3, Food: 50, Season: "spring"}, c.Summary())
	assert.Equal(t, "founder-1", c.Colonists()[0].Name)
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		errMsg string
	}{
		{"defaults", func(*Params) {}, ""},
		{"negative food", func(p *Params) { p.InitialFood = -1 }, "initial_food"},
		{"negative colonists", func(p *Params) { p.InitialColonists = -1 }, "initial_colonists"},
		{"negative harvest", func(p *Params) { p.HarvestBase = -1 }, "harvest_base"},
		{"negative capacity", func(p *Params) { p.Capacity = -1 }, "capacity"},
		{"over capacity", func(p *Params) { p.Capacity = 2 }, "exceeds capacity"},
		{"unbounded capacity", func(p *Params) { p.Capacity = 0 }, ""},
		{"zero max age", func(p *Params) { p.MaxAge = 0 }, "max_age"},
		{"zero season", func(p *Params) { p.SeasonLength = 0 }, "season_length"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			err := p.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)

			_, err = New(p)
			assert.Error(t, err)
		})
	}
}

func TestColony_SameSeedSameHashes(t *testing.T) {
	run := func(opts ...scheduler.Option) []core.StateHash {
		c := newColony(t, nil)
		s := start(t, c, 1234, opts...)
		var hashes []core.StateHash
		for range 20 {
			res, err := s.RunTick(context.Background())
			require.NoError(t, err)
			hashes = append(hashes, res.Hash)
		}
		return hashes
	}

	serial := run()
	assert.Equal(t, serial, run())
	assert.Equal(t, serial, run(scheduler.WithParallel(4)))
}

func TestColony_SeasonsAdvance(t *testing.T) {
	c := newColony(t, func(p *Params) { p.SeasonLength = 2 })
	s := start(t, c, 7)

	var got []string
	for range 9 {
		_, err := s.RunTick(context.Background())
		require.NoError(t, err)
		got = append(got, c.Summary().Season)
	}
	assert.Equal(t, []string{
		"spring", "spring", "summer", "summer", "autumn", "autumn", "winter", "winter", "spring",
	}, got)
}

func TestColony_ImmigrantArrives(t *testing.T) {
	c := newColony(t, nil)
	s := start(t, c, 3)

	require.NoError(t, s.Submit(SystemImmigration, KindImmigrant, Immigrant("ada", 30)))
	_, err := s.RunTick(context.Background())
	require.NoError(t, err)

	names := make([]string, 0)
	for _, col := range c.Colonists() {
		names = append(names, col.Name)
	}
	assert.Contains(t, names, "ada")
	assert.GreaterOrEqual(t, c.Summary().Arrivals, 1)
	assert.GreaterOrEqual(t, c.Summary().Population, 4)
}

func TestColony_FullColonyTurnsImmigrantsAway(t *testing.T) {
	c := newColony(t, func(p *Params) { p.Capacity = 3 })
	s := start(t, c, 3)

	require.NoError(t, s.Submit(SystemImmigration, KindImmigrant, Immigrant("ada", 30)))
	require.NoError(t, s.Submit(SystemImmigration, KindImmigrant, Immigrant("bo", 31)))
	_, err := s.RunTick(context.Background())
	require.NoError(t, err, "a full colony is not an error")

	sum := c.Summary()
	assert.Equal(t, 3, sum.Population)
	assert.Equal(t, 0, sum.Arrivals)
	assert.GreaterOrEqual(t, sum.TurnedAway, 2)
}

func TestColony_DeliveryAddsFood(t *testing.T) {
	// One founder in a full colony: no settler can arrive, so consumption is exactly 1.
	c := newColony(t, func(p *Params) {
		p.InitialFood = 0
		p.HarvestBase = 0
		p.InitialColonists = 1
		p.Capacity = 1
	})
	s := start(t, c, 5)

	require.NoError(t, s.Submit(SystemHarvest, KindDelivery, Delivery(7)))
	_, err := s.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.Summary().Food)
	assert.Equal(t, 0, c.Summary().Starving)
}

func TestColony_FamineIsADomainError(t *testing.T) {
	c := newColony(t, func(p *Params) {
		p.InitialFood = 0
		p.HarvestBase = 0
	})
	s := start(t, c, 11)

	_, err := s.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Summary().Starving)

	_, err = s.RunTick(context.Background())
	require.Error(t, err)
	assert.True(t, scheduler.IsDomainError(err))
	assert.False(t, scheduler.IsFatal(err))
	assert.True(t, errors.Is(err, ErrFamine))
	assert.Equal(t, scheduler.StateFaulted, s.State())
	assert.Equal(t, core.Tick(1), s.Tick())
}

func TestColony_FamineSkippedUnderSkipTick(t *testing.T) {
	c := newColony(t, func(p *Params) {
		p.InitialFood = 0
		p.HarvestBase = 0
	})
	s := start(t, c, 11, scheduler.WithFaultPolicy(scheduler.FaultSkipTick))

	faults := 0
	for range 4 {
		res, err := s.RunTick(context.Background())
		require.NoError(t, err)
		if res.Fault != nil {
			faults++
			assert.ErrorIs(t, res.Fault, ErrFamine)
		}
	}
	assert.Equal(t, 3, faults, "famine from tick 2 onwards")
	assert.Equal(t, core.Tick(4), s.Tick())
}

func TestColony_OldAgeKillsFounders(t *testing.T) {
	c := newColony(t, func(p *Params) { p.MaxAge = 21 })
	s := start(t, c, 9)

	_, err := s.RunTick(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, c.Summary().Deaths, 3)
	for _, col := range c.Colonists() {
		assert.NotContains(t, col.Name, "founder")
	}
}

func TestColony_ExileThenStaleExileFaults(t *testing.T) {
	c := newColony(t, nil)
	s := start(t, c, 21)
	founder := arena.NewEntityID(0, 0)

	require.NoError(t, s.Submit(SystemAging, KindExile, Exile(founder)))
	_, err := s.RunTick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, c.Summary().Exiles)
	for _, col := range c.Colonists() {
		assert.NotEqual(t, "founder-1", col.Name)
	}

	require.NoError(t, s.Submit(SystemAging, KindExile, Exile(founder)))
	_, err = s.RunTick(context.Background())
	require.Error(t, err)
	assert.True(t, arena.IsStale(err))
	assert.True(t, scheduler.IsFatal(err))
	assert.Equal(t, scheduler.StateFaulted, s.State())
}

func TestColony_BadInputs(t *testing.T) {
	tests := []struct {
		name    string
		system  core.SystemID
		kind    core.EventKind
		payload []byte
		target  error
	}{
		{"malformed immigrant", SystemImmigration, KindImmigrant, []byte("not json"), ErrBadPayload},
		{"nameless immigrant", SystemImmigration, KindImmigrant, Immigrant("", 3), ErrBadPayload},
		{"negative delivery", SystemHarvest, KindDelivery, Delivery(-4), ErrBadPayload},
		{"wrong kind", SystemHarvest, KindImmigrant, Immigrant("ada", 3), ErrUnexpectedInput},
		{"kind for another system", SystemAging, KindDelivery, Delivery(1), ErrUnexpectedInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newColony(t, nil)
			s := start(t, c, 1)
			require.NoError(t, s.Submit(tt.system, tt.kind, tt.payload))

			_, err := s.RunTick(context.Background())
			require.Error(t, err)
			assert.True(t, scheduler.IsDomainError(err))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}
