// Package demo is a small colony simulation built on the runtime.
//
// Five systems share four resources:
//
//	weather      writes climate
//	immigration  reads climate, writes colonists and census
//	harvest      reads climate, writes food
//	consumption  writes food and colonists
//	aging        writes colonists and census
//
// which yields the plan
//
//	wave 0: weather
//	wave 1: immigration, harvest
//	wave 2: consumption
//	wave 3: aging
//
// Colonists live in a generation-counted arena. External inputs bring
// immigrants, food deliveries and exiles; exiling an id that is no longer
// live is a use-after-free and faults the run.
package demo
