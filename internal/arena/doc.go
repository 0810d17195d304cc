// Package arena implements generation-counted slot storage for short-lived
// entity identities.
//
// Every EntityID carries the generation of the slot it was issued from.
// Freeing a slot bumps its generation, so any id issued before the free is
// rejected by Get, GetMut and Free with a StaleIDError, even after the index
// has been handed out again. Access is only ever granted through this checked
// path; there is no raw index access.
//
// Arenas are not internally synchronized. During a tick the scheduler's wave
// barrier guarantees that at most one system writes a given arena resource.
package arena
