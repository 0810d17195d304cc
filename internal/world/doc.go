// Package world holds the resources systems operate on and hands each system
// a View limited to the tags it declared.
//
// A resource is any value registered under a ResourceTag, typically a
// pointer to domain state or an entity arena. Resources that implement
// Snapshotter contribute to the tick's StateHash; the rest are scratch state
// outside the reproducibility contract.
//
// The set of resources is fixed once the world is sealed by the scheduler.
// Views never lock: the dependency graph guarantees that no two systems in a
// wave write the same tag.
package world
