// Package graph orders systems by their declared resource access.
//
// Each system declares the resource tags it reads and writes. Two systems
// conflict when one's writes intersect the other's reads or writes. Every
// conflicting pair gets an ordering edge:
//
//   - a writer runs before a pure reader of the same tag
//   - overlapping writers run in registration order
//   - if each side writes something the other only reads, the pair is a cycle
//
// BuildOrder layers the resulting DAG into waves. Systems within one wave
// never conflict, so the scheduler may run them in parallel without locks.
// Ties are always broken by registration order, so two graphs built from the
// same registrations produce the same plan.
//
// Cycles are configuration errors. They are reported with the members and one
// concrete path, never resolved automatically.
package graph
