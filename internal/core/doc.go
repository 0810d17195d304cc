// Package core provides the foundational types shared by every simcore package.
//
// core imports nothing internal. Every other internal package may import core;
// core never imports them. This keeps the data model the bottom layer with no
// circular dependencies.
//
// Key design constraints:
//   - Ticks are logical time only, never wall-clock timestamps
//   - Seeds are immutable once a run starts
//   - StateHash is a fixed-size SHA-256 digest, rendered as lowercase hex
package core
