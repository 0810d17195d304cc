// Package canon provides the canonical value model and serialization used to
// fingerprint world state.
//
// Two structurally equal states must hash identically regardless of map
// iteration order, struct layout or host language. canon achieves this by
// restricting values to a sealed set of types and serializing them as
// RFC 8785 canonical JSON:
//   - object keys sorted by UTF-16 code units
//   - strings NFC normalized, no HTML escaping
//   - integers only (int64); floats and null are rejected
//
// Hashes are SHA-256 with a versioned domain prefix and a 0x00 separator.
package canon
