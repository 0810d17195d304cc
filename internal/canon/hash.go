package canon

import (
	"crypto/sha256"
	"fmt"
)

// Domain prefixes for hashing. The version suffix allows future algorithm
// migration without colliding with older digests.
const (
	DomainState     = "simcore/state/v1"
	DomainSubStream = "simcore/substream/v1"
	DomainPlan      = "simcore/plan/v1"
)

// HashWithDomain computes SHA256(domain || 0x00 || data).
// The null separator prevents domain/data boundary ambiguity.
func HashWithDomain(domain string, data []byte) [sha256.Size]byte {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)

	var out [sha256.Size]byte
	copy(out[:], h.Sum(nil))
	return out
}

// Hash canonicalizes v and hashes it under domain.
func Hash(domain string, v Value) ([sha256.Size]byte, error) {
	data, err := Marshal(v)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("canonicalize for %s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}
