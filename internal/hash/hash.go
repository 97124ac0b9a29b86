// Package hash provides the 64-bit fingerprint functions used for schemas and
// resolution cache keys.
package hash

import "github.com/cespare/xxhash/v2"

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// PairID combines two IDs into one cache key. Order matters: PairID(a, b) and
// PairID(b, a) differ.
func PairID(a, b string) uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(a)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(b)

	return d.Sum64()
}
