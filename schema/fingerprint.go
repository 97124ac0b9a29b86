package schema

import (
	"crypto/sha256"

	"github.com/arloliu/avrokit/internal/hash"
)

// Fingerprint64 returns the CRC-64-AVRO Rabin fingerprint of the canonical form.
func (s *Schema) Fingerprint64() uint64 {
	return hash.Rabin([]byte(s.Canonical()))
}

// FingerprintSHA256 returns the SHA-256 digest of the canonical form.
func (s *Schema) FingerprintSHA256() [32]byte {
	return sha256.Sum256([]byte(s.Canonical()))
}

// FingerprintXXH64 returns the xxHash64 of the canonical form. It is not part of
// any interchange format; it keys in-process caches.
func (s *Schema) FingerprintXXH64() uint64 {
	return hash.ID(s.Canonical())
}
