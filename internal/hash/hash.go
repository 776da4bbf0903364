// Package hash wraps xxHash64 for schema fingerprints and frame checksums.
package hash

import "github.com/cespare/xxhash/v2"

// Fingerprint returns the xxHash64 of a canonical schema description.
func Fingerprint(desc string) uint64 {
	return xxhash.Sum64String(desc)
}

// Checksum32 returns the low 32 bits of the xxHash64 of data.
func Checksum32(data []byte) uint32 {
	return uint32(xxhash.Sum64(data)) //nolint:gosec
}
