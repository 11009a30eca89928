package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content hashes. The version suffix allows the
// encoding to change without reusing hashes.
const (
	DomainSnapshot = "babysitter/snapshot/v1"
	DomainTrace    = "babysitter/trace/v1"
)

// Hash returns hex(SHA-256(domain || 0x00 || Marshal(v))).
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SnapshotHash hashes an ordered list of element identities.
func SnapshotHash(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	return Hash(DomainSnapshot, ids)
}
