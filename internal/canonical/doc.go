// Package canonical produces deterministic JSON for hashing and golden
// comparison.
//
// Output follows RFC 8785 ordering rules:
//   - object keys sorted by UTF-16 code units, not UTF-8 bytes
//   - strings NFC normalized, no HTML escaping
//   - integers only; floats and null are rejected
//
// Hash applies SHA-256 with a domain prefix so hashes of different record
// kinds never collide.
package canonical
