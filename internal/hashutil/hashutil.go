// Package hashutil holds the hashing and table-sizing helpers shared by
// the runtime containers.
package hashutil

import "viper/internal/rtstr"

const (
	// Offset64 is the FNV-1a offset basis, the hash of no bytes.
	Offset64 uint64 = 0xcbf29ce484222325
	prime64  uint64 = 0x100000001b3
)

// FNV1a returns the 64-bit FNV-1a hash of data.
func FNV1a(data []byte) uint64 {
	return Extend(Offset64, data)
}

// Extend continues an FNV-1a hash h over data.
func Extend(h uint64, data []byte) uint64 {
	for _, c := range data {
		h ^= uint64(c)
		h *= prime64
	}
	return h
}

// FNV1aString hashes the bytes of s without copying.
func FNV1aString(s string) uint64 {
	h := Offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return h
}

// FNV1aUint64 hashes the eight little-endian bytes of v.
func FNV1aUint64(v uint64) uint64 {
	h := Offset64
	for i := 0; i < 8; i++ {
		h ^= v & 0xff
		h *= prime64
		v >>= 8
	}
	return h
}

// InitialBuckets is the bucket count of a freshly built hash table.
const InitialBuckets = 16

// NeedsGrow reports whether count entries over buckets exceed the 3/4
// load factor.
func NeedsGrow(count, buckets int) bool {
	return count*4 > buckets*3
}

// BucketsFor returns the smallest power of two, at least InitialBuckets,
// that keeps n entries under the load factor.
func BucketsFor(n int) int {
	b := InitialBuckets
	for NeedsGrow(n, b) {
		b <<= 1
	}
	return b
}

// StrView returns the bytes of s, or nil for a nil handle.
func StrView(s *rtstr.String) []byte {
	if s == nil {
		return nil
	}
	return rtstr.Bytes(s)
}
