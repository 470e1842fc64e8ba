// Package monoid defines the pluggable algebra used to label key ranges.
//
// A Monoid is passed to a structure at construction time as a plain value; the
// structure never subclasses or wraps it, it only calls Lift and Combine.
// Combine must be associative and is always applied in ascending key order, so
// it does not have to be commutative.
package monoid

import "github.com/zeebo/xxh3"

// Monoid describes how per-entry values are aggregated into range labels.
// Neutral is the identity element: Combine(Neutral, l) == l == Combine(l, Neutral).
type Monoid[V, L any] struct {
	Neutral L
	Combine func(a, b L) L
	Lift    func(v V) L
}

// Summary is the product monoid (L, size): a combined fingerprint paired with
// the number of entries it covers.
type Summary[L any] struct {
	Fingerprint L
	Size        int
}

// Concat is the string concatenation monoid. Concatenation is associative but
// not commutative, which makes it a good probe for combine-order bugs.
func Concat() Monoid[string, string] {
	return Monoid[string, string]{
		Neutral: "",
		Combine: func(a, b string) string { return a + b },
		Lift:    func(v string) string { return v },
	}
}

// FingerprintSize is the byte length of labels produced by Fingerprint.
const FingerprintSize = 16

// Fingerprint is the practical set-reconciliation monoid over raw values:
// each value is lifted to its 128-bit xxh3 digest and labels are combined by
// XOR. The neutral element is the all-zero digest.
func Fingerprint() Monoid[[]byte, []byte] {
	return Monoid[[]byte, []byte]{
		Neutral: make([]byte, FingerprintSize),
		Combine: func(a, b []byte) []byte {
			out := make([]byte, FingerprintSize)
			for i := range out {
				var x, y byte
				if i < len(a) {
					x = a[i]
				}
				if i < len(b) {
					y = b[i]
				}
				out[i] = x ^ y
			}
			return out
		},
		Lift: func(v []byte) []byte {
			sum := xxh3.Hash128(v).Bytes()
			return sum[:]
		},
	}
}

// Count ignores values entirely; the size half of the product monoid carries
// all the information. Useful when only range cardinalities are needed.
func Count[V any]() Monoid[V, struct{}] {
	return Monoid[V, struct{}]{
		Combine: func(a, b struct{}) struct{} { return struct{}{} },
		Lift:    func(V) struct{} { return struct{}{} },
	}
}
