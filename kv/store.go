// Package kv defines the ordered key-value store contract that the rangesync
// structures are built on, together with an in-memory and a SQLite-backed
// implementation.
//
// A Store is agnostic to what its callers encode into keys; it only promises
// point access and ordered scans under a fixed total order.
package kv

import "context"

// Pair is a single stored entry.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// ListOptions bounds and shapes a scan. Start is inclusive, End is exclusive;
// a nil bound leaves that side open. Limit caps the number of yielded pairs
// when positive. Reverse scans in descending key order.
type ListOptions[K any] struct {
	Start   *K
	End     *K
	Reverse bool
	Limit   int
}

// Iterator is a lazy cursor over a scan. The usage pattern follows sql.Rows:
//
//	it := store.List(ctx, opts)
//	defer it.Close()
//	for it.Next() {
//		_ = it.Key()
//	}
//	if err := it.Err(); err != nil { ... }
//
// Key and Value are only meaningful after Next has returned true.
type Iterator[K, V any] interface {
	Next() bool
	Key() K
	Value() V
	Err() error
	Close() error
}

// Store is an ordered key-value store. Implementations must order keys by a
// strict total order that is stable for the lifetime of the store. All
// methods propagate storage failures unmodified and perform no retries.
type Store[K, V any] interface {
	// Get returns the value for key. The boolean reports presence; an
	// absent key is not an error.
	Get(ctx context.Context, key K) (V, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key K, value V) error

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key K) error

	// List scans the store in key order under the given bounds.
	List(ctx context.Context, opts ListOptions[K]) Iterator[K, V]

	// Clear removes every entry. Primarily a test/reset utility.
	Clear(ctx context.Context) error
}

// Compare is a three-way comparator: negative when a < b, zero when equal,
// positive when a > b. It must define a strict total order.
type Compare[K any] func(a, b K) int
