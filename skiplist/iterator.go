package skiplist

import (
	"context"

	"github.com/metailurini/rangesync/kv"
)

// Options shapes a range iteration.
type Options struct {
	// Limit caps the number of yielded entries when positive. Combined
	// with Reverse it yields the last Limit entries of the ascending set.
	Limit int
	// Reverse yields the selected entries in descending key order.
	Reverse bool
}

// window is one contiguous ascending stretch of level-0 keys, [from, to) with
// nil meaning open. A wrapping range decomposes into two windows.
type window[K any] struct {
	from *K
	to   *K
}

// Iterator is a lazy, forward-only walk over a range of entries. It is valid
// until the list is mutated; iterating across a mutation is undefined.
type Iterator[K, V, L any] struct {
	ctx     context.Context
	s       *SkipList[K, V, L]
	windows []window[K]
	reverse bool
	limit   int

	cur     kv.Iterator[nodeKey[K], node[V, L]]
	widx    int
	yielded int
	key     K
	value   V
	valid   bool
	err     error
}

// AllEntries returns a fresh independent walk over every entry in ascending
// key order.
func (s *SkipList[K, V, L]) AllEntries(ctx context.Context) *Iterator[K, V, L] {
	return s.Entries(ctx, nil, nil, Options{})
}

// Entries returns a lazy walk over the entries selected by [start, end).
// A nil bound leaves that side open. When start > end the range is circular:
// it selects keys k with k < end or k >= start, and the ascending enumeration
// yields the low part before the high part.
func (s *SkipList[K, V, L]) Entries(ctx context.Context, start, end *K, opts Options) *Iterator[K, V, L] {
	var windows []window[K]
	switch {
	case start != nil && end != nil && s.cmp(*start, *end) > 0:
		windows = []window[K]{{to: end}, {from: start}}
	case start != nil && end != nil && s.cmp(*start, *end) == 0:
		// Half-open and empty.
	default:
		windows = []window[K]{{from: start, to: end}}
	}
	if opts.Reverse {
		for i, j := 0, len(windows)-1; i < j; i, j = i+1, j-1 {
			windows[i], windows[j] = windows[j], windows[i]
		}
	}
	return &Iterator[K, V, L]{
		ctx:     ctx,
		s:       s,
		windows: windows,
		reverse: opts.Reverse,
		limit:   opts.Limit,
	}
}

// Next advances to the next entry and reports whether one is available.
func (it *Iterator[K, V, L]) Next() bool {
	it.valid = false
	if it.err != nil {
		return false
	}
	if it.limit > 0 && it.yielded >= it.limit {
		return false
	}

	for {
		if it.cur == nil {
			if it.widx >= len(it.windows) {
				return false
			}
			it.cur = it.openWindow(it.windows[it.widx])
		}
		if it.cur.Next() {
			nk := it.cur.Key()
			if nk.Kind != kindEntry {
				continue
			}
			it.key = nk.Key
			it.value = it.cur.Value().Value
			it.valid = true
			it.yielded++
			return true
		}
		it.err = it.cur.Err()
		it.cur.Close()
		it.cur = nil
		if it.err != nil {
			return false
		}
		it.widx++
	}
}

func (it *Iterator[K, V, L]) openWindow(w window[K]) kv.Iterator[nodeKey[K], node[V, L]] {
	start := it.s.headKey(0)
	if w.from != nil {
		start = it.s.entryKey(0, *w.from)
	}
	end := it.s.headKey(1)
	if w.to != nil {
		end = it.s.entryKey(0, *w.to)
	}
	it.s.metrics.incRead()
	return it.s.store.List(it.ctx, kv.ListOptions[nodeKey[K]]{
		Start:   &start,
		End:     &end,
		Reverse: it.reverse,
	})
}

// Valid reports whether the iterator currently points at an entry.
func (it *Iterator[K, V, L]) Valid() bool { return it.valid }

// Key returns the key at the current position. It should only be called when
// Valid reports true.
func (it *Iterator[K, V, L]) Key() K { return it.key }

// Value returns the value at the current position. It should only be called
// when Valid reports true.
func (it *Iterator[K, V, L]) Value() V { return it.value }

// Entry returns the current position as an Entry.
func (it *Iterator[K, V, L]) Entry() Entry[K, V] {
	return Entry[K, V]{Key: it.key, Value: it.value}
}

// Err returns the first storage fault hit during iteration, if any.
func (it *Iterator[K, V, L]) Err() error { return it.err }

// Close releases the underlying store cursor. It is safe to call at any
// point and more than once.
func (it *Iterator[K, V, L]) Close() error {
	if it.cur != nil {
		err := it.cur.Close()
		it.cur = nil
		return err
	}
	return nil
}

// Collect drains the iterator into a slice, closing it.
func (it *Iterator[K, V, L]) Collect() ([]Entry[K, V], error) {
	defer it.Close()
	var out []Entry[K, V]
	for it.Next() {
		out = append(out, it.Entry())
	}
	return out, it.Err()
}
