package kv

import (
	"context"

	"github.com/google/btree"
)

const memoryDegree = 16

// Memory is an in-memory Store backed by a B-tree. Scans iterate over a
// copy-on-write clone taken when List is called, so an iterator observes a
// snapshot of the store at call time.
//
// Memory is not safe for concurrent mutation; the structures built on top of
// it assume single-writer discipline anyway.
type Memory[K, V any] struct {
	cmp  Compare[K]
	tree *btree.BTreeG[Pair[K, V]]
}

// NewMemory returns an empty in-memory store ordered by cmp.
func NewMemory[K, V any](cmp Compare[K]) *Memory[K, V] {
	less := func(a, b Pair[K, V]) bool { return cmp(a.Key, b.Key) < 0 }
	return &Memory[K, V]{
		cmp:  cmp,
		tree: btree.NewG(memoryDegree, less),
	}
}

// Get implements Store.
func (m *Memory[K, V]) Get(_ context.Context, key K) (V, bool, error) {
	item, ok := m.tree.Get(Pair[K, V]{Key: key})
	return item.Value, ok, nil
}

// Set implements Store.
func (m *Memory[K, V]) Set(_ context.Context, key K, value V) error {
	m.tree.ReplaceOrInsert(Pair[K, V]{Key: key, Value: value})
	return nil
}

// Delete implements Store.
func (m *Memory[K, V]) Delete(_ context.Context, key K) error {
	m.tree.Delete(Pair[K, V]{Key: key})
	return nil
}

// Clear implements Store.
func (m *Memory[K, V]) Clear(context.Context) error {
	m.tree.Clear(false)
	return nil
}

// Len returns the number of stored entries.
func (m *Memory[K, V]) Len() int {
	return m.tree.Len()
}

// List implements Store. The returned iterator walks a snapshot; mutating the
// store while draining it is allowed and does not affect the iteration.
func (m *Memory[K, V]) List(_ context.Context, opts ListOptions[K]) Iterator[K, V] {
	return &memoryIterator[K, V]{
		cmp:  m.cmp,
		snap: m.tree.Clone(),
		opts: opts,
	}
}

type memoryIterator[K, V any] struct {
	cmp     Compare[K]
	snap    *btree.BTreeG[Pair[K, V]]
	opts    ListOptions[K]
	cur     Pair[K, V]
	started bool
	done    bool
	yielded int
}

func (it *memoryIterator[K, V]) Next() bool {
	if it.done {
		return false
	}
	if it.opts.Limit > 0 && it.yielded >= it.opts.Limit {
		it.done = true
		return false
	}

	var next Pair[K, V]
	var found bool
	take := func(p Pair[K, V]) bool {
		next = p
		found = true
		return false
	}

	if !it.opts.Reverse {
		switch {
		case it.started:
			// Strictly after the current key.
			cur := it.cur
			it.snap.AscendGreaterOrEqual(cur, func(p Pair[K, V]) bool {
				if it.cmp(p.Key, cur.Key) == 0 {
					return true
				}
				return take(p)
			})
		case it.opts.Start != nil:
			it.snap.AscendGreaterOrEqual(Pair[K, V]{Key: *it.opts.Start}, take)
		default:
			it.snap.Ascend(take)
		}
		if found && it.opts.End != nil && it.cmp(next.Key, *it.opts.End) >= 0 {
			found = false
		}
	} else {
		switch {
		case it.started:
			cur := it.cur
			it.snap.DescendLessOrEqual(cur, func(p Pair[K, V]) bool {
				if it.cmp(p.Key, cur.Key) == 0 {
					return true
				}
				return take(p)
			})
		case it.opts.End != nil:
			// End is exclusive, so skip an exact match.
			end := *it.opts.End
			it.snap.DescendLessOrEqual(Pair[K, V]{Key: end}, func(p Pair[K, V]) bool {
				if it.cmp(p.Key, end) == 0 {
					return true
				}
				return take(p)
			})
		default:
			it.snap.Descend(take)
		}
		if found && it.opts.Start != nil && it.cmp(next.Key, *it.opts.Start) < 0 {
			found = false
		}
	}

	if !found {
		it.done = true
		return false
	}
	it.cur = next
	it.started = true
	it.yielded++
	return true
}

func (it *memoryIterator[K, V]) Key() K       { return it.cur.Key }
func (it *memoryIterator[K, V]) Value() V     { return it.cur.Value }
func (it *memoryIterator[K, V]) Err() error   { return nil }
func (it *memoryIterator[K, V]) Close() error { return nil }
