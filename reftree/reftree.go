// Package reftree provides a balanced-tree structure with the same observable
// contract as the skiplist package: ordered entries, circular half-open
// ranges, and monoid range summaries. Summaries are computed by direct
// in-order iteration, which is trivially correct; the package exists to
// cross-check the skip list under randomized testing, not to be fast.
package reftree

import (
	"github.com/google/btree"

	"github.com/metailurini/rangesync/kv"
	"github.com/metailurini/rangesync/monoid"
)

const treeDegree = 8

// Entry is a single key-value pair of the tree.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// Options mirrors skiplist.Options.
type Options struct {
	Limit   int
	Reverse bool
}

// Tree is the reference structure.
type Tree[K, V, L any] struct {
	cmp  kv.Compare[K]
	mon  monoid.Monoid[V, L]
	tree *btree.BTreeG[Entry[K, V]]
}

// New returns an empty reference tree ordered by cmp and labelled by m.
func New[K, V, L any](cmp kv.Compare[K], m monoid.Monoid[V, L]) *Tree[K, V, L] {
	less := func(a, b Entry[K, V]) bool { return cmp(a.Key, b.Key) < 0 }
	return &Tree[K, V, L]{
		cmp:  cmp,
		mon:  m,
		tree: btree.NewG(treeDegree, less),
	}
}

// Insert adds or replaces key.
func (t *Tree[K, V, L]) Insert(key K, value V) {
	t.tree.ReplaceOrInsert(Entry[K, V]{Key: key, Value: value})
}

// Remove deletes key; removing an absent key is a no-op.
func (t *Tree[K, V, L]) Remove(key K) {
	t.tree.Delete(Entry[K, V]{Key: key})
}

// Get returns the value stored under key.
func (t *Tree[K, V, L]) Get(key K) (V, bool) {
	item, ok := t.tree.Get(Entry[K, V]{Key: key})
	return item.Value, ok
}

// Len returns the number of entries.
func (t *Tree[K, V, L]) Len() int {
	return t.tree.Len()
}

// AllEntries returns every entry in ascending key order.
func (t *Tree[K, V, L]) AllEntries() []Entry[K, V] {
	return t.Entries(nil, nil, Options{})
}

// Entries returns the entries selected by [start, end) under the same range
// semantics as the skip list: nil bounds are open, start > end wraps.
func (t *Tree[K, V, L]) Entries(start, end *K, opts Options) []Entry[K, V] {
	asc := t.selectAscending(start, end)
	if opts.Reverse {
		for i, j := 0, len(asc)-1; i < j; i, j = i+1, j-1 {
			asc[i], asc[j] = asc[j], asc[i]
		}
		if opts.Limit > 0 && len(asc) > opts.Limit {
			asc = asc[:opts.Limit]
		}
		return asc
	}
	if opts.Limit > 0 && len(asc) > opts.Limit {
		asc = asc[:opts.Limit]
	}
	return asc
}

// Summarize combines the selected entries' lifted values in ascending order,
// low part before high part for wrapping ranges.
func (t *Tree[K, V, L]) Summarize(start, end K) monoid.Summary[L] {
	sum := monoid.Summary[L]{Fingerprint: t.mon.Neutral}
	var selected []Entry[K, V]
	switch c := t.cmp(start, end); {
	case c == 0:
		return sum
	case c < 0:
		selected = t.selectAscending(&start, &end)
	default:
		selected = append(t.selectAscending(nil, &end), t.selectAscending(&start, nil)...)
	}
	for _, e := range selected {
		sum.Fingerprint = t.mon.Combine(sum.Fingerprint, t.mon.Lift(e.Value))
		sum.Size++
	}
	return sum
}

func (t *Tree[K, V, L]) selectAscending(start, end *K) []Entry[K, V] {
	if start != nil && end != nil && t.cmp(*start, *end) > 0 {
		low := t.window(nil, end)
		return append(low, t.window(start, nil)...)
	}
	if start != nil && end != nil && t.cmp(*start, *end) == 0 {
		return nil
	}
	return t.window(start, end)
}

// window collects the single ascending stretch [start, end).
func (t *Tree[K, V, L]) window(start, end *K) []Entry[K, V] {
	var out []Entry[K, V]
	visit := func(e Entry[K, V]) bool {
		if end != nil && t.cmp(e.Key, *end) >= 0 {
			return false
		}
		out = append(out, e)
		return true
	}
	if start != nil {
		t.tree.AscendGreaterOrEqual(Entry[K, V]{Key: *start}, visit)
	} else {
		t.tree.Ascend(visit)
	}
	return out
}
