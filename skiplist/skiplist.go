// Package skiplist implements an ordered key-value index augmented with
// monoid span labels, the primitive behind range-based set reconciliation:
// a combined fingerprint and count for any contiguous (possibly wrapping)
// range of keys can be computed in expected logarithmic time.
//
// The layered structure is not held in memory. Every node-at-level record
// lives in a backing ordered store (kv.Store), keyed by (level, key), so the
// list can be as durable as its store. All operations are logically
// sequential; callers must not issue overlapping mutations against the same
// list. Concurrent readers are allowed but see no snapshot guarantee while a
// mutation is in flight.
package skiplist

import (
	"context"
	"fmt"

	"github.com/metailurini/rangesync/kv"
	"github.com/metailurini/rangesync/monoid"
)

// Entry is a single key-value pair of the list.
type Entry[K, V any] struct {
	Key   K
	Value V
}

// SkipList is a monoid-labelled skip list over a backing ordered store.
type SkipList[K, V, L any] struct {
	store   kv.Store[nodeKey[K], node[V, L]]
	cmp     kv.Compare[K]
	mon     monoid.Monoid[V, L]
	cfg     Config
	rng     *levelRNG
	metrics Metrics

	// height is the number of populated levels; level height-1 always
	// holds at least one entry unless the list is empty (height 1).
	height int
	length int
}

// New returns an empty list over an in-memory node store, ordered by cmp and
// labelled by m. The comparator must define a strict total order and stay
// consistent for the lifetime of the list; violating that is undefined
// behavior, not a detected error.
func New[K, V, L any](cmp kv.Compare[K], m monoid.Monoid[V, L], opts ...Option) *SkipList[K, V, L] {
	cfg := NewConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	store := kv.NewMemory[nodeKey[K], node[V, L]](compareNodeKeys(cmp))
	return newList(store, cmp, m, cfg)
}

func newList[K, V, L any](store kv.Store[nodeKey[K], node[V, L]], cmp kv.Compare[K], m monoid.Monoid[V, L], cfg Config) *SkipList[K, V, L] {
	return &SkipList[K, V, L]{
		store:  store,
		cmp:    cmp,
		mon:    m,
		cfg:    cfg,
		rng:    newLevelRNG(cfg),
		height: 1,
	}
}

// Len returns the number of entries.
func (s *SkipList[K, V, L]) Len() int { return s.length }

// Height returns the number of populated levels.
func (s *SkipList[K, V, L]) Height() int { return s.height }

// Metrics exposes the list's operation counters.
func (s *SkipList[K, V, L]) Metrics() *Metrics { return &s.metrics }

// Get returns the value stored under key.
func (s *SkipList[K, V, L]) Get(ctx context.Context, key K) (V, bool, error) {
	s.metrics.incRead()
	rec, ok, err := s.store.Get(ctx, s.entryKey(0, key))
	if err != nil {
		var zero V
		return zero, false, err
	}
	return rec.Value, ok, nil
}

// Insert adds key with value, or replaces the value when key already exists.
// Either way every affected span label is repaired before Insert returns; a
// storage fault aborts the operation without rollback.
func (s *SkipList[K, V, L]) Insert(ctx context.Context, key K, value V) error {
	s.metrics.incRead()
	_, existed, err := s.store.Get(ctx, s.entryKey(0, key))
	if err != nil {
		return err
	}

	rec := node[V, L]{Value: value, Label: s.mon.Lift(value), Size: 1}
	if err := s.setNode(ctx, s.entryKey(0, key), rec); err != nil {
		return err
	}

	if existed {
		return s.repairAfterUpdate(ctx, key)
	}

	h := s.drawHeight(key)
	if h > s.height {
		s.height = h
	}
	s.length++

	for level := 1; level < s.height; level++ {
		if level < h {
			// The new node participates here: derive its span first
			// so the predecessor's scan stops at it.
			if err := s.recompute(ctx, level, s.entryKey(level, key)); err != nil {
				return err
			}
		}
		pred, err := s.predAt(ctx, level, key)
		if err != nil {
			return err
		}
		if err := s.recompute(ctx, level, pred); err != nil {
			return err
		}
	}
	return nil
}

// repairAfterUpdate re-derives the spans affected by an in-place value
// change. Level membership is untouched: at levels where key participates its
// own span is recomputed, above that the containing span absorbs the new
// lifted value.
func (s *SkipList[K, V, L]) repairAfterUpdate(ctx context.Context, key K) error {
	participates := true
	for level := 1; level < s.height; level++ {
		if participates {
			s.metrics.incRead()
			_, ok, err := s.store.Get(ctx, s.entryKey(level, key))
			if err != nil {
				return err
			}
			participates = ok
		}
		owner := s.entryKey(level, key)
		if !participates {
			pred, err := s.predAt(ctx, level, key)
			if err != nil {
				return err
			}
			owner = pred
		}
		if err := s.recompute(ctx, level, owner); err != nil {
			return err
		}
	}
	return nil
}

// Remove deletes key from every level it participates in and repairs the
// spans that covered it. Removing an absent key is a no-op, not an error.
func (s *SkipList[K, V, L]) Remove(ctx context.Context, key K) error {
	s.metrics.incRead()
	_, ok, err := s.store.Get(ctx, s.entryKey(0, key))
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	if err := s.deleteNode(ctx, s.entryKey(0, key)); err != nil {
		return err
	}
	for level := 1; level < s.height; level++ {
		s.metrics.incRead()
		_, ok, err := s.store.Get(ctx, s.entryKey(level, key))
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := s.deleteNode(ctx, s.entryKey(level, key)); err != nil {
			return err
		}
	}
	s.length--

	for level := 1; level < s.height; level++ {
		pred, err := s.predAt(ctx, level, key)
		if err != nil {
			return err
		}
		if err := s.recompute(ctx, level, pred); err != nil {
			return err
		}
	}

	// Drop levels left with nothing but their sentinel.
	for s.height > 1 {
		_, _, ok, err := s.firstAt(ctx, s.height-1)
		if err != nil {
			return err
		}
		if ok {
			break
		}
		if err := s.deleteNode(ctx, s.headKey(s.height-1)); err != nil {
			return err
		}
		s.height--
	}
	return nil
}

func (s *SkipList[K, V, L]) drawHeight(key K) int {
	if heightHook != nil {
		h := heightHook(key)
		if h < 1 {
			h = 1
		}
		if h > s.cfg.maxLevel {
			h = s.cfg.maxLevel
		}
		return h
	}
	return s.rng.height()
}

// recompute re-derives the span label of owner (an entry node or a level
// head) at the given level from the already-correct spans one level below.
// Combine is never inverted; a span is always rebuilt from its constituents,
// in ascending key order.
func (s *SkipList[K, V, L]) recompute(ctx context.Context, level int, owner nodeKey[K]) error {
	s.metrics.incRecompute()

	// The span ends at the next entry of this level, or at the level's end.
	var to *K
	var next K
	var ok bool
	var err error
	if owner.Kind == kindEntry {
		next, _, ok, err = s.nextAt(ctx, level, owner.Key)
	} else {
		next, _, ok, err = s.firstAt(ctx, level)
	}
	if err != nil {
		return err
	}
	if ok {
		to = &next
	}

	start := s.headKey(level - 1)
	if owner.Kind == kindEntry {
		start = s.entryKey(level-1, owner.Key)
	}
	end := s.headKey(level)
	if to != nil {
		end = s.entryKey(level-1, *to)
	}

	label := s.mon.Neutral
	size := 0
	s.metrics.incRead()
	it := s.store.List(ctx, kv.ListOptions[nodeKey[K]]{Start: &start, End: &end})
	defer it.Close()
	for it.Next() {
		rec := it.Value()
		label = s.mon.Combine(label, rec.Label)
		size += rec.Size
	}
	if err := it.Err(); err != nil {
		return err
	}

	return s.setNode(ctx, owner, node[V, L]{Label: label, Size: size})
}

// firstAt returns the first entry node at level.
func (s *SkipList[K, V, L]) firstAt(ctx context.Context, level int) (K, node[V, L], bool, error) {
	start := s.headKey(level)
	return s.scanEntry(ctx, level, start)
}

// nextAt returns the first entry node at level with key strictly after key.
func (s *SkipList[K, V, L]) nextAt(ctx context.Context, level int, key K) (K, node[V, L], bool, error) {
	start := s.entryKey(level, key)
	k, rec, ok, err := s.scanEntry(ctx, level, start)
	if err != nil || !ok {
		return k, rec, false, err
	}
	if s.cmp(k, key) == 0 {
		// The scan starts inclusively; step past the node itself.
		return s.scanPastFirst(ctx, level, start)
	}
	return k, rec, true, nil
}

func (s *SkipList[K, V, L]) scanEntry(ctx context.Context, level int, start nodeKey[K]) (K, node[V, L], bool, error) {
	var zeroK K
	var zeroN node[V, L]
	end := s.headKey(level + 1)
	s.metrics.incRead()
	it := s.store.List(ctx, kv.ListOptions[nodeKey[K]]{Start: &start, End: &end})
	defer it.Close()
	for it.Next() {
		nk := it.Key()
		if nk.Kind != kindEntry {
			continue
		}
		return nk.Key, it.Value(), true, nil
	}
	return zeroK, zeroN, false, it.Err()
}

func (s *SkipList[K, V, L]) scanPastFirst(ctx context.Context, level int, start nodeKey[K]) (K, node[V, L], bool, error) {
	var zeroK K
	var zeroN node[V, L]
	end := s.headKey(level + 1)
	s.metrics.incRead()
	it := s.store.List(ctx, kv.ListOptions[nodeKey[K]]{Start: &start, End: &end, Limit: 2})
	defer it.Close()
	skipped := false
	for it.Next() {
		if !skipped {
			skipped = true
			continue
		}
		nk := it.Key()
		if nk.Kind != kindEntry {
			continue
		}
		return nk.Key, it.Value(), true, nil
	}
	return zeroK, zeroN, false, it.Err()
}

// predAt returns the node whose span at level contains the position of key:
// the last entry node before key, or the level head.
func (s *SkipList[K, V, L]) predAt(ctx context.Context, level int, key K) (nodeKey[K], error) {
	start := s.headKey(level)
	end := s.entryKey(level, key)
	s.metrics.incRead()
	it := s.store.List(ctx, kv.ListOptions[nodeKey[K]]{Start: &start, End: &end, Reverse: true, Limit: 1})
	defer it.Close()
	if it.Next() {
		if nk := it.Key(); nk.Kind == kindEntry {
			return nk, nil
		}
	}
	if err := it.Err(); err != nil {
		return nodeKey[K]{}, err
	}
	return s.headKey(level), nil
}

// getNode loads a record. A missing head is an empty span; a missing entry
// record violates the level invariants and is reported as corruption.
func (s *SkipList[K, V, L]) getNode(ctx context.Context, nk nodeKey[K]) (node[V, L], error) {
	s.metrics.incRead()
	rec, ok, err := s.store.Get(ctx, nk)
	if err != nil {
		return rec, err
	}
	if !ok {
		if nk.Kind == kindHead {
			return node[V, L]{Label: s.mon.Neutral}, nil
		}
		return rec, fmt.Errorf("%w: missing node record at level %d", ErrCorrupt, nk.Level)
	}
	return rec, nil
}

func (s *SkipList[K, V, L]) setNode(ctx context.Context, nk nodeKey[K], rec node[V, L]) error {
	s.metrics.incWrite()
	return s.store.Set(ctx, nk, rec)
}

func (s *SkipList[K, V, L]) deleteNode(ctx context.Context, nk nodeKey[K]) error {
	s.metrics.incWrite()
	return s.store.Delete(ctx, nk)
}
