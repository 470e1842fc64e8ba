package skiplist

import (
	"context"

	"github.com/metailurini/rangesync/monoid"
)

// Summarize combines the lifted values of every entry selected by [start, end)
// into a single fingerprint and count, in ascending key order, without
// visiting each entry when whole spans can be consumed instead.
//
// When start > end the range is circular (k < end or k >= start); the low
// part is combined before the high part, preserving ascending order. An empty
// range yields {Neutral, 0}.
func (s *SkipList[K, V, L]) Summarize(ctx context.Context, start, end K) (monoid.Summary[L], error) {
	switch c := s.cmp(start, end); {
	case c == 0:
		return monoid.Summary[L]{Fingerprint: s.mon.Neutral}, nil
	case c < 0:
		return s.accumulate(ctx, &start, &end)
	default:
		low, err := s.accumulate(ctx, nil, &end)
		if err != nil {
			return monoid.Summary[L]{}, err
		}
		high, err := s.accumulate(ctx, &start, nil)
		if err != nil {
			return monoid.Summary[L]{}, err
		}
		return monoid.Summary[L]{
			Fingerprint: s.mon.Combine(low.Fingerprint, high.Fingerprint),
			Size:        low.Size + high.Size,
		}, nil
	}
}

// accumulate runs the shortcut walk over one ascending stretch [lo, hi), nil
// meaning open. At each step it takes the highest span that fits entirely
// inside the remaining range and jumps past it; when no span fits it falls
// back to the single level-0 entry at the cursor.
func (s *SkipList[K, V, L]) accumulate(ctx context.Context, lo, hi *K) (monoid.Summary[L], error) {
	sum := monoid.Summary[L]{Fingerprint: s.mon.Neutral}

	var pos K
	atHead := true
	if lo != nil {
		k, ok, err := s.firstGE(ctx, *lo)
		if err != nil {
			return sum, err
		}
		if !ok || (hi != nil && s.cmp(k, *hi) >= 0) {
			return sum, nil
		}
		pos = k
		atHead = false
	}

	for {
		if atHead {
			next, ok, err := s.stepFromHead(ctx, hi, &sum)
			if err != nil {
				return sum, err
			}
			if !ok {
				return sum, nil
			}
			pos = next
			atHead = false
			continue
		}

		// pos is an entry inside the range, not yet accumulated.
		next, ok, err := s.stepFromEntry(ctx, pos, hi, &sum)
		if err != nil {
			return sum, err
		}
		if !ok {
			return sum, nil
		}
		pos = next
	}
}

// stepFromHead consumes the highest head span that fits below hi and returns
// the entry the cursor lands on. ok=false means the stretch is fully
// accumulated (or holds no entries at all).
func (s *SkipList[K, V, L]) stepFromHead(ctx context.Context, hi *K, sum *monoid.Summary[L]) (K, bool, error) {
	var zero K
	for level := s.height - 1; level >= 0; level-- {
		first, _, ok, err := s.firstAt(ctx, level)
		if err != nil {
			return zero, false, err
		}
		if !ok {
			// Level is empty: its head span covers the entire key
			// space, usable only for an unbounded stretch.
			if hi != nil {
				continue
			}
			if level > 0 {
				rec, err := s.getNode(ctx, s.headKey(level))
				if err != nil {
					return zero, false, err
				}
				s.combineInto(sum, rec)
				s.metrics.incSpanJump()
			}
			return zero, false, nil
		}
		// The head span covers every entry below first.
		if hi != nil && s.cmp(first, *hi) > 0 {
			continue
		}
		if level > 0 {
			rec, err := s.getNode(ctx, s.headKey(level))
			if err != nil {
				return zero, false, err
			}
			s.combineInto(sum, rec)
			s.metrics.incSpanJump()
		}
		if hi != nil && s.cmp(first, *hi) >= 0 {
			return zero, false, nil
		}
		return first, true, nil
	}
	// Even level 0 was unusable: no entry below hi.
	return zero, false, nil
}

// stepFromEntry consumes the highest span owned by pos that fits below hi,
// falling back to pos's own level-0 entry, and returns the next cursor
// position. ok=false means the stretch is fully accumulated.
func (s *SkipList[K, V, L]) stepFromEntry(ctx context.Context, pos K, hi *K, sum *monoid.Summary[L]) (K, bool, error) {
	var zero K
	height, err := s.nodeHeight(ctx, pos)
	if err != nil {
		return zero, false, err
	}
	for level := height - 1; level >= 1; level-- {
		next, _, ok, err := s.nextAt(ctx, level, pos)
		if err != nil {
			return zero, false, err
		}
		if ok {
			if hi != nil && s.cmp(next, *hi) > 0 {
				continue
			}
		} else if hi != nil {
			continue
		}
		// Span [pos, next) fits inside the range; take it whole.
		rec, err := s.getNode(ctx, s.entryKey(level, pos))
		if err != nil {
			return zero, false, err
		}
		s.combineInto(sum, rec)
		s.metrics.incSpanJump()
		if !ok || (hi != nil && s.cmp(next, *hi) >= 0) {
			return zero, false, nil
		}
		return next, true, nil
	}

	// Resolve the boundary exactly: the level-0 span is the entry itself.
	rec, err := s.getNode(ctx, s.entryKey(0, pos))
	if err != nil {
		return zero, false, err
	}
	s.combineInto(sum, rec)
	next, _, ok, err := s.nextAt(ctx, 0, pos)
	if err != nil {
		return zero, false, err
	}
	if !ok || (hi != nil && s.cmp(next, *hi) >= 0) {
		return zero, false, nil
	}
	return next, true, nil
}

func (s *SkipList[K, V, L]) combineInto(sum *monoid.Summary[L], rec node[V, L]) {
	sum.Fingerprint = s.mon.Combine(sum.Fingerprint, rec.Label)
	sum.Size += rec.Size
}

// nodeHeight returns the number of levels pos participates in. Heights are
// contiguous from level 0, so probing upward until the first miss suffices.
func (s *SkipList[K, V, L]) nodeHeight(ctx context.Context, pos K) (int, error) {
	h := 1
	for h < s.height {
		s.metrics.incRead()
		_, ok, err := s.store.Get(ctx, s.entryKey(h, pos))
		if err != nil {
			return 0, err
		}
		if !ok {
			break
		}
		h++
	}
	return h, nil
}

// firstGE returns the first level-0 entry with key >= lo.
func (s *SkipList[K, V, L]) firstGE(ctx context.Context, lo K) (K, bool, error) {
	k, _, ok, err := s.scanEntry(ctx, 0, s.entryKey(0, lo))
	return k, ok, err
}
