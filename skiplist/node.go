package skiplist

import "github.com/metailurini/rangesync/kv"

// nodeKind distinguishes the per-level head sentinel from real entry nodes.
// The head sorts before every entry of its level.
type nodeKind uint8

const (
	kindHead nodeKind = iota
	kindEntry
)

// nodeKey addresses one node-at-level record in the backing store. The store
// is shared by all levels; records are ordered by (Level, Kind, Key), so each
// level forms a contiguous run headed by its sentinel.
type nodeKey[K any] struct {
	Level int
	Kind  nodeKind
	Key   K // meaningful only when Kind == kindEntry
}

// node is the persisted record for a key at one level. Value is only
// meaningful at level 0. Label and Size form the span label: the product
// monoid over all level-0 entries from this node (inclusive) up to the next
// node at the same level (exclusive). A head's span covers everything below
// the first entry of its level; the level-0 head span is always empty and is
// never materialised.
type node[V, L any] struct {
	Value V
	Label L
	Size  int
}

func compareNodeKeys[K any](cmp kv.Compare[K]) kv.Compare[nodeKey[K]] {
	return func(a, b nodeKey[K]) int {
		if a.Level != b.Level {
			if a.Level < b.Level {
				return -1
			}
			return 1
		}
		if a.Kind != b.Kind {
			if a.Kind < b.Kind {
				return -1
			}
			return 1
		}
		if a.Kind == kindHead {
			return 0
		}
		return cmp(a.Key, b.Key)
	}
}

func (s *SkipList[K, V, L]) headKey(level int) nodeKey[K] {
	return nodeKey[K]{Level: level, Kind: kindHead}
}

func (s *SkipList[K, V, L]) entryKey(level int, key K) nodeKey[K] {
	return nodeKey[K]{Level: level, Kind: kindEntry, Key: key}
}
