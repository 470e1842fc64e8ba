package skiplist

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"

	"github.com/metailurini/rangesync/kv"
	"github.com/metailurini/rangesync/monoid"
)

// Open builds a byte-keyed list on top of a raw ordered byte store such as
// kv.SQLite. Node records are encoded under an order-preserving key scheme
// (level, kind, key), so the raw store's lexicographic order matches the
// list's level-major order. The list height and entry count are recovered
// from whatever the store already holds, letting a list resume a previous
// session.
//
// The store must be dedicated to one list; foreign keys in it are undefined
// behavior.
func Open(ctx context.Context, raw kv.Store[[]byte, []byte], m monoid.Monoid[[]byte, []byte], opts ...Option) (*SkipList[[]byte, []byte, []byte], error) {
	cfg := NewConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.maxLevel > 255 {
		// The key scheme spends one byte on the level.
		cfg.maxLevel = 255
	}

	s := newList[[]byte, []byte, []byte](&codedStore{raw: raw}, bytes.Compare, m, cfg)

	// The highest record in store order belongs to the topmost level.
	it := s.store.List(ctx, kv.ListOptions[nodeKey[[]byte]]{Reverse: true, Limit: 1})
	if it.Next() {
		s.height = it.Key().Level + 1
	}
	if err := it.Err(); err != nil {
		it.Close()
		return nil, err
	}
	it.Close()

	// Spans at the top level partition all entries, so their sizes sum to
	// the entry count.
	start := s.headKey(s.height - 1)
	end := s.headKey(s.height)
	top := s.store.List(ctx, kv.ListOptions[nodeKey[[]byte]]{Start: &start, End: &end})
	defer top.Close()
	for top.Next() {
		s.length += top.Value().Size
	}
	if err := top.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// codedStore adapts a raw byte store to the node store the list works with.
type codedStore struct {
	raw kv.Store[[]byte, []byte]
}

var _ kv.Store[nodeKey[[]byte], node[[]byte, []byte]] = (*codedStore)(nil)

func encodeNodeKey(nk nodeKey[[]byte]) []byte {
	buf := make([]byte, 0, 2+len(nk.Key))
	buf = append(buf, byte(nk.Level), byte(nk.Kind))
	if nk.Kind == kindEntry {
		buf = append(buf, nk.Key...)
	}
	return buf
}

func decodeNodeKey(b []byte) (nodeKey[[]byte], error) {
	if len(b) < 2 {
		return nodeKey[[]byte]{}, fmt.Errorf("%w: truncated node key", ErrCorrupt)
	}
	nk := nodeKey[[]byte]{Level: int(b[0]), Kind: nodeKind(b[1])}
	if nk.Kind == kindEntry {
		nk.Key = bytes.Clone(b[2:])
	}
	return nk, nil
}

func encodeNode(rec node[[]byte, []byte]) []byte {
	buf := binary.AppendUvarint(nil, uint64(rec.Size))
	buf = binary.AppendUvarint(buf, uint64(len(rec.Label)))
	buf = append(buf, rec.Label...)
	buf = append(buf, rec.Value...)
	return buf
}

func decodeNode(b []byte) (node[[]byte, []byte], error) {
	var rec node[[]byte, []byte]
	size, n := binary.Uvarint(b)
	if n <= 0 {
		return rec, fmt.Errorf("%w: truncated node record", ErrCorrupt)
	}
	b = b[n:]
	labelLen, n := binary.Uvarint(b)
	if n <= 0 || uint64(len(b[n:])) < labelLen {
		return rec, fmt.Errorf("%w: truncated node label", ErrCorrupt)
	}
	b = b[n:]
	rec.Size = int(size)
	rec.Label = bytes.Clone(b[:labelLen])
	rec.Value = bytes.Clone(b[labelLen:])
	return rec, nil
}

func (c *codedStore) Get(ctx context.Context, nk nodeKey[[]byte]) (node[[]byte, []byte], bool, error) {
	raw, ok, err := c.raw.Get(ctx, encodeNodeKey(nk))
	if err != nil || !ok {
		return node[[]byte, []byte]{}, false, err
	}
	rec, err := decodeNode(raw)
	if err != nil {
		return rec, false, err
	}
	return rec, true, nil
}

func (c *codedStore) Set(ctx context.Context, nk nodeKey[[]byte], rec node[[]byte, []byte]) error {
	return c.raw.Set(ctx, encodeNodeKey(nk), encodeNode(rec))
}

func (c *codedStore) Delete(ctx context.Context, nk nodeKey[[]byte]) error {
	return c.raw.Delete(ctx, encodeNodeKey(nk))
}

func (c *codedStore) Clear(ctx context.Context) error {
	return c.raw.Clear(ctx)
}

func (c *codedStore) List(ctx context.Context, opts kv.ListOptions[nodeKey[[]byte]]) kv.Iterator[nodeKey[[]byte], node[[]byte, []byte]] {
	raw := kv.ListOptions[[]byte]{Reverse: opts.Reverse, Limit: opts.Limit}
	if opts.Start != nil {
		k := encodeNodeKey(*opts.Start)
		raw.Start = &k
	}
	if opts.End != nil {
		k := encodeNodeKey(*opts.End)
		raw.End = &k
	}
	return &codedIterator{inner: c.raw.List(ctx, raw)}
}

type codedIterator struct {
	inner kv.Iterator[[]byte, []byte]
	key   nodeKey[[]byte]
	rec   node[[]byte, []byte]
	err   error
}

func (it *codedIterator) Next() bool {
	if it.err != nil || !it.inner.Next() {
		return false
	}
	it.key, it.err = decodeNodeKey(it.inner.Key())
	if it.err != nil {
		return false
	}
	it.rec, it.err = decodeNode(it.inner.Value())
	return it.err == nil
}

func (it *codedIterator) Key() nodeKey[[]byte]        { return it.key }
func (it *codedIterator) Value() node[[]byte, []byte] { return it.rec }
func (it *codedIterator) Close() error                { return it.inner.Close() }

func (it *codedIterator) Err() error {
	if it.err != nil {
		return it.err
	}
	return it.inner.Err()
}
