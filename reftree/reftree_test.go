package reftree_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metailurini/rangesync/monoid"
	"github.com/metailurini/rangesync/reftree"
)

func newTree(t *testing.T, keys ...string) *reftree.Tree[string, string, string] {
	t.Helper()
	tr := reftree.New[string, string, string](strings.Compare, monoid.Concat())
	for _, k := range keys {
		tr.Insert(k, k)
	}
	return tr
}

func keysOf(entries []reftree.Entry[string, string]) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func TestTreeBasicOps(t *testing.T) {
	tr := newTree(t, "c", "a", "b")

	v, ok := tr.Get("b")
	require.True(t, ok)
	require.Equal(t, "b", v)

	tr.Insert("b", "B")
	v, ok = tr.Get("b")
	require.True(t, ok)
	require.Equal(t, "B", v)
	require.Equal(t, 3, tr.Len())

	tr.Remove("b")
	tr.Remove("missing")
	_, ok = tr.Get("b")
	require.False(t, ok)
	require.Equal(t, 2, tr.Len())
}

func TestTreeEntries(t *testing.T) {
	tr := newTree(t, "a", "b", "c", "d", "e")

	require.Equal(t, []string{"a", "b", "c", "d", "e"}, keysOf(tr.AllEntries()))

	b, d := "b", "d"
	require.Equal(t, []string{"b", "c"}, keysOf(tr.Entries(&b, &d, reftree.Options{})))

	// Wrapping range, ascending low part first.
	require.Equal(t, []string{"a", "d", "e"}, keysOf(tr.Entries(&d, &b, reftree.Options{})))

	// Reverse walks the selection backwards, then the limit applies.
	require.Equal(t, []string{"e", "d", "a"}, keysOf(tr.Entries(&d, &b, reftree.Options{Reverse: true})))
	require.Equal(t, []string{"e", "d"}, keysOf(tr.Entries(&d, &b, reftree.Options{Reverse: true, Limit: 2})))

	// Equal bounds select nothing.
	require.Empty(t, tr.Entries(&b, &b, reftree.Options{}))
}

func TestTreeSummarize(t *testing.T) {
	tr := newTree(t, "a", "b", "c", "d", "e")

	sum := tr.Summarize("b", "e")
	require.Equal(t, "bcd", sum.Fingerprint)
	require.Equal(t, 3, sum.Size)

	// Wrap combines the low part before the high part.
	sum = tr.Summarize("d", "b")
	require.Equal(t, "ade", sum.Fingerprint)
	require.Equal(t, 3, sum.Size)

	sum = tr.Summarize("c", "c")
	require.Equal(t, "", sum.Fingerprint)
	require.Zero(t, sum.Size)
}
