package kv_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/metailurini/rangesync/kv"
)

func openTestSQLite(t *testing.T) *kv.SQLite {
	t.Helper()
	s, err := kv.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestSQLiteBasicOps(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)

	_, ok, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Set(ctx, []byte("a"), []byte("1")))
	require.NoError(t, s.Set(ctx, []byte("b"), []byte("2")))
	require.NoError(t, s.Set(ctx, []byte("a"), []byte("10")))

	v, ok, err := s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("10"), v)

	require.NoError(t, s.Delete(ctx, []byte("a")))
	require.NoError(t, s.Delete(ctx, []byte("missing")))
	_, ok, err = s.Get(ctx, []byte("a"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Clear(ctx))
	all := drain(t, s.List(ctx, kv.ListOptions[[]byte]{}))
	require.Empty(t, all)
}

func TestSQLiteListOrderAndBounds(t *testing.T) {
	ctx := context.Background()
	s := openTestSQLite(t)
	for i := 9; i >= 0; i-- {
		k := []byte(fmt.Sprintf("k%d", i))
		require.NoError(t, s.Set(ctx, k, []byte{byte(i)}))
	}

	all := drain(t, s.List(ctx, kv.ListOptions[[]byte]{}))
	require.Len(t, all, 10)
	for i, p := range all {
		require.Equal(t, fmt.Sprintf("k%d", i), string(p.Key))
	}

	start, end := []byte("k3"), []byte("k7")
	bounded := drain(t, s.List(ctx, kv.ListOptions[[]byte]{Start: &start, End: &end}))
	require.Equal(t, [][]byte{[]byte("k3"), []byte("k4"), []byte("k5"), []byte("k6")}, keysOf(bounded))

	rev := drain(t, s.List(ctx, kv.ListOptions[[]byte]{Start: &start, End: &end, Reverse: true, Limit: 2}))
	require.Equal(t, [][]byte{[]byte("k6"), []byte("k5")}, keysOf(rev))
}

func TestSQLitePersistsAcrossOpens(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := kv.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, []byte("k"), []byte("v")))
	require.NoError(t, s.Close())

	s, err = kv.OpenSQLite(path)
	require.NoError(t, err)
	defer s.Close()
	v, ok, err := s.Get(ctx, []byte("k"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("v"), v)
}
