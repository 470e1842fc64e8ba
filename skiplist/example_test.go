package skiplist_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/metailurini/rangesync/monoid"
	"github.com/metailurini/rangesync/skiplist"
)

func ExampleSkipList_Insert() {
	ctx := context.Background()
	s := skiplist.New[string, string, string](strings.Compare, monoid.Concat())
	s.Insert(ctx, "a", "one")
	s.Insert(ctx, "b", "two")
	fmt.Println(s.Len())
	// Output: 2
}

func ExampleSkipList_Get() {
	ctx := context.Background()
	s := skiplist.New[string, string, string](strings.Compare, monoid.Concat())
	s.Insert(ctx, "a", "one")
	val, ok, _ := s.Get(ctx, "a")
	fmt.Printf("%s %t\n", val, ok)
	// Output: one true
}

func ExampleSkipList_Summarize() {
	ctx := context.Background()
	s := skiplist.New[string, string, string](strings.Compare, monoid.Concat())
	for _, k := range []string{"a", "b", "c", "d"} {
		s.Insert(ctx, k, k)
	}
	sum, _ := s.Summarize(ctx, "b", "d")
	fmt.Printf("%s %d\n", sum.Fingerprint, sum.Size)

	// A start past the end wraps around the key space.
	sum, _ = s.Summarize(ctx, "c", "b")
	fmt.Printf("%s %d\n", sum.Fingerprint, sum.Size)
	// Output:
	// bc 2
	// acd 3
}

func ExampleSkipList_Entries() {
	ctx := context.Background()
	s := skiplist.New[string, string, string](strings.Compare, monoid.Concat())
	for _, k := range []string{"c", "a", "b"} {
		s.Insert(ctx, k, strings.ToUpper(k))
	}
	it := s.AllEntries(ctx)
	defer it.Close()
	for it.Next() {
		fmt.Printf("%s:%s ", it.Key(), it.Value())
	}
	fmt.Println()
	// Output: a:A b:B c:C
}
