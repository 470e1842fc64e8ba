package skiplist

import (
	"context"
	"testing"
)

func mustSummarize(t *testing.T, s *SkipList[string, string, string], start, end string) (string, int) {
	t.Helper()
	sum, err := s.Summarize(context.Background(), start, end)
	if err != nil {
		t.Fatalf("Summarize(%q, %q): %v", start, end, err)
	}
	return sum.Fingerprint, sum.Size
}

func TestSummarizeLiteralExamples(t *testing.T) {
	s := newAlphabetList(t)

	// The concatenation monoid makes combine order observable.
	if fp, n := mustSummarize(t, s, "c", "a"); fp != "cdefg" || n != 5 {
		t.Fatalf(`Summarize("c","a") = %q/%d, want "cdefg"/5`, fp, n)
	}
	if fp, n := mustSummarize(t, s, "m", "z"); fp != "" || n != 0 {
		t.Fatalf(`Summarize("m","z") = %q/%d, want ""/0`, fp, n)
	}
	if fp, n := mustSummarize(t, s, "a", "z"); fp != "abcdefg" || n != 7 {
		t.Fatalf(`Summarize("a","z") = %q/%d, want "abcdefg"/7`, fp, n)
	}
}

func TestSummarizeHalfOpenBoundaries(t *testing.T) {
	s := newAlphabetList(t)

	// Start inclusive, end exclusive.
	if fp, n := mustSummarize(t, s, "b", "e"); fp != "bcd" || n != 3 {
		t.Fatalf("got %q/%d, want bcd/3", fp, n)
	}
	// Bounds between keys.
	if fp, n := mustSummarize(t, s, "bb", "ee"); fp != "cde" || n != 3 {
		t.Fatalf("got %q/%d, want cde/3", fp, n)
	}
	// Equal bounds are an empty range, not the full circle.
	if fp, n := mustSummarize(t, s, "d", "d"); fp != "" || n != 0 {
		t.Fatalf("got %q/%d, want empty", fp, n)
	}
}

func TestSummarizeCircular(t *testing.T) {
	s := newAlphabetList(t)

	// Low part combined before the high part.
	if fp, n := mustSummarize(t, s, "e", "b"); fp != "aefg" || n != 4 {
		t.Fatalf("got %q/%d, want aefg/4", fp, n)
	}
	// Wrap with an empty low part.
	if fp, n := mustSummarize(t, s, "c", "a"); fp != "cdefg" || n != 5 {
		t.Fatalf("got %q/%d, want cdefg/5", fp, n)
	}
	// Wrap with an empty high part.
	if fp, n := mustSummarize(t, s, "x", "c"); fp != "ab" || n != 2 {
		t.Fatalf("got %q/%d, want ab/2", fp, n)
	}
	// Wrap selecting everything.
	if fp, n := mustSummarize(t, s, "a", "A"); fp != "abcdefg" || n != 7 {
		t.Fatalf("got %q/%d, want abcdefg/7", fp, n)
	}
}

func TestSummarizeEmptyList(t *testing.T) {
	s := newStringList()
	if fp, n := mustSummarize(t, s, "a", "z"); fp != "" || n != 0 {
		t.Fatalf("got %q/%d, want empty", fp, n)
	}
	if fp, n := mustSummarize(t, s, "z", "a"); fp != "" || n != 0 {
		t.Fatalf("got %q/%d, want empty", fp, n)
	}
}

func TestSummarizeAgreesWithEntries(t *testing.T) {
	ctx := context.Background()
	withHeights(t, map[string]int{
		"b": 3, "d": 1, "f": 2, "h": 4, "j": 1, "l": 2, "n": 1, "p": 3,
	})
	s := newStringList()
	keys := []string{"b", "d", "f", "h", "j", "l", "n", "p"}
	for _, key := range keys {
		mustInsert(t, s, key, key)
	}

	bounds := append([]string{"a", "e", "k", "q", "zz"}, keys...)
	for _, start := range bounds {
		for _, end := range bounds {
			entries, err := s.Entries(ctx, ptr(start), ptr(end), Options{}).Collect()
			if err != nil {
				t.Fatalf("Entries(%q, %q): %v", start, end, err)
			}
			wantFP := ""
			for _, e := range entries {
				wantFP += e.Value
			}
			fp, n := mustSummarize(t, s, start, end)
			if fp != wantFP || n != len(entries) {
				t.Fatalf("Summarize(%q, %q) = %q/%d, entries say %q/%d",
					start, end, fp, n, wantFP, len(entries))
			}
		}
	}
}

func TestSummarizeIsSublinear(t *testing.T) {
	ctx := context.Background()
	s := newStringList()

	const n = 4096
	key := func(i int) string {
		// Fixed-width keys keep the lexicographic order numeric.
		const digits = "0123456789"
		return string([]byte{
			digits[i/1000%10], digits[i/100%10], digits[i/10%10], digits[i%10],
		})
	}
	for i := 0; i < n; i++ {
		mustInsert(t, s, key(i), "v")
	}

	before := s.Metrics().Snapshot()
	sum, err := s.Summarize(ctx, key(1), key(n-2))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Size != n-3 {
		t.Fatalf("Summarize size = %d, want %d", sum.Size, n-3)
	}
	after := s.Metrics().Snapshot()

	reads := after.StoreReads - before.StoreReads
	if reads >= n/4 {
		t.Fatalf("Summarize issued %d store reads over %d entries; expected a sublinear walk", reads, n)
	}
	if after.SpanJumps == before.SpanJumps {
		t.Fatalf("Summarize took no span shortcuts")
	}
}
