package skiplist

// Test hooks (kept separate so instrumentation doesn't clutter logic).
var (
	// heightHook overrides the random height draw for new keys, letting
	// tests pin the exact layer shape. Results are clamped to
	// [1, maxLevel].
	heightHook func(key any) int
)
