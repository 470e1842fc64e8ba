package skiplist

import "sync/atomic"

// Metrics counts backing-store traffic and label maintenance work. Mutations
// are single-writer but readers may poll concurrently, hence the atomics.
type Metrics struct {
	storeReads  atomic.Int64
	storeWrites atomic.Int64
	recomputes  atomic.Int64
	spanJumps   atomic.Int64
}

// Stats is a point-in-time snapshot of a Metrics.
type Stats struct {
	// StoreReads counts point gets and scans issued to the backing store.
	StoreReads int64
	// StoreWrites counts sets and deletes issued to the backing store.
	StoreWrites int64
	// Recomputes counts span labels re-derived after a mutation.
	Recomputes int64
	// SpanJumps counts whole spans consumed by Summarize without
	// descending, i.e. the sublinear shortcuts taken.
	SpanJumps int64
}

func (m *Metrics) incRead()      { m.storeReads.Add(1) }
func (m *Metrics) incWrite()     { m.storeWrites.Add(1) }
func (m *Metrics) incRecompute() { m.recomputes.Add(1) }
func (m *Metrics) incSpanJump()  { m.spanJumps.Add(1) }

// Snapshot returns the current counter values.
func (m *Metrics) Snapshot() Stats {
	return Stats{
		StoreReads:  m.storeReads.Load(),
		StoreWrites: m.storeWrites.Load(),
		Recomputes:  m.recomputes.Load(),
		SpanJumps:   m.spanJumps.Load(),
	}
}
