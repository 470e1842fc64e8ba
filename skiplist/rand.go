package skiplist

import (
	"math/bits"
	"time"
)

const defaultSeed = uint64(0xdeadbeefcafebabe)

const float64Unit = 1.0 / (1 << 53)

// levelRNG draws node heights. The list is single-writer, so the generator
// keeps plain state with no synchronization.
type levelRNG struct {
	state    uint64
	maxLevel int
	p        float64
}

func newLevelRNG(cfg Config) *levelRNG {
	seed := uint64(time.Now().UnixNano())
	if seed == 0 {
		seed = defaultSeed
	}
	return &levelRNG{
		state:    seed,
		maxLevel: cfg.maxLevel,
		p:        cfg.p,
	}
}

func (r *levelRNG) next() uint64 {
	x := r.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	if x == 0 {
		x = defaultSeed
	}
	r.state = x
	return x * 2685821657736338717
}

// height returns a geometric draw in [1, maxLevel].
func (r *levelRNG) height() int {
	if r.maxLevel <= 1 {
		return 1
	}

	if r.p == 0.5 {
		h := bits.TrailingZeros64(r.next()) + 1
		if h > r.maxLevel {
			return r.maxLevel
		}
		return h
	}

	h := 1
	for h < r.maxLevel {
		f := float64(r.next()>>11) * float64Unit
		if f >= r.p {
			break
		}
		h++
	}
	return h
}
