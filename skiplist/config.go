package skiplist

import "errors"

const (
	// DefaultMaxLevel caps the height a node can be assigned. Heights are
	// geometric draws, so 32 levels comfortably cover any realistic entry
	// count.
	DefaultMaxLevel = 32

	// DefaultP is the level promotion probability.
	DefaultP = 0.5
)

// Config holds the tunables of a list. Both parameters affect performance
// only, never the observable contract.
type Config struct {
	maxLevel int
	p        float64
}

// NewConfig returns a Config with default values.
func NewConfig() Config {
	return Config{
		maxLevel: DefaultMaxLevel,
		p:        DefaultP,
	}
}

// Option adjusts a Config.
type Option func(*Config)

// WithMaxLevel sets the maximum node height. Values below 1 are clamped to 1.
func WithMaxLevel(maxLevel int) Option {
	return func(c *Config) {
		if maxLevel < 1 {
			maxLevel = 1
		}
		c.maxLevel = maxLevel
	}
}

// WithP sets the level promotion probability. It must be in (0, 1).
func WithP(p float64) Option {
	return func(c *Config) { c.p = p }
}

// ErrCorrupt is returned when the store is missing a node record the list's
// own invariants say must exist. It indicates external interference with the
// backing store or an interleaved writer.
var ErrCorrupt = errors.New("skiplist: corrupt level structure")
