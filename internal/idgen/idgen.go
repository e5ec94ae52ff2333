// Package idgen provides id generation as an explicit, injectable object
// instead of process-wide hidden state. A seeded generator produces a
// deterministic "prefix-N" sequence, which is what tests and recorded runs
// rely on; an unseeded generator produces UUIDs.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces unique string ids. The zero value is not usable; use
// NewSequential or NewRandom.
type Generator struct {
	prefix string
	next   atomic.Uint64
	random bool
}

// NewSequential returns a generator yielding "<prefix>-<n>" with n counting
// up from start. Two generators built with the same arguments yield the
// same sequence.
func NewSequential(prefix string, start uint64) *Generator {
	g := &Generator{prefix: prefix}
	g.next.Store(start)
	return g
}

// NewRandom returns a generator backed by UUIDv4.
func NewRandom() *Generator {
	return &Generator{random: true}
}

// Next returns the next id. Safe for concurrent use.
func (g *Generator) Next() string {
	if g.random {
		return uuid.NewString()
	}
	n := g.next.Add(1) - 1
	return fmt.Sprintf("%s-%d", g.prefix, n)
}
