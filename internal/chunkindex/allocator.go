// Package chunkindex hands out the ordering ids stamped on emitted batches.
package chunkindex

import "sync/atomic"

// Allocator reserves contiguous ranges of chunk indices.
//
// Reserve(k) returns start such that [start, start+k) belongs to the caller alone.
type Allocator interface {
	Reserve(count uint64) uint64
}

// Counter is a lock free Allocator backed by a single atomic fetch-and-add.
type Counter struct {
	next atomic.Uint64
}

var _ Allocator = (*Counter)(nil)

// NewCounter returns a Counter whose first reservation starts at base.
func NewCounter(base uint64) *Counter {
	c := &Counter{}
	c.next.Store(base)
	return c
}

func (c *Counter) Reserve(count uint64) uint64 {
	return c.next.Add(count) - count
}

// Peek returns the index the next reservation will start at.
func (c *Counter) Peek() uint64 {
	return c.next.Load()
}

var global Counter

// Global returns the process wide counter shared by every source that was not
// given its own allocator.
func Global() Allocator {
	return &global
}
