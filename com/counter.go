package com

import "sync/atomic"

// Counter is a simple atomic counter that in addition to its current value also
// keeps track of the total number of increments it has ever seen.
type Counter struct {
	current atomic.Uint64
	total   atomic.Uint64
}

// Add adds delta to both the current value and the total.
func (c *Counter) Add(delta uint64) {
	c.current.Add(delta)
	c.total.Add(delta)
}

// Inc adds 1 to both the current value and the total.
func (c *Counter) Inc() {
	c.Add(1)
}

// Val returns the current value.
func (c *Counter) Val() uint64 {
	return c.current.Load()
}

// Total returns the total of all values ever added, regardless of Reset calls.
func (c *Counter) Total() uint64 {
	return c.total.Load()
}

// Reset sets the current value back to zero and returns the value it had before.
func (c *Counter) Reset() uint64 {
	return c.current.Swap(0)
}
