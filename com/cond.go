package com

import (
	"context"
	"sync"
)

// Cond is a broadcast-once condition variable built on channels instead of the usual
// lock/wait/signal trio, so that it can be selected on alongside other channels.
//
// Each call to Broadcast() closes the channel previously returned by Wait(), waking up
// everyone blocked on it, and arms a new one for the next round. Close() (or the context
// passed to NewCond being done) permanently closes the channel returned by Done().
type Cond struct {
	mu    sync.Mutex
	ready chan struct{}

	done     chan struct{}
	doneOnce sync.Once
}

// NewCond returns a new Cond that is also closed once ctx is done.
func NewCond(ctx context.Context) *Cond {
	c := &Cond{
		ready: make(chan struct{}),
		done:  make(chan struct{}),
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-c.done:
		}
	}()

	return c
}

// Wait returns a channel that is closed by the next call to Broadcast().
func (c *Cond) Wait() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ready
}

// Broadcast wakes up everyone currently blocked on a channel obtained from Wait()
// and arms a new one for the next round.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	old := c.ready
	c.ready = make(chan struct{})
	c.mu.Unlock()

	close(old)
}

// Done returns a channel that is closed once Close() is called or the context
// passed to NewCond is done, whichever happens first.
func (c *Cond) Done() <-chan struct{} {
	return c.done
}

// Close permanently closes the channel returned by Done(). It never errors.
func (c *Cond) Close() error {
	c.doneOnce.Do(func() {
		close(c.done)
	})

	return nil
}
