package com

import (
	"context"
	"time"
)

// bulkIdleTimeout is how long Bulk waits for another item before flushing
// whatever it has accumulated so far, even if count hasn't been reached.
const bulkIdleTimeout = 200 * time.Millisecond

// BulkChunkSplitPolicy decides, for a given item about to be added to the current chunk,
// whether that chunk should be flushed first so that the item starts a new one.
type BulkChunkSplitPolicy[T any] func(T) bool

// BulkChunkSplitPolicyFactory creates a new BulkChunkSplitPolicy for each call to Bulk,
// allowing the policy to carry state private to one Bulk invocation.
type BulkChunkSplitPolicyFactory[T any] func() BulkChunkSplitPolicy[T]

// NeverSplit is a BulkChunkSplitPolicyFactory that never requests an early split.
func NeverSplit[T any]() BulkChunkSplitPolicy[T] {
	return func(T) bool {
		return false
	}
}

// Bulk reads single items from ch and groups them into chunks of up to count items each,
// streaming the chunks into the returned channel. A non-positive count is treated as 1.
//
// A chunk is flushed early, before reaching count items, if spf's policy requests a split
// before the next item, or if no new item arrives within bulkIdleTimeout. The returned
// channel is closed once ch is closed (after flushing a final, possibly partial chunk) or
// once ctx is done (after flushing whatever has been accumulated so far).
func Bulk[T any](ctx context.Context, ch <-chan T, count int, spf BulkChunkSplitPolicyFactory[T]) <-chan []T {
	if count <= 0 {
		count = 1
	}

	out := make(chan []T)
	splitPolicy := spf()

	go func() {
		defer close(out)

		buf := make([]T, 0, count)

		timer := time.NewTimer(bulkIdleTimeout)
		defer timer.Stop()

		resetTimer := func() {
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(bulkIdleTimeout)
		}

		// flush sends the current buffer, if non-empty, on out. It returns false if ctx was
		// done before the send could complete, in which case the caller must stop.
		flush := func() bool {
			if len(buf) == 0 {
				return true
			}

			chunk := buf
			buf = make([]T, 0, count)

			select {
			case out <- chunk:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for {
			select {
			case v, ok := <-ch:
				if !ok {
					flush()
					return
				}

				if len(buf) > 0 && splitPolicy(v) {
					if !flush() {
						return
					}
				}

				buf = append(buf, v)

				if len(buf) >= count {
					if !flush() {
						return
					}
				}

				resetTimer()
			case <-timer.C:
				if !flush() {
					return
				}

				resetTimer()
			case <-ctx.Done():
				flush()
				return
			}
		}
	}()

	return out
}
