// Package message implements the outgoing-message lifecycle (C7): per-
// request state, single-fire completion, send-side readiness signalling,
// and the garbage-collect predicate.
package message

import (
	"context"
	"sync"

	"github.com/coreproto/tl/tl"
)

// Promise is a one-shot completion sink (spec §9 "Double-fire prevention...
// use a primitive that enforces at-most-once completion"). The settled
// value/error broadcasts to every waiter via a closed channel rather than
// a buffered send, so Wait is safe to call more than once (sendPromise is
// awaited by both the sender and any later resend check).
type Promise[T any] struct {
	mu     sync.Mutex
	done   bool
	val    T
	err    error
	doneCh chan struct{}
}

// NewPromise returns an unsettled Promise.
func NewPromise[T any]() *Promise[T] {
	return &Promise[T]{doneCh: make(chan struct{})}
}

// Resolve fulfils the promise with v. Only the first call (Resolve or
// Reject) succeeds; later calls return tl.ErrDoubleReply.
func (p *Promise[T]) Resolve(v T) error {
	return p.settle(v, nil)
}

// Reject fulfils the promise with an error.
func (p *Promise[T]) Reject(err error) error {
	var zero T
	return p.settle(zero, err)
}

func (p *Promise[T]) settle(v T, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done {
		return tl.ErrDoubleReply
	}
	p.done = true
	p.val, p.err = v, err
	close(p.doneCh)
	return nil
}

// Settled reports whether Resolve or Reject has already run.
func (p *Promise[T]) Settled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Wait blocks until the promise settles or ctx is done.
func (p *Promise[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-p.doneCh:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.val, p.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
