package message

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coreproto/tl/tl"
)

func TestPromiseResolveThenWait(t *testing.T) {
	p := NewPromise[int]()
	if err := p.Resolve(7); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	v, err := p.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if v != 7 {
		t.Fatalf("expected 7, got %d", v)
	}
}

func TestPromiseDoubleReplyRejected(t *testing.T) {
	p := NewPromise[int]()
	if err := p.Resolve(1); err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	if err := p.Resolve(2); !errors.Is(err, tl.ErrDoubleReply) {
		t.Fatalf("expected ErrDoubleReply, got %v", err)
	}
	if err := p.Reject(errors.New("boom")); !errors.Is(err, tl.ErrDoubleReply) {
		t.Fatalf("expected ErrDoubleReply on late Reject, got %v", err)
	}

	v, err := p.Wait(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("expected the first settled value to stick, got (%d, %v)", v, err)
	}
}

func TestPromiseMultipleWaiters(t *testing.T) {
	p := NewPromise[string]()
	const n = 5

	var wg sync.WaitGroup
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := p.Wait(context.Background())
			if err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			results[i] = v
		}(i)
	}

	time.Sleep(10 * time.Millisecond)
	if err := p.Resolve("done"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	wg.Wait()

	for i, v := range results {
		if v != "done" {
			t.Fatalf("waiter %d saw %q, want %q", i, v, "done")
		}
	}
}

func TestPromiseWaitRespectsContext(t *testing.T) {
	p := NewPromise[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := p.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestPromiseSettled(t *testing.T) {
	p := NewPromise[int]()
	if p.Settled() {
		t.Fatal("expected unsettled promise")
	}
	_ = p.Resolve(1)
	if !p.Settled() {
		t.Fatal("expected settled promise after Resolve")
	}
}
