package callback

import (
	"testing"

	"github.com/coreproto/tl/tl"
)

func TestConstructorAccumulatesNewestFirst(t *testing.T) {
	r := New()
	var order []string

	b := NewBuilder()
	b.OnConstructor("message", func(v tl.Value) (AsyncHook, error) {
		order = append(order, "first")
		return nil, nil
	})
	b.OnConstructor("message", func(v tl.Value) (AsyncHook, error) {
		order = append(order, "second")
		return nil, nil
	})
	r.UpdateCallbacks(b)

	for _, fn := range r.Constructor("message") {
		fn(tl.Null())
	}

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("expected newest-first order, got %v", order)
	}
}

func TestTypeMismatchIsSingleValued(t *testing.T) {
	r := New()
	b := NewBuilder()
	b.OnTypeMismatch("InputPeer", func(target string, v tl.Value) (tl.Value, error) {
		return tl.Int(1), nil
	})
	b.OnTypeMismatch("InputPeer", func(target string, v tl.Value) (tl.Value, error) {
		return tl.Int(2), nil
	})
	r.UpdateCallbacks(b)

	fn, ok := r.TypeMismatch("InputPeer")
	if !ok {
		t.Fatal("expected a registered hook")
	}
	got, _ := fn("InputPeer", tl.Null())
	n, _ := got.AsInt()
	if n != 2 {
		t.Fatalf("expected last-writer-wins value 2, got %d", n)
	}
}

func TestUpdateCallbacksRebuildsWholesale(t *testing.T) {
	r := New()
	b1 := NewBuilder()
	b1.OnConstructor("a", func(v tl.Value) (AsyncHook, error) { return nil, nil })
	r.UpdateCallbacks(b1)

	if len(r.Constructor("a")) != 1 {
		t.Fatal("expected one registered callback")
	}

	b2 := NewBuilder()
	r.UpdateCallbacks(b2)

	if len(r.Constructor("a")) != 0 {
		t.Fatal("expected rebuild to drop the prior registration")
	}
}
