package message

import (
	"context"
	"errors"
	"testing"

	"github.com/coreproto/tl/tl"
)

func TestNewAllocatesResultPromiseOnlyForMethods(t *testing.T) {
	method := New("messages.getDialogs", "messages.Dialogs", true, tl.Null())
	if method.ResultPromise() == nil {
		t.Fatal("expected a resultPromise for a method")
	}

	notify := New("updateShort", "", false, tl.Null())
	if notify.ResultPromise() != nil {
		t.Fatal("expected no resultPromise for a non-method message")
	}
}

func TestContentRelatedDerivation(t *testing.T) {
	ack := New("msgs_ack", "", false, tl.Null())
	if ack.ContentRelated() {
		t.Fatal("msgs_ack should not be content-related")
	}

	req := New("messages.sendMessage", "Updates", true, tl.Null())
	if !req.ContentRelated() {
		t.Fatal("messages.sendMessage should be content-related")
	}
}

// scenario f: new -> trySend -> sent -> ack -> reply(R) ends REPLIED,
// tries=1, both promises resolved.
func TestLifecycleHappyPath(t *testing.T) {
	m := New("messages.sendMessage", "Updates", true, tl.Null())

	sendP := m.TrySend()
	if m.Tries() != 1 {
		t.Fatalf("expected tries=1 after first TrySend, got %d", m.Tries())
	}

	if err := m.Sent(); err != nil {
		t.Fatalf("Sent: %v", err)
	}
	if !m.IsSent() {
		t.Fatal("expected SENT bit set")
	}
	if _, err := sendP.Wait(context.Background()); err != nil {
		t.Fatalf("sendPromise should resolve once Sent: %v", err)
	}

	m.Ack()
	if !m.IsAcked() {
		t.Fatal("expected ACKED bit set")
	}

	result := tl.Int(42)
	if err := m.Reply(result); err != nil {
		t.Fatalf("Reply: %v", err)
	}

	if !m.IsReplied() {
		t.Fatal("expected REPLIED after Reply")
	}
	if !m.CanGarbageCollect() {
		t.Fatal("expected canGarbageCollect once REPLIED")
	}

	got, err := m.ResultPromise().Wait(context.Background())
	if err != nil {
		t.Fatalf("resultPromise.Wait: %v", err)
	}
	n, _ := got.AsInt()
	if n != 42 {
		t.Fatalf("expected result 42, got %d", n)
	}
}

// invariant 6: a single OutgoingMessage completes resultPromise at most
// once. Exercised through the public Reply/ReplyError API, not the raw
// promise, since that is the path a real caller races.
func TestResultPromiseAtMostOnce(t *testing.T) {
	m := New("messages.sendMessage", "Updates", true, tl.Null())

	if err := m.Reply(tl.Int(1)); err != nil {
		t.Fatalf("first Reply: %v", err)
	}
	if err := m.ReplyError(errors.New("rpc error")); !errors.Is(err, tl.ErrDoubleReply) {
		t.Fatalf("expected ErrDoubleReply on the second Reply, got %v", err)
	}

	v, err := m.ResultPromise().Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait after double reply: %v", err)
	}
	n, _ := v.AsInt()
	if n != 1 {
		t.Fatalf("expected the first settled value 1 to stick, got %d", n)
	}
}

// invariant 7: canGarbageCollect <-> REPLIED or no resultPromise.
func TestCanGarbageCollect(t *testing.T) {
	notify := New("updateShort", "", false, tl.Null())
	if !notify.CanGarbageCollect() {
		t.Fatal("a message with no resultPromise should always be collectible")
	}

	method := New("messages.sendMessage", "Updates", true, tl.Null())
	if method.CanGarbageCollect() {
		t.Fatal("a pending method should not be collectible")
	}
	_ = method.Reply(tl.Null())
	if !method.CanGarbageCollect() {
		t.Fatal("a replied method should be collectible")
	}
}

func TestReplyErrorRejectsResultPromise(t *testing.T) {
	m := New("messages.sendMessage", "Updates", true, tl.Null())
	rpcErr := errors.New("FLOOD_WAIT_10")

	if err := m.ReplyError(rpcErr); err != nil {
		t.Fatalf("ReplyError: %v", err)
	}

	_, err := m.ResultPromise().Wait(context.Background())
	if !errors.Is(err, rpcErr) {
		t.Fatalf("expected the rpc error to propagate, got %v", err)
	}
	if !m.IsReplied() {
		t.Fatal("expected REPLIED even on an error reply")
	}
}

func TestResetSentAllowsResend(t *testing.T) {
	m := New("messages.sendMessage", "Updates", true, tl.Null())
	m.TrySend()
	_ = m.Sent()
	if !m.IsSent() {
		t.Fatal("expected SENT before reset")
	}

	m.ResetSent()
	// ResetSent clears the timestamp bookkeeping, not the SENT state bit:
	// resend decisions live in the session loop, keyed off the timestamp.
	if !m.IsSent() {
		t.Fatal("ResetSent should not clear the SENT bit")
	}

	sendP := m.TrySend()
	if m.Tries() != 2 {
		t.Fatalf("expected tries=2 after a resend attempt, got %d", m.Tries())
	}
	if sendP.Settled() {
		t.Fatal("TrySend on an already-settled sendPromise should hand back a fresh one")
	}
}

func TestRefAccessorsMatchOutgoingMessageRef(t *testing.T) {
	m := New("messages.sendMessage", "Updates", true, tl.Null())
	if m.Constructor() != "messages.sendMessage" {
		t.Fatalf("unexpected constructor %q", m.Constructor())
	}
	if m.Type() != "Updates" {
		t.Fatalf("unexpected type %q", m.Type())
	}
}
