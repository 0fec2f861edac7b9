package codec

import (
	"encoding/hex"
	"log"
	"testing"

	"github.com/coreproto/tl/schema"
	"github.com/coreproto/tl/tl"
)

// newTestCodec loads a tiny fixture schema (just enough for these tests)
// into a fresh Registry and wraps it in a Codec with no collaborators.
func newTestCodec(t *testing.T, extraDecls ...string) *Codec {
	t.Helper()

	source := `
---types---
inputPeerUser user_id:long access_hash:long = InputPeer;
inputPeerEmpty = InputPeer;
`
	for _, d := range extraDecls {
		source += d + "\n"
	}

	entries, err := schema.ParseTL(source, schema.OriginMTProto)
	if err != nil {
		t.Fatalf("ParseTL: %v", err)
	}

	reg := schema.New(log.Default())
	for _, e := range entries {
		if err := reg.AddEntry(e); err != nil {
			t.Fatalf("AddEntry %s: %v", e.Name, err)
		}
	}

	return New(reg, nil, Collaborators{})
}

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("hex decode %q: %v", s, err)
	}
	return b
}

// scenario a: int encodes little-endian.
func TestSerializeInt(t *testing.T) {
	c := newTestCodec(t)
	got, err := c.Serialize(TypeCtx{Type: "int"}, tl.Int(1), "n")
	if err != nil {
		t.Fatal(err)
	}
	want := hexBytes(t, "01000000")
	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

// scenario b: string "abc" -> length byte then bytes, already 4-aligned.
func TestSerializeString(t *testing.T) {
	c := newTestCodec(t)
	got, err := c.Serialize(TypeCtx{Type: "string"}, tl.Str("abc"), "s")
	if err != nil {
		t.Fatal(err)
	}
	want := hexBytes(t, "03616263")
	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

// scenario c: 14 bytes of 0xAA pads one zero byte to reach a 16-byte
// (4-aligned) total.
func TestSerializeBytesPadding(t *testing.T) {
	c := newTestCodec(t)
	payload := make([]byte, 14)
	for i := range payload {
		payload[i] = 0xAA
	}

	got, err := c.Serialize(TypeCtx{Type: "bytes"}, tl.Bytes(payload), "b")
	if err != nil {
		t.Fatal(err)
	}

	want := append([]byte{0x0E}, payload...)
	want = append(want, 0x00)

	if hex.EncodeToString(got) != hex.EncodeToString(want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

// scenario d: inputPeerUser round-trips through serialize then deserialize.
func TestInputPeerUserRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	rec := tl.NewRecord("inputPeerUser")
	rec.Set("user_id", tl.Long(12345))
	rec.Set("access_hash", tl.Long(-987654321))

	wire, err := c.Serialize(TypeCtx{Type: "InputPeer"}, tl.Rec(rec), "peer")
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	entry, ok := c.Registry.FindByPredicate("inputPeerUser", -1)
	if !ok {
		t.Fatal("fixture entry missing")
	}
	wantID := hex.EncodeToString(entry.ID[:])
	if hex.EncodeToString(wire[:4]) != wantID {
		t.Fatalf("leading id %x, want %x", wire[:4], entry.ID)
	}

	decoded, _, consumed, err := c.Deserialize(wire, TypeCtx{Type: "InputPeer"})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed %d of %d bytes", consumed, len(wire))
	}

	drec, ok := decoded.AsRecord()
	if !ok || drec.Predicate != "inputPeerUser" {
		t.Fatalf("expected an inputPeerUser record, got %+v", decoded)
	}
	uid, _ := drec.Get("user_id")
	n, _ := uid.AsLong()
	if n != 12345 {
		t.Fatalf("user_id round-trip: got %d, want 12345", n)
	}
	ah, _ := drec.Get("access_hash")
	n2, _ := ah.AsLong()
	if n2 != -987654321 {
		t.Fatalf("access_hash round-trip: got %d, want -987654321", n2)
	}
}

// An inputPeerEmpty value serialized against its declared type InputPeer
// is boxed (the predicate differs from the target type), and since the
// fixture has no params the output is exactly the 4-byte constructor id.
func TestSerializeEmptyConstructorHasNoParams(t *testing.T) {
	c := newTestCodec(t)
	rec := tl.NewRecord("inputPeerEmpty")

	wire, err := c.Serialize(TypeCtx{Type: "InputPeer"}, tl.Rec(rec), "peer")
	if err != nil {
		t.Fatal(err)
	}
	if len(wire) != 4 {
		t.Fatalf("expected just the 4-byte constructor id, got %d bytes", len(wire))
	}
}
