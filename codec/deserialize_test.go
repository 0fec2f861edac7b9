package codec

import (
	"encoding/binary"
	"testing"

	"github.com/coreproto/tl/tl"
)

// scenario e: boxed Vector<int> decode of [1, 2, 3].
func TestDeserializeBoxedVectorInt(t *testing.T) {
	c := newTestCodec(t)

	var wire []byte
	wire = append(wire, encodeID(vectorConstructorID)...)
	wire = append(wire, tl.EncodeInt32(3)...)
	wire = append(wire, tl.EncodeInt32(1)...)
	wire = append(wire, tl.EncodeInt32(2)...)
	wire = append(wire, tl.EncodeInt32(3)...)

	got, _, consumed, err := c.Deserialize(wire, TypeCtx{Type: "Vector<int>", Subtype: "int"})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed %d of %d bytes", consumed, len(wire))
	}

	elems, ok := got.AsVector()
	if !ok || len(elems) != 3 {
		t.Fatalf("expected a 3-element vector, got %+v", got)
	}
	for i, want := range []int32{1, 2, 3} {
		n, ok := elems[i].AsInt()
		if !ok || n != want {
			t.Fatalf("element %d: got %v, want %d", i, elems[i], want)
		}
	}
}

func TestDeserializeBareVectorInt(t *testing.T) {
	c := newTestCodec(t)

	var wire []byte
	wire = append(wire, tl.EncodeInt32(2)...)
	wire = append(wire, tl.EncodeInt32(7)...)
	wire = append(wire, tl.EncodeInt32(8)...)

	got, _, consumed, err := c.Deserialize(wire, TypeCtx{Type: "vector int", Subtype: "int"})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if consumed != len(wire) {
		t.Fatalf("consumed %d of %d bytes", consumed, len(wire))
	}
	elems, _ := got.AsVector()
	if len(elems) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(elems))
	}
}

func TestDeserializeUnknownConstructorID(t *testing.T) {
	c := newTestCodec(t)
	bogus := make([]byte, 4)
	binary.LittleEndian.PutUint32(bogus, 0xdeadbeef)

	_, _, _, err := c.Deserialize(bogus, TypeCtx{Type: "InputPeer"})
	if err == nil {
		t.Fatal("expected an error for an unregistered constructor id")
	}
}

func TestDeserializeBool(t *testing.T) {
	c := newTestCodec(t)

	wireTrue := encodeID(boolTrueID)
	got, _, _, err := c.Deserialize(wireTrue, TypeCtx{Type: "Bool"})
	if err != nil {
		t.Fatal(err)
	}
	b, ok := got.AsBool()
	if !ok || !b {
		t.Fatalf("expected true, got %+v", got)
	}

	wireFalse := encodeID(boolFalseID)
	got, _, _, err = c.Deserialize(wireFalse, TypeCtx{Type: "Bool"})
	if err != nil {
		t.Fatal(err)
	}
	b, ok = got.AsBool()
	if !ok || b {
		t.Fatalf("expected false, got %+v", got)
	}
}

// Discovery mode (empty type) resolves a plain constructor purely by its
// wire id, with no declared expected type to guide it.
func TestDeserializeDiscoveryUnwrapsKnownConstructor(t *testing.T) {
	c := newTestCodec(t, "inputPeerSelf = InputPeer;")

	entry, ok := c.Registry.FindByPredicate("inputPeerSelf", -1)
	if !ok {
		t.Fatal("fixture entry missing")
	}
	wire := entry.ID[:]

	got, _, _, err := c.Deserialize(wire, TypeCtx{Type: ""})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	rec, ok := got.AsRecord()
	if !ok || rec.Predicate != "inputPeerSelf" {
		t.Fatalf("expected inputPeerSelf, got %+v", got)
	}
}

func TestGetLengthMatchesDeserializeConsumption(t *testing.T) {
	c := newTestCodec(t)
	payload := hexBytes(t, "03616263")

	n, err := c.GetLength(payload, TypeCtx{Type: "string"})
	if err != nil {
		t.Fatal(err)
	}
	if n != len(payload) {
		t.Fatalf("GetLength %d, want %d", n, len(payload))
	}
}
