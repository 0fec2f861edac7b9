package tl

import "testing"

func TestRecordBuilderPreservesOrder(t *testing.T) {
	r := NewRecord("inputPeerUser").
		Set("user_id", Int(12345)).
		Set("access_hash", Long(0x0102030405060708))

	order := r.Order()
	if len(order) != 2 || order[0] != "user_id" || order[1] != "access_hash" {
		t.Fatalf("unexpected order: %v", order)
	}

	v, ok := r.Get("user_id")
	if !ok {
		t.Fatal("user_id missing")
	}
	got, _ := v.AsInt()
	if got != 12345 {
		t.Fatalf("want 12345 got %d", got)
	}
}

func TestRecordDeleteRemovesFromOrder(t *testing.T) {
	r := NewRecord("message").Set("flags", Int(0)).Set("id", Int(1))
	r.Delete("flags")

	if _, ok := r.Get("flags"); ok {
		t.Fatal("flags should be gone")
	}
	if order := r.Order(); len(order) != 1 || order[0] != "id" {
		t.Fatalf("unexpected order after delete: %v", order)
	}
}

func TestTruthy(t *testing.T) {
	if Null().Truthy() {
		t.Fatal("null should be falsy")
	}
	if Bool(false).Truthy() {
		t.Fatal("bool false should be falsy")
	}
	if !Bool(true).Truthy() {
		t.Fatal("bool true should be truthy")
	}
	if !Int(0).Truthy() {
		t.Fatal("present int 0 should still be truthy (present-and-non-null)")
	}
}
