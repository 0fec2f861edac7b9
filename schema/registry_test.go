package schema

import "testing"

func TestRegistryFindByPredicateLayerTieBreak(t *testing.T) {
	r := New(nil)

	old := &Entry{Name: "chatFull", ID: IDBytes(1), Type: "ChatFull", Layer: 23}
	newer := &Entry{Name: "chatFull", ID: IDBytes(2), Type: "ChatFull", Layer: 98}
	newest := &Entry{Name: "chatFull", ID: IDBytes(3), Type: "ChatFull", Layer: 150}

	for _, e := range []*Entry{old, newer, newest} {
		if err := r.AddEntry(e); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := r.FindByPredicate("chatFull", 100)
	if !ok {
		t.Fatal("expected a match")
	}
	if got != newer {
		t.Fatalf("want layer-98 entry, got layer %d", got.Layer)
	}

	got, ok = r.FindByPredicate("chatFull", -1)
	if !ok || got != newest {
		t.Fatal("layer=-1 should return the highest-layer entry")
	}
}

func TestRegistryDuplicateIDRejected(t *testing.T) {
	r := New(nil)
	a := &Entry{Name: "a", ID: IDBytes(42), Type: "A"}
	b := &Entry{Name: "b", ID: IDBytes(42), Type: "B"}

	if err := r.AddEntry(a); err != nil {
		t.Fatal(err)
	}
	if err := r.AddEntry(b); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestRegistryMethodNamespaces(t *testing.T) {
	r := New(nil)
	e := &Entry{Name: "messages.getHistory", ID: IDBytes(7), Type: "messages.Messages", IsMethod: true}
	if err := r.AddEntry(e); err != nil {
		t.Fatal(err)
	}

	namespaces := r.MethodNamespaces()
	if len(namespaces) != 1 || namespaces[0] != "messages" {
		t.Fatalf("unexpected namespaces: %v", namespaces)
	}

	ns, ok := r.NamespaceOf("messages.getHistory")
	if !ok || ns != "messages" {
		t.Fatalf("unexpected namespace lookup: %q, %v", ns, ok)
	}
}

func TestRegistrySecretLayerMonotonic(t *testing.T) {
	r := New(nil)
	e1 := &Entry{Name: "decryptedMessage", ID: IDBytes(1), Type: "DecryptedMessage", Layer: 8, Origin: OriginSecret}
	e2 := &Entry{Name: "decryptedMessage46", ID: IDBytes(2), Type: "DecryptedMessage", Layer: 46, Origin: OriginSecret}

	if err := r.AddEntry(e1); err != nil {
		t.Fatal(err)
	}
	if r.SecretLayer() != 8 {
		t.Fatalf("want 8 got %d", r.SecretLayer())
	}
	if err := r.AddEntry(e2); err != nil {
		t.Fatal(err)
	}
	if r.SecretLayer() != 46 {
		t.Fatalf("want 46 got %d", r.SecretLayer())
	}
}
