package container

import "testing"

func TestOption(t *testing.T) {
	none := None[int]()
	if none.Set() || none.Ptr() != nil || none.String() != "None" {
		t.Fatalf("unexpected None behavior: %v", none)
	}
	some := Some(3)
	if v, ok := some.Get(); !ok || v != 3 || some.MustGet() != 3 || *some.Ptr() != 3 {
		t.Fatalf("unexpected Some behavior: %v", some)
	}
}

func TestOrderedMap(t *testing.T) {
	var m OrderedMap[string, int]
	for i, k := range []string{"with bp", "no bp", "smt"} {
		m.Set(k, i)
	}
	m.Set("with bp", 10)

	if m.Len() != 3 {
		t.Fatalf("got length %d, want 3", m.Len())
	}
	want := []string{"with bp", "no bp", "smt"}
	keys := m.Keys()
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("got keys %q, want %q", keys, want)
		}
	}
	if v, ok := m.Get("with bp"); !ok || v != 10 {
		t.Fatalf("got %d, %t for updated key", v, ok)
	}
	if _, ok := m.Get("missing"); ok {
		t.Fatal("found missing key")
	}

	i := 0
	for k, v := range m.All() {
		if k != want[i] {
			t.Fatalf("iteration %d yielded %q, want %q", i, k, want[i])
		}
		if mv, _ := m.Get(k); mv != v {
			t.Fatalf("iteration yielded value %d for %q, want %d", v, k, mv)
		}
		i++
		if i == 2 {
			break
		}
	}

	var nilMap *OrderedMap[string, int]
	if nilMap.Len() != 0 || nilMap.Keys() != nil {
		t.Fatal("nil map isn't empty")
	}
	for range nilMap.All() {
		t.Fatal("nil map yielded an entry")
	}
}

func TestSet(t *testing.T) {
	s := Set[string]{}
	s.Add("a")
	if !s.Has("a") || s.Has("b") {
		t.Fatal("unexpected membership")
	}
}
