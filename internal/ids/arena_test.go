package ids

import "testing"

func TestArenaInsertGetRemove(t *testing.T) {
	a := New[string]()

	id1 := a.Insert("alpha")
	id2 := a.Insert("beta")

	if id1 == id2 {
		t.Fatalf("expected distinct ids, got %d and %d", id1, id2)
	}

	v, ok := a.Get(id1)
	if !ok || v != "alpha" {
		t.Fatalf("Get(id1) = %q, %v; want alpha, true", v, ok)
	}

	a.Remove(id1)

	if _, ok := a.Get(id1); ok {
		t.Fatal("expected id1 to be gone after Remove")
	}
	if v, ok := a.Get(id2); !ok || v != "beta" {
		t.Fatalf("Get(id2) after removing id1 = %q, %v; want beta, true", v, ok)
	}
}

func TestArenaRemoveUnknownIsNoop(t *testing.T) {
	a := New[int]()
	a.Remove(ID(999)) // must not panic
	if a.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", a.Len())
	}
}

func TestArenaEach(t *testing.T) {
	a := New[int]()
	a.Insert(1)
	a.Insert(2)
	a.Insert(3)

	sum := 0
	a.Each(func(id ID, v int) { sum += v })

	if sum != 6 {
		t.Fatalf("sum = %d, want 6", sum)
	}
}

func TestBoundedArenaRefusesPastCapacity(t *testing.T) {
	a := NewBounded[string](2)

	id1, ok := a.TryInsert("alpha")
	if !ok {
		t.Fatal("TryInsert(1/2) should succeed")
	}
	if _, ok := a.TryInsert("beta"); !ok {
		t.Fatal("TryInsert(2/2) should succeed")
	}
	if _, ok := a.TryInsert("gamma"); ok {
		t.Fatal("TryInsert(3/2) should fail: arena is at capacity")
	}

	a.Remove(id1)
	if _, ok := a.TryInsert("gamma"); !ok {
		t.Fatal("TryInsert should succeed again once a slot is freed")
	}
}
