package spatial

import "testing"

func rootBounds() Bounds {
	return Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}
}

func TestInsertOutsideRootFails(t *testing.T) {
	q := New(rootBounds(), 4, 2)
	ok := q.Insert(Entry{ID: 1, Bounds: Bounds{MinX: 200, MinY: 200, MaxX: 210, MaxY: 210}})
	if ok {
		t.Error("expected insert outside root bounds to fail")
	}
}

func TestQueryFindsInsertedEntries(t *testing.T) {
	q := New(rootBounds(), 4, 2)
	q.Insert(Entry{ID: 1, Bounds: Bounds{MinX: 10, MinY: 10, MaxX: 12, MaxY: 12}})
	q.Insert(Entry{ID: 2, Bounds: Bounds{MinX: 80, MinY: 80, MaxX: 82, MaxY: 82}})

	results := q.Query(Bounds{MinX: 0, MinY: 0, MaxX: 20, MaxY: 20})
	if len(results) != 1 || results[0].ID != 1 {
		t.Fatalf("expected to find entry 1, got %+v", results)
	}
}

func TestQueryReturnsNoDuplicates(t *testing.T) {
	q := New(rootBounds(), 2, 1)
	// Force subdivision with several entries in the same quadrant.
	for i := uint64(0); i < 10; i++ {
		q.Insert(Entry{ID: i, Bounds: Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}})
	}

	results := q.Query(rootBounds())
	seen := make(map[uint64]bool)
	for _, e := range results {
		if seen[e.ID] {
			t.Fatalf("duplicate entry %d in query results", e.ID)
		}
		seen[e.ID] = true
	}
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
}

func TestEntryStraddlingSplitLineStaysAtParent(t *testing.T) {
	q := New(rootBounds(), 4, 1)
	// First entry forces a subdivide on the next insert.
	q.Insert(Entry{ID: 1, Bounds: Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}})
	// Straddles the vertical split line at x=50; no single child contains it.
	q.Insert(Entry{ID: 2, Bounds: Bounds{MinX: 45, MinY: 1, MaxX: 55, MaxY: 2}})

	results := q.Query(Bounds{MinX: 40, MinY: 0, MaxX: 60, MaxY: 10})
	found := false
	for _, e := range results {
		if e.ID == 2 {
			found = true
		}
	}
	if !found {
		t.Fatal("expected straddling entry to be findable via a single-node query")
	}
}

func TestRemoveUnknownIDReturnsFalse(t *testing.T) {
	q := New(rootBounds(), 4, 4)
	q.Insert(Entry{ID: 1, Bounds: Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}})
	if q.Remove(999) {
		t.Error("expected Remove of unknown id to return false")
	}
	if q.Count() != 1 {
		t.Error("tree should be unchanged after failed remove")
	}
}

func TestRemoveAfterSubdivision(t *testing.T) {
	q := New(rootBounds(), 4, 1)
	for i := uint64(0); i < 5; i++ {
		q.Insert(Entry{ID: i, Bounds: Bounds{MinX: 10, MinY: 10, MaxX: 11, MaxY: 11}})
	}
	if !q.Remove(3) {
		t.Fatal("expected to remove entry 3")
	}
	if q.Count() != 4 {
		t.Fatalf("expected 4 remaining entries, got %d", q.Count())
	}
	for _, e := range q.Query(rootBounds()) {
		if e.ID == 3 {
			t.Fatal("removed entry still present in query results")
		}
	}
}

func TestMaxDepthClampsSubdivision(t *testing.T) {
	q := New(rootBounds(), 0, 1)
	q.Insert(Entry{ID: 1, Bounds: Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}})
	q.Insert(Entry{ID: 2, Bounds: Bounds{MinX: 1, MinY: 1, MaxX: 2, MaxY: 2}})
	if q.divided {
		t.Error("expected tree at max depth 0 never to subdivide")
	}
	if q.Count() != 2 {
		t.Errorf("expected both entries clamped into root, got %d", q.Count())
	}
}

func TestClearResetsTree(t *testing.T) {
	q := New(rootBounds(), 4, 1)
	for i := uint64(0); i < 5; i++ {
		q.Insert(Entry{ID: i, Bounds: Bounds{MinX: 10, MinY: 10, MaxX: 11, MaxY: 11}})
	}
	q.Clear()
	if q.Count() != 0 {
		t.Errorf("expected empty tree after Clear, got count %d", q.Count())
	}
	if q.divided {
		t.Error("expected Clear to undo subdivision")
	}
}

func TestBoundsContainsBounds(t *testing.T) {
	outer := Bounds{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}
	inner := Bounds{MinX: 1, MinY: 1, MaxX: 9, MaxY: 9}
	straddling := Bounds{MinX: 5, MinY: 5, MaxX: 15, MaxY: 15}

	if !outer.ContainsBounds(inner) {
		t.Error("expected outer to contain inner")
	}
	if outer.ContainsBounds(straddling) {
		t.Error("expected outer not to contain straddling bounds")
	}
}
