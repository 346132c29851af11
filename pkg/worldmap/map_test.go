package worldmap

import "testing"

func TestCompileRejectsRaggedRows(t *testing.T) {
	matrix := [][]int{
		{0, 0, 0},
		{0, 0},
	}
	_, err := Compile(matrix, 32, nil)
	if err == nil {
		t.Fatal("expected error for ragged matrix, got nil")
	}
}

func TestCompileRejectsUnknownKey(t *testing.T) {
	matrix := [][]int{
		{0, 1},
	}
	_, err := Compile(matrix, 32, map[int]BuildingType{})
	if err == nil {
		t.Fatal("expected error for unknown building key, got nil")
	}
}

func TestCompileEmptyMatrixIsLegal(t *testing.T) {
	m, err := Compile(nil, 32, nil)
	if err != nil {
		t.Fatalf("unexpected error for empty matrix: %v", err)
	}
	if len(m.Buildings) != 0 || len(m.WalkableCells) != 0 {
		t.Fatalf("expected empty map to have no buildings/cells, got %d/%d", len(m.Buildings), len(m.WalkableCells))
	}
}

func TestCompileMergesConnectedBuilding(t *testing.T) {
	// five key-1 cells (an L whose bounding box is 3x2 cells) plus a lone
	// walkable cell
	matrix := [][]int{
		{1, 1, 1},
		{1, 1, 0},
	}
	types := map[int]BuildingType{1: {Name: "wall"}}

	m, err := Compile(matrix, 10, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.Buildings) != 1 {
		t.Fatalf("expected 1 merged building, got %d", len(m.Buildings))
	}
	b := m.Buildings[0]
	if b.W != 30 || b.H != 20 {
		t.Errorf("building bounds = %vx%v, want 30x20", b.W, b.H)
	}
	if len(b.Cells) != 5 {
		t.Errorf("building covers %d cells, want 5", len(b.Cells))
	}

	if len(m.WalkableCells) != 1 {
		t.Fatalf("expected 1 walkable cell, got %d", len(m.WalkableCells))
	}
	wc := m.WalkableCells[0]
	if wc.CenterX != 25 || wc.CenterY != 15 {
		t.Errorf("walkable cell center = (%v,%v), want (25,15)", wc.CenterX, wc.CenterY)
	}
}

func TestCompileKeepsDisconnectedSameKeyComponentsSeparate(t *testing.T) {
	matrix := [][]int{
		{1, 0, 1},
	}
	types := map[int]BuildingType{1: {Name: "pillar"}}

	m, err := Compile(matrix, 10, types)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Buildings) != 2 {
		t.Fatalf("expected 2 separate buildings, got %d", len(m.Buildings))
	}
}

func TestCellAtOutOfRange(t *testing.T) {
	matrix := [][]int{{0, 0}, {0, 0}}
	m, err := Compile(matrix, 10, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, ok := m.CellAt(-1, -1); ok {
		t.Error("expected CellAt to reject negative coordinates")
	}
	if _, _, ok := m.CellAt(1000, 1000); ok {
		t.Error("expected CellAt to reject out-of-range coordinates")
	}
	row, col, ok := m.CellAt(15, 5)
	if !ok || row != 0 || col != 1 {
		t.Errorf("CellAt(15,5) = (%d,%d,%v), want (0,1,true)", row, col, ok)
	}
}

func TestBoundsContainsAndIntersects(t *testing.T) {
	b := Bounds{Left: 0, Right: 10, Top: 0, Bottom: 10}
	if !b.Contains(5, 5) {
		t.Error("expected (5,5) to be contained")
	}
	if b.Contains(10, 10) {
		t.Error("expected right/bottom edge to be exclusive")
	}
	if !b.Intersects(Bounds{Left: 5, Right: 15, Top: 5, Bottom: 15}) {
		t.Error("expected overlapping bounds to intersect")
	}
	if b.Intersects(Bounds{Left: 10, Right: 20, Top: 10, Bottom: 20}) {
		t.Error("expected edge-touching bounds not to intersect")
	}
}
