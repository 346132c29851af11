// Package worldmap compiles a rectangular matrix of building-type keys into
// the merged building rectangles and walkable cells the rest of the
// simulation core queries against. Compilation is pure: Compile never
// mutates its inputs and always returns the same Map for the same matrix.
package worldmap

import "fmt"

// BuildingType describes one nonzero matrix key.
type BuildingType struct {
	Name string
	// Walkable marks a decorative-but-passable type (e.g. rubble, a rug):
	// its cells are still merged into a Building (so the map keeps its
	// type/debug cell data), but pkg/collision's PointInBuilding and
	// RectCollidesBuildings skip buildings of a Walkable type entirely,
	// so they never block agent movement the way an ordinary wall does.
	Walkable bool
	// ColorHint is a purely descriptive hex color for external renderers.
	// Core never interprets it.
	ColorHint string
}

// Bounds is an axis-aligned rectangle given as four edges.
type Bounds struct {
	Left, Right, Top, Bottom float64
}

// Width returns Right - Left.
func (b Bounds) Width() float64 { return b.Right - b.Left }

// Height returns Bottom - Top.
func (b Bounds) Height() float64 { return b.Bottom - b.Top }

// Contains reports whether the point (x, y) lies within the bounds,
// inclusive of the left/top edge and exclusive of the right/bottom edge.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.Left && x < b.Right && y >= b.Top && y < b.Bottom
}

// Intersects reports whether two bounds overlap.
func (b Bounds) Intersects(o Bounds) bool {
	return !(o.Left >= b.Right || o.Right <= b.Left || o.Top >= b.Bottom || o.Bottom <= b.Top)
}

// CellCoord is a (row, col) index into the source matrix.
type CellCoord struct {
	Row, Col int
}

// Rect is an axis-aligned rectangle described by center and size, used for
// walkable cells (which are never merged across cells).
type Rect struct {
	CenterX, CenterY float64
	W, H             float64
}

// Bounds returns the rectangle's edges.
func (r Rect) Bounds() Bounds {
	return Bounds{
		Left:   r.CenterX - r.W/2,
		Right:  r.CenterX + r.W/2,
		Top:    r.CenterY - r.H/2,
		Bottom: r.CenterY + r.H/2,
	}
}

// Building is a merged, axis-aligned rectangle covering one or more
// orthogonally-connected cells that share the same nonzero matrix key.
type Building struct {
	CenterX, CenterY float64
	W, H             float64
	Bounds           Bounds
	TypeKey          int
	Cells            []CellCoord
}

// Map is the compiled, immutable navigation surface for the simulation
// core. It is built once by Compile and never mutated afterward.
type Map struct {
	Name     string
	Width    int
	Height   int
	CellSize int

	rows, cols int
	matrix     [][]int

	BuildingTypes map[int]BuildingType
	Buildings     []Building
	WalkableCells []Rect
}

// InvalidMapError reports why a matrix was rejected by Compile.
type InvalidMapError struct {
	Reason string
}

func (e *InvalidMapError) Error() string {
	return fmt.Sprintf("worldmap: invalid map: %s", e.Reason)
}

// Compile validates matrix and builds the Map's derived Buildings and
// WalkableCells. matrix rows must all share the same length, and every
// nonzero entry must be a key present in buildingTypes. Compile is pure:
// it never modifies matrix or buildingTypes.
func Compile(matrix [][]int, cellSize int, buildingTypes map[int]BuildingType) (*Map, error) {
	if cellSize <= 0 {
		return nil, &InvalidMapError{Reason: "cell_size must be positive"}
	}

	rows := len(matrix)
	cols := 0
	if rows > 0 {
		cols = len(matrix[0])
	}
	for r, row := range matrix {
		if len(row) != cols {
			return nil, &InvalidMapError{Reason: fmt.Sprintf("row %d has length %d, want %d", r, len(row), cols)}
		}
		for c, key := range row {
			if key == 0 {
				continue
			}
			if _, ok := buildingTypes[key]; !ok {
				return nil, &InvalidMapError{Reason: fmt.Sprintf("cell (%d,%d) references unknown building key %d", r, c, key)}
			}
		}
	}

	m := &Map{
		Width:         cols * cellSize,
		Height:        rows * cellSize,
		CellSize:      cellSize,
		rows:          rows,
		cols:          cols,
		matrix:        matrix,
		BuildingTypes: buildingTypes,
	}

	m.Buildings = mergeBuildings(matrix, rows, cols, cellSize)
	m.WalkableCells = walkableCells(matrix, rows, cols, cellSize)

	return m, nil
}

// CellAt converts a world coordinate to a (row, col) matrix index. ok is
// false if the point falls outside the compiled matrix.
func (m *Map) CellAt(x, y float64) (row, col int, ok bool) {
	if x < 0 || y < 0 || x >= float64(m.Width) || y >= float64(m.Height) {
		return 0, 0, false
	}
	col = int(x) / m.CellSize
	row = int(y) / m.CellSize
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, 0, false
	}
	return row, col, true
}

// Rows returns the number of matrix rows the map was compiled from.
func (m *Map) Rows() int { return m.rows }

// Cols returns the number of matrix columns the map was compiled from.
func (m *Map) Cols() int { return m.cols }

// walkableCells returns one Rect per zero-valued matrix cell.
func walkableCells(matrix [][]int, rows, cols, cellSize int) []Rect {
	cells := make([]Rect, 0, rows*cols)
	size := float64(cellSize)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if matrix[r][c] != 0 {
				continue
			}
			cells = append(cells, Rect{
				CenterX: float64(c)*size + size/2,
				CenterY: float64(r)*size + size/2,
				W:       size,
				H:       size,
			})
		}
	}
	return cells
}

// mergeBuildings flood-fills 4-connected same-key cells into building
// rectangles. Non-rectangular connected components collapse to their
// bounding box; buildings are AABB-only.
func mergeBuildings(matrix [][]int, rows, cols, cellSize int) []Building {
	visited := make([][]bool, rows)
	for r := range visited {
		visited[r] = make([]bool, cols)
	}

	var buildings []Building
	size := float64(cellSize)

	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			key := matrix[r][c]
			if key == 0 || visited[r][c] {
				continue
			}

			component := floodFill(matrix, visited, rows, cols, r, c, key)

			minRow, maxRow := component[0].Row, component[0].Row
			minCol, maxCol := component[0].Col, component[0].Col
			for _, cell := range component {
				if cell.Row < minRow {
					minRow = cell.Row
				}
				if cell.Row > maxRow {
					maxRow = cell.Row
				}
				if cell.Col < minCol {
					minCol = cell.Col
				}
				if cell.Col > maxCol {
					maxCol = cell.Col
				}
			}

			left := float64(minCol) * size
			top := float64(minRow) * size
			right := float64(maxCol+1) * size
			bottom := float64(maxRow+1) * size

			buildings = append(buildings, Building{
				CenterX: (left + right) / 2,
				CenterY: (top + bottom) / 2,
				W:       right - left,
				H:       bottom - top,
				Bounds:  Bounds{Left: left, Right: right, Top: top, Bottom: bottom},
				TypeKey: key,
				Cells:   component,
			})
		}
	}

	return buildings
}

// floodFill performs an iterative BFS over 4-connected cells sharing key,
// starting at (startRow, startCol), marking visited along the way.
func floodFill(matrix [][]int, visited [][]bool, rows, cols, startRow, startCol, key int) []CellCoord {
	queue := []CellCoord{{Row: startRow, Col: startCol}}
	visited[startRow][startCol] = true
	var component []CellCoord

	for len(queue) > 0 {
		cell := queue[0]
		queue = queue[1:]
		component = append(component, cell)

		neighbors := [4]CellCoord{
			{Row: cell.Row - 1, Col: cell.Col},
			{Row: cell.Row + 1, Col: cell.Col},
			{Row: cell.Row, Col: cell.Col - 1},
			{Row: cell.Row, Col: cell.Col + 1},
		}
		for _, n := range neighbors {
			if n.Row < 0 || n.Row >= rows || n.Col < 0 || n.Col >= cols {
				continue
			}
			if visited[n.Row][n.Col] || matrix[n.Row][n.Col] != key {
				continue
			}
			visited[n.Row][n.Col] = true
			queue = append(queue, n)
		}
	}

	return component
}
