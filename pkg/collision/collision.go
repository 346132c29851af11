// Package collision implements the obstacle and agent-agent collision
// primitives the rest of the simulation core is built on: point/rect-in-
// building tests, the sliding motion resolver, pairwise overlap, and path
// sampling for longer planned moves.
package collision

import (
	"math"

	"github.com/opd-ai/survival-core/pkg/worldmap"
)

// Directions is the fixed 8-way cardinal/ordinal order used by both the
// slide wall-follow fallback and pursuer chase detours: {E, W, S, N, SE,
// SW, NE, NW}. The order is fixed so the same inputs always pick the same
// detour.
var Directions = [8][2]float64{
	{1, 0},                                     // E
	{-1, 0},                                    // W
	{0, 1},                                     // S
	{0, -1},                                    // N
	{0.7071067811865476, 0.7071067811865476},   // SE
	{-0.7071067811865476, 0.7071067811865476},  // SW
	{0.7071067811865476, -0.7071067811865476},  // NE
	{-0.7071067811865476, -0.7071067811865476}, // NW
}

// fractionalSteps are the distances tried by SlideTranslation step 2, in
// descending order so the first clear one is the farthest along the ray.
var fractionalSteps = []float64{0.9, 0.8, 0.7, 0.6, 0.5, 0.4, 0.3, 0.2, 0.1}

// DefaultWallStep is the distance used for the 8-way wall-follow fallback
// when the caller does not override it.
const DefaultWallStep = 100.0

// Service answers collision queries against a compiled map.
type Service struct {
	m        *worldmap.Map
	wallStep float64
}

// New creates a Service bound to m. wallStep <= 0 uses DefaultWallStep.
func New(m *worldmap.Map, wallStep float64) *Service {
	if wallStep <= 0 {
		wallStep = DefaultWallStep
	}
	return &Service{m: m, wallStep: wallStep}
}

// PointInBuilding reports whether p lies inside any blocking building
// rectangle, or outside the map bounds entirely (both count as "not
// walkable"). A building whose type is marked Walkable is passable and
// never blocks this test.
func (s *Service) PointInBuilding(x, y float64) bool {
	if x < 0 || y < 0 || x >= float64(s.m.Width) || y >= float64(s.m.Height) {
		return true
	}
	for _, b := range s.m.Buildings {
		if s.m.BuildingTypes[b.TypeKey].Walkable {
			continue
		}
		if x >= b.Bounds.Left && x < b.Bounds.Right && y >= b.Bounds.Top && y < b.Bounds.Bottom {
			return true
		}
	}
	return false
}

// RectCollidesBuildings reports whether the centered rectangle
// (center, w, h) overlaps any blocking building, or any part of it lies
// outside the map. Buildings of a Walkable type are skipped, the same way
// PointInBuilding treats them.
func (s *Service) RectCollidesBuildings(cx, cy, w, h float64) bool {
	left := cx - w/2
	right := cx + w/2
	top := cy - h/2
	bottom := cy + h/2

	if left < 0 || top < 0 || right > float64(s.m.Width) || bottom > float64(s.m.Height) {
		return true
	}
	for _, b := range s.m.Buildings {
		if s.m.BuildingTypes[b.TypeKey].Walkable {
			continue
		}
		if rectsOverlap(left, top, right, bottom, b.Bounds.Left, b.Bounds.Top, b.Bounds.Right, b.Bounds.Bottom) {
			return true
		}
	}
	return false
}

func rectsOverlap(l1, t1, r1, b1, l2, t2, r2, b2 float64) bool {
	return !(r1 <= l2 || r2 <= l1 || b1 <= t2 || b2 <= t1)
}

// PairwiseOverlap is an AABB test between two centered rectangles.
func PairwiseOverlap(aCx, aCy, aW, aH, bCx, bCy, bW, bH float64) bool {
	return rectsOverlap(
		aCx-aW/2, aCy-aH/2, aCx+aW/2, aCy+aH/2,
		bCx-bW/2, bCy-bH/2, bCx+bW/2, bCy+bH/2,
	)
}

// Candidate is a dynamic entity bounding box, used by FirstOverlapInRegion.
type Candidate struct {
	ID               uint64
	CenterX, CenterY float64
	W, H             float64
}

// FirstOverlapInRegion returns the id of the first candidate (other than
// excludeID) whose bounds overlap the centered rectangle (center, w, h).
func FirstOverlapInRegion(cx, cy, w, h float64, candidates []Candidate, excludeID uint64) (uint64, bool) {
	for _, c := range candidates {
		if c.ID == excludeID {
			continue
		}
		if PairwiseOverlap(cx, cy, w, h, c.CenterX, c.CenterY, c.W, c.H) {
			return c.ID, true
		}
	}
	return 0, false
}

// SlideTranslation resolves a desired motion from (fromX,fromY) to
// (toX,toY) for a (w,h) agent against buildings:
//
//  1. if the destination is clear, return it outright.
//  2. try fractional distances t ∈ {0.9..0.1}; return the largest t whose
//     position is clear.
//  3. try axis decomposition: (toX, fromY) then (fromX, toY); return
//     whichever is clear, preferring the one further along the motion.
//  4. try the 8 cardinal/ordinal unit moves (Directions order) at
//     distance min(|to-from|, wallStep); return the first clear one.
//  5. otherwise return the starting position (blocked).
//
// The result is deterministic given the same inputs, and a returned
// position that already clears obstacles resolves to itself.
func (s *Service) SlideTranslation(fromX, fromY, toX, toY, w, h float64) (float64, float64) {
	if !s.RectCollidesBuildings(toX, toY, w, h) {
		return toX, toY
	}

	dx := toX - fromX
	dy := toY - fromY

	for _, t := range fractionalSteps {
		px := fromX + t*dx
		py := fromY + t*dy
		if !s.RectCollidesBuildings(px, py, w, h) {
			return px, py
		}
	}

	axisX := toX
	axisYFrom := fromY
	axisXFrom := fromX
	axisY := toY

	xClear := !s.RectCollidesBuildings(axisX, axisYFrom, w, h)
	yClear := !s.RectCollidesBuildings(axisXFrom, axisY, w, h)

	if xClear && yClear {
		// Prefer whichever axis move travels further along the ray.
		if math.Abs(dx) >= math.Abs(dy) {
			return axisX, axisYFrom
		}
		return axisXFrom, axisY
	}
	if xClear {
		return axisX, axisYFrom
	}
	if yClear {
		return axisXFrom, axisY
	}

	dist := distance(fromX, fromY, toX, toY)
	step := dist
	if step > s.wallStep {
		step = s.wallStep
	}
	for _, dir := range Directions {
		px := fromX + dir[0]*step
		py := fromY + dir[1]*step
		if !s.RectCollidesBuildings(px, py, w, h) {
			return px, py
		}
	}

	return fromX, fromY
}

// PathValid samples at least ⌈|to-from|/10⌉ intermediate points along the
// straight segment from (fromX,fromY) to (toX,toY) and reports whether
// every sampled point clears buildings for a (w,h) agent.
func (s *Service) PathValid(fromX, fromY, toX, toY, w, h float64) bool {
	dist := distance(fromX, fromY, toX, toY)
	samples := int(math.Ceil(dist / 10.0))
	if samples < 1 {
		samples = 1
	}
	for i := 0; i <= samples; i++ {
		t := float64(i) / float64(samples)
		px := fromX + t*(toX-fromX)
		py := fromY + t*(toY-fromY)
		if s.RectCollidesBuildings(px, py, w, h) {
			return false
		}
	}
	return true
}

func distance(x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	return math.Sqrt(dx*dx + dy*dy)
}
