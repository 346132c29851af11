// Package spawn implements bounded rejection-sampling placement: finding a
// position within a distance band of a center point that clears buildings
// and does not overlap any excluded set of nearby agents.
package spawn

import (
	"math"
	"math/rand"
	"sort"

	"github.com/opd-ai/survival-core/pkg/collision"
	"github.com/opd-ai/survival-core/pkg/worldmap"
)

// MaxAttempts bounds the rejection-sampling loop in Find.
const MaxAttempts = 200

// Point is a 2D world coordinate.
type Point struct {
	X, Y float64
}

// Service finds safe spawn positions against a compiled map and a
// caller-supplied set of nearby dynamic candidates.
type Service struct {
	m          *worldmap.Map
	collision  *collision.Service
	safeMargin float64
}

// New creates a spawn Service. safeMargin keeps candidates at least that
// far from the map edge.
func New(m *worldmap.Map, coll *collision.Service, safeMargin float64) *Service {
	return &Service{m: m, collision: coll, safeMargin: safeMargin}
}

// Find attempts to place a (w,h) agent within [minR,maxR] of center that
// clears buildings and does not overlap nearby. nearby is the caller's
// dynamic-index query result; every candidate in it counts as an
// obstacle, whatever its kind. Returns
// false if rejection sampling exhausts MaxAttempts and every fallback
// also fails.
func (s *Service) Find(rng *rand.Rand, center Point, minR, maxR, w, h float64, nearby []collision.Candidate) (Point, bool) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		theta := rng.Float64() * 2 * math.Pi
		r := minR + rng.Float64()*(maxR-minR)
		p := Point{
			X: center.X + r*math.Cos(theta),
			Y: center.Y + r*math.Sin(theta),
		}

		if !s.withinMapMargin(p) {
			continue
		}
		if s.collision.RectCollidesBuildings(p.X, p.Y, w, h) {
			continue
		}
		if _, overlap := collision.FirstOverlapInRegion(p.X, p.Y, w, h, nearby, 0); overlap {
			continue
		}
		return p, true
	}

	if p, ok := s.nearestWalkableCellInBand(center, minR, maxR, w, h, nearby); ok {
		return p, true
	}
	if p, ok := s.cornerInset(w, h, nearby); ok {
		return p, true
	}
	return Point{}, false
}

func (s *Service) withinMapMargin(p Point) bool {
	return p.X >= s.safeMargin && p.Y >= s.safeMargin &&
		p.X <= float64(s.m.Width)-s.safeMargin && p.Y <= float64(s.m.Height)-s.safeMargin
}

// nearestWalkableCellInBand falls back to walkable-cell centers within the
// distance band, nearest first.
func (s *Service) nearestWalkableCellInBand(center Point, minR, maxR, w, h float64, nearby []collision.Candidate) (Point, bool) {
	type candidate struct {
		p Point
		d float64
	}
	var candidates []candidate
	for _, cell := range s.m.WalkableCells {
		dx := cell.CenterX - center.X
		dy := cell.CenterY - center.Y
		d := math.Sqrt(dx*dx + dy*dy)
		if d < minR || d > maxR {
			continue
		}
		candidates = append(candidates, candidate{p: Point{X: cell.CenterX, Y: cell.CenterY}, d: d})
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].d < candidates[j].d })

	for _, c := range candidates {
		if s.collision.RectCollidesBuildings(c.p.X, c.p.Y, w, h) {
			continue
		}
		if !s.withinMapMargin(c.p) {
			continue
		}
		if _, overlap := collision.FirstOverlapInRegion(c.p.X, c.p.Y, w, h, nearby, 0); overlap {
			continue
		}
		return c.p, true
	}
	return Point{}, false
}

// cornerInset falls back to the four map corners, inset by safeMargin.
func (s *Service) cornerInset(w, h float64, nearby []collision.Candidate) (Point, bool) {
	corners := [4]Point{
		{X: s.safeMargin, Y: s.safeMargin},
		{X: float64(s.m.Width) - s.safeMargin, Y: s.safeMargin},
		{X: s.safeMargin, Y: float64(s.m.Height) - s.safeMargin},
		{X: float64(s.m.Width) - s.safeMargin, Y: float64(s.m.Height) - s.safeMargin},
	}
	for _, p := range corners {
		if s.collision.RectCollidesBuildings(p.X, p.Y, w, h) {
			continue
		}
		if _, overlap := collision.FirstOverlapInRegion(p.X, p.Y, w, h, nearby, 0); overlap {
			continue
		}
		return p, true
	}
	return Point{}, false
}
