// Package geo provides the 2D geometry kernel shared by the guidance core:
// vector and segment math, compass-angle helpers and Catmull-Rom smoothing.
// Coordinates are local-plane metres (easting, northing). All functions are
// pure; nothing in this package holds state.
package geo

import (
	"errors"
	"math"
)

// DegenerateLength is the squared-length floor below which a vector cannot be
// normalized. Callers that hit ErrDegenerate must fall back, not crash.
const DegenerateLength = 1e-12

// ErrDegenerate is returned when an operation needs a direction from a
// vector that is too short to carry one.
var ErrDegenerate = errors.New("geo: degenerate vector")

// Vec is a 2D vector or point in local-plane coordinates.
type Vec struct {
	E float64 // easting, metres
	N float64 // northing, metres
}

// Add returns v + o.
func (v Vec) Add(o Vec) Vec { return Vec{v.E + o.E, v.N + o.N} }

// Sub returns v - o.
func (v Vec) Sub(o Vec) Vec { return Vec{v.E - o.E, v.N - o.N} }

// Scale returns v scaled by s.
func (v Vec) Scale(s float64) Vec { return Vec{v.E * s, v.N * s} }

// Dot returns the dot product of v and o.
func (v Vec) Dot(o Vec) float64 { return v.E*o.E + v.N*o.N }

// Cross returns the z component of v x o.
func (v Vec) Cross(o Vec) float64 { return v.E*o.N - v.N*o.E }

// Length returns the Euclidean length of v.
func (v Vec) Length() float64 { return math.Hypot(v.E, v.N) }

// LengthSq returns the squared length of v. Cheaper than Length when only
// comparisons are needed.
func (v Vec) LengthSq() float64 { return v.E*v.E + v.N*v.N }

// Normalize returns v scaled to unit length, or ErrDegenerate when v is too
// short to define a direction.
func (v Vec) Normalize() (Vec, error) {
	lsq := v.LengthSq()
	if lsq < DegenerateLength {
		return Vec{}, ErrDegenerate
	}
	inv := 1 / math.Sqrt(lsq)
	return Vec{v.E * inv, v.N * inv}, nil
}

// DistanceTo returns the Euclidean distance between points v and o.
func (v Vec) DistanceTo(o Vec) float64 { return v.Sub(o).Length() }

// DistanceSqTo returns the squared distance between points v and o.
func (v Vec) DistanceSqTo(o Vec) float64 { return v.Sub(o).LengthSq() }

// ProjectOntoSegment projects p onto segment a-b and returns the closest
// point together with the parametric position t clamped to [0,1]. A
// zero-length segment projects everything onto a with t = 0; that case is
// legal input everywhere in the guidance core.
func ProjectOntoSegment(p, a, b Vec) (Vec, float64) {
	ab := b.Sub(a)
	lsq := ab.LengthSq()
	if lsq < DegenerateLength {
		return a, 0
	}
	t := p.Sub(a).Dot(ab) / lsq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Add(ab.Scale(t)), t
}

// SegmentDistanceSq returns the squared distance from p to segment a-b.
func SegmentDistanceSq(p, a, b Vec) float64 {
	closest, _ := ProjectOntoSegment(p, a, b)
	return p.DistanceSqTo(closest)
}

// SegmentDistance returns the distance from p to segment a-b.
func SegmentDistance(p, a, b Vec) float64 {
	return math.Sqrt(SegmentDistanceSq(p, a, b))
}
