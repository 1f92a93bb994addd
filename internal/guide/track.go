// Package guide implements the guidance core for an autonomous farm-vehicle
// steering system: the unified Track model, the Dubins connector planner, the
// Pure Pursuit and Stanley lateral controllers, and the recorded-path
// executor. Everything here is tick-driven and single-threaded; one guidance
// computation runs per incoming position update and mutation (nudge, append)
// is applied between ticks only.
package guide

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/fieldline/guidance/internal/geo"
)

// TrackType tags the provenance of a track. The walking and search logic is
// type-unaware; the tag matters only where the 2-point-vs-N-point or
// open-vs-closed distinction genuinely changes geometry (virtual AB
// extension, loop wraparound).
type TrackType string

const (
	TrackABLine        TrackType = "ab_line"
	TrackCurve         TrackType = "curve"
	TrackBoundaryOuter TrackType = "boundary_outer"
	TrackBoundaryInner TrackType = "boundary_inner"
	TrackContour       TrackType = "contour"
	TrackWaterPivot    TrackType = "water_pivot"
)

// abExtension is how far an AB line is projected beyond its two stored
// points before geometric tests. The extension happens at use-time and is
// never stored.
const abExtension = 2000.0

// DefaultLocalSearchWindow is the number of forward segments scanned by the
// windowed nearest-segment search. Empirical; override via tuning.
const DefaultLocalSearchWindow = 5

// ErrTooFewPoints reports a track with fewer points than an operation needs.
// It indicates a caller bug, not a runtime condition to recover from.
var ErrTooFewPoints = errors.New("guide: track has too few points")

// Waypoint is one sample of a track: a position plus the compass heading of
// travel through it (0 = north, clockwise positive).
type Waypoint struct {
	Easting  float64
	Northing float64
	Heading  float64
}

// Pos returns the waypoint position as a vector.
func (w Waypoint) Pos() geo.Vec { return geo.Vec{E: w.Easting, N: w.Northing} }

// WaypointAt builds a waypoint from a position and heading.
func WaypointAt(p geo.Vec, heading float64) Waypoint {
	return Waypoint{Easting: p.E, Northing: p.N, Heading: heading}
}

// Track is the unified guidance line: an AB line, a recorded curve, a
// boundary-derived line or a contour, all represented as an ordered waypoint
// sequence. An AB line stores exactly two points and is conceptually
// infinite; every other type stores its points explicitly. Adjacent
// duplicate points are tolerated everywhere.
type Track struct {
	ID            uuid.UUID
	Name          string
	Type          TrackType
	Points        []Waypoint
	IsClosed      bool
	NudgeDistance float64 // accumulated lateral nudge, metres, right positive
	IsActive      bool
	IsVisible     bool
}

// NewABLine creates a two-point AB line through a and b. The stored headings
// both carry the a-to-b compass heading.
func NewABLine(name string, a, b geo.Vec) (*Track, error) {
	if _, err := b.Sub(a).Normalize(); err != nil {
		return nil, fmt.Errorf("guide: AB points are coincident: %w", err)
	}
	h := geo.Heading(a, b)
	return &Track{
		ID:        uuid.New(),
		Name:      name,
		Type:      TrackABLine,
		Points:    []Waypoint{WaypointAt(a, h), WaypointAt(b, h)},
		IsVisible: true,
	}, nil
}

// NewCurve creates an N-point track of the given type. Closed tracks wrap
// their last segment back to the first point.
func NewCurve(name string, typ TrackType, points []Waypoint, closed bool) (*Track, error) {
	if len(points) < 2 {
		return nil, ErrTooFewPoints
	}
	if typ == TrackABLine {
		return nil, errors.New("guide: use NewABLine for AB lines")
	}
	return &Track{
		ID:        uuid.New(),
		Name:      name,
		Type:      typ,
		Points:    points,
		IsClosed:  closed,
		IsVisible: true,
	}, nil
}

// SegmentCount returns the number of adjacent point pairs, including the
// wraparound pair on closed tracks.
func (t *Track) SegmentCount() int {
	if len(t.Points) < 2 {
		return 0
	}
	if t.IsClosed {
		return len(t.Points)
	}
	return len(t.Points) - 1
}

// Segment returns the endpoints of segment i. On closed tracks the index
// wraps; on open tracks it is the caller's job to stay in range.
func (t *Track) Segment(i int) (a, b geo.Vec) {
	n := len(t.Points)
	return t.Points[i%n].Pos(), t.Points[(i+1)%n].Pos()
}

// SegmentDir returns the unit direction of segment i. ok is false for a
// zero-length segment; callers must fall back to a stored heading instead of
// dividing by zero.
func (t *Track) SegmentDir(i int) (geo.Vec, bool) {
	a, b := t.Segment(i)
	dir, err := b.Sub(a).Normalize()
	if err != nil {
		return geo.Vec{}, false
	}
	return dir, true
}

// HeadingAt returns the compass heading of travel at point i: the direction
// of the first non-degenerate segment at or after i, falling back to the
// stored waypoint heading when every candidate is zero-length.
func (t *Track) HeadingAt(i int) float64 {
	n := t.SegmentCount()
	if n == 0 {
		return t.Points[0].Heading
	}
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	for k := 0; k < n; k++ {
		idx := i + k
		if !t.IsClosed && idx >= n {
			break
		}
		if dir, ok := t.SegmentDir(idx % n); ok {
			return geo.HeadingOf(dir)
		}
	}
	return t.Points[i%len(t.Points)].Heading
}

// Length returns the total polyline length in metres.
func (t *Track) Length() float64 {
	var sum float64
	for i := 0; i < t.SegmentCount(); i++ {
		a, b := t.Segment(i)
		sum += a.DistanceTo(b)
	}
	return sum
}

// SegmentHit is the result of a nearest-segment search.
type SegmentHit struct {
	Index      int     // segment start index
	T          float64 // parametric position on the segment, clamped [0,1]
	Point      geo.Vec // closest point on the track
	DistSq     float64 // squared distance from the query point
	EndOfTrack bool    // forward index reached the last point of an open track
}

// abVirtualSegment returns the use-time extension of a two-point AB line:
// both endpoints pushed abExtension metres out along the line heading.
func (t *Track) abVirtualSegment() (a, b geo.Vec) {
	dir := geo.Dir(t.Points[0].Heading)
	a = t.Points[0].Pos().Sub(dir.Scale(abExtension))
	b = t.Points[1].Pos().Add(dir.Scale(abExtension))
	return a, b
}

// NearestSegment scans every segment and returns the closest one to p. Ties
// keep the first minimum. AB lines are tested against their virtual
// extension, so the result never reports end-of-track for them.
func (t *Track) NearestSegment(p geo.Vec) (SegmentHit, error) {
	if len(t.Points) < 2 {
		return SegmentHit{}, ErrTooFewPoints
	}

	if t.Type == TrackABLine {
		a, b := t.abVirtualSegment()
		closest, tt := geo.ProjectOntoSegment(p, a, b)
		return SegmentHit{Index: 0, T: tt, Point: closest, DistSq: p.DistanceSqTo(closest)}, nil
	}

	n := t.SegmentCount()
	distSq := make([]float64, n)
	for i := 0; i < n; i++ {
		a, b := t.Segment(i)
		distSq[i] = geo.SegmentDistanceSq(p, a, b)
	}
	best := floats.MinIdx(distSq) // first minimum wins on ties
	return t.hitAt(p, best), nil
}

// NearestSegmentLocal scans only window segments forward of the hint index,
// bounding the cost of steady-state following on long tracks. On open tracks
// the scan clamps at the last segment; reaching its far end raises the
// end-of-track flag, which is a normal state, not an error.
func (t *Track) NearestSegmentLocal(p geo.Vec, hint, window int) (SegmentHit, error) {
	if len(t.Points) < 2 {
		return SegmentHit{}, ErrTooFewPoints
	}
	if t.Type == TrackABLine {
		return t.NearestSegment(p)
	}
	if window < 1 {
		window = DefaultLocalSearchWindow
	}

	n := t.SegmentCount()
	if hint < 0 {
		hint = 0
	}
	if hint >= n {
		hint = n - 1
	}

	bestIdx := -1
	bestDistSq := 0.0
	for k := 0; k < window; k++ {
		idx := hint + k
		if idx >= n {
			if !t.IsClosed {
				break
			}
			idx %= n
		}
		a, b := t.Segment(idx)
		d := geo.SegmentDistanceSq(p, a, b)
		if bestIdx == -1 || d < bestDistSq {
			bestIdx = idx
			bestDistSq = d
		}
	}
	return t.hitAt(p, bestIdx), nil
}

// hitAt rebuilds the full hit record for the chosen segment.
func (t *Track) hitAt(p geo.Vec, idx int) SegmentHit {
	a, b := t.Segment(idx)
	closest, tt := geo.ProjectOntoSegment(p, a, b)
	hit := SegmentHit{Index: idx, T: tt, Point: closest, DistSq: p.DistanceSqTo(closest)}
	if !t.IsClosed && idx == t.SegmentCount()-1 && tt >= 1 {
		hit.EndOfTrack = true
	}
	return hit
}

// Nudge shifts the whole track laterally by offset metres (right of travel
// positive) and accumulates the applied distance. The point list is replaced
// wholesale so a guidance read never observes a half-shifted track; callers
// apply nudges between ticks.
func (t *Track) Nudge(offset float64) {
	if len(t.Points) == 0 || offset == 0 {
		return
	}
	shifted := make([]Waypoint, len(t.Points))
	for i, w := range t.Points {
		h := t.HeadingAt(i)
		p := w.Pos().Add(geo.RightNormal(h).Scale(offset))
		shifted[i] = Waypoint{Easting: p.E, Northing: p.N, Heading: w.Heading}
	}
	t.Points = shifted
	t.NudgeDistance += offset
}

// Append adds a waypoint to the end of the track (contour recording).
func (t *Track) Append(w Waypoint) {
	t.Points = append(t.Points, w)
}

// Smoothed returns a new track resampled through a Catmull-Rom spline with
// samplesPerSpan points per original span, so hand-recorded jitter does not
// feed steering noise. Headings are recomputed from the resampled geometry.
// AB lines are already straight and are returned unchanged.
func (t *Track) Smoothed(samplesPerSpan int) (*Track, error) {
	if t.Type == TrackABLine || len(t.Points) < 3 {
		return t, nil
	}

	raw := make([]geo.Vec, len(t.Points))
	for i, w := range t.Points {
		raw[i] = w.Pos()
	}
	resampled := geo.CatmullRomChain(raw, samplesPerSpan)

	pts := make([]Waypoint, len(resampled))
	for i, p := range resampled {
		pts[i] = WaypointAt(p, 0)
	}
	for i := range pts {
		next := i + 1
		if next == len(pts) {
			next = i
		}
		if i == next {
			pts[i].Heading = pts[i-1].Heading
		} else {
			pts[i].Heading = geo.Heading(pts[i].Pos(), pts[next].Pos())
		}
	}

	out, err := NewCurve(t.Name, t.Type, pts, t.IsClosed)
	if err != nil {
		return nil, err
	}
	out.NudgeDistance = t.NudgeDistance
	return out, nil
}
