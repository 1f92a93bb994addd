package guide

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/fieldline/guidance/internal/geo"
)

// DubinsWord names one of the six canonical Dubins path shapes: a turn, a
// straight or middle turn, then a turn.
type DubinsWord string

const (
	WordRSR DubinsWord = "RSR"
	WordLSL DubinsWord = "LSL"
	WordRSL DubinsWord = "RSL"
	WordLSR DubinsWord = "LSR"
	WordRLR DubinsWord = "RLR"
	WordLRL DubinsWord = "LRL"
)

// Turn directions per segment: +1 steers right (compass heading increasing),
// -1 steers left, 0 is the straight segment.
const (
	turnRight    = 1
	turnLeft     = -1
	turnStraight = 0
)

// DefaultDriveDistance is the discretization step for realized Dubins paths.
const DefaultDriveDistance = 0.05

// ErrNoPath reports that no valid Dubins candidate exists for the given
// poses and radius. This is the expected signal for an unavoidable geometric
// blockage, never substituted with a degenerate path.
var ErrNoPath = errors.New("guide: no valid dubins path")

// DubinsSolution describes the winning candidate: word, per-segment lengths
// and turn senses, and the two tangent points where the segments meet.
type DubinsSolution struct {
	Word           DubinsWord
	SegmentLengths [3]float64
	Turns          [3]int
	Tangent1       geo.Vec
	Tangent2       geo.Vec
	Length         float64
}

// DubinsPlanner computes shortest connector paths under a minimum turning
// radius. The radius is an explicit field threaded through every call; there
// is no process-wide current radius.
type DubinsPlanner struct {
	TurningRadius float64 // metres, must be > 0
	DriveDistance float64 // discretization step, metres; 0 means default
}

// Plan returns the shortest of the six canonical paths from start to goal as
// a solution plus its discretized polyline with per-sample heading. The
// first sample is the start pose and the last is the exact goal. A
// non-positive radius is a caller bug and fails fast; geometric blockage
// returns ErrNoPath.
func (pl DubinsPlanner) Plan(start, goal Waypoint) (DubinsSolution, []Waypoint, error) {
	r := pl.TurningRadius
	if r <= 0 {
		return DubinsSolution{}, nil, fmt.Errorf("guide: turning radius must be positive, got %g", r)
	}
	drive := pl.DriveDistance
	if drive <= 0 {
		drive = DefaultDriveDistance
	}

	// Coincident start/goal with equal heading: near-zero-length path,
	// returned directly so no candidate math divides by zero.
	if start.Pos().DistanceSqTo(goal.Pos()) < drive*drive &&
		math.Abs(geo.AngleDiff(goal.Heading, start.Heading)) < 1e-3 {
		return DubinsSolution{Word: WordRSR}, []Waypoint{start, goal}, nil
	}

	// The four circle centers tangent to the start/goal headings, offset by
	// r perpendicular to heading on each side.
	sr := start.Pos().Add(geo.RightNormal(start.Heading).Scale(r))
	sl := start.Pos().Sub(geo.RightNormal(start.Heading).Scale(r))
	gr := goal.Pos().Add(geo.RightNormal(goal.Heading).Scale(r))
	gl := goal.Pos().Sub(geo.RightNormal(goal.Heading).Scale(r))

	var candidates []DubinsSolution
	add := func(sol DubinsSolution, ok bool) {
		if ok {
			sol.Length = sol.SegmentLengths[0] + sol.SegmentLengths[1] + sol.SegmentLengths[2]
			candidates = append(candidates, sol)
		}
	}

	add(pl.tangentCandidate(WordRSR, start, goal, sr, gr, turnRight, turnRight))
	add(pl.tangentCandidate(WordLSL, start, goal, sl, gl, turnLeft, turnLeft))
	add(pl.tangentCandidate(WordRSL, start, goal, sr, gl, turnRight, turnLeft))
	add(pl.tangentCandidate(WordLSR, start, goal, sl, gr, turnLeft, turnRight))
	add(pl.tripleArcCandidate(WordRLR, start, goal, sr, gr))
	add(pl.tripleArcCandidate(WordLRL, start, goal, sl, gl))

	if len(candidates) == 0 {
		return DubinsSolution{}, nil, ErrNoPath
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Length < candidates[j].Length })
	best := candidates[0]

	return best, pl.discretize(start, goal, best, drive), nil
}

// arcAngle returns the angle subtended when turning from heading `from` to
// heading `to` in the given rotational sense, normalized into [0, 2*pi).
func arcAngle(from, to float64, turn int) float64 {
	var a float64
	if turn == turnRight {
		a = geo.Mod2Pi(to - from)
	} else {
		a = geo.Mod2Pi(from - to)
	}
	// Floating noise just below a full circle is a zero-length arc, not a
	// full lap.
	if a > 2*math.Pi-1e-9 {
		a = 0
	}
	return a
}

// tangentPoint returns the point on a turning circle where travel heading
// equals h: the vehicle sits r to the side of its circle center, opposite
// the turn direction.
func tangentPoint(center geo.Vec, r, h float64, turn int) geo.Vec {
	if turn == turnRight {
		return center.Add(geo.Dir(h - math.Pi/2).Scale(r))
	}
	return center.Add(geo.Dir(h + math.Pi/2).Scale(r))
}

// tangentCandidate builds the four turn-straight-turn words. Outer-tangent
// words (RSR, LSL) run the straight along the center separation vector;
// inner-tangent words (RSL, LSR) rotate it by the crossing angle and are
// invalid when the circles overlap (separation <= 2r).
func (pl DubinsPlanner) tangentCandidate(word DubinsWord, start, goal Waypoint, c1, c2 geo.Vec, turn1, turn3 int) (DubinsSolution, bool) {
	r := pl.TurningRadius
	sep := c2.Sub(c1)
	dist := sep.Length()

	// Same circle twice: the connector is a single arc.
	if dist < 1e-9 {
		if turn1 != turn3 {
			return DubinsSolution{}, false
		}
		sweep := arcAngle(start.Heading, goal.Heading, turn1)
		g := goal.Pos()
		return DubinsSolution{
			Word:           word,
			SegmentLengths: [3]float64{r * sweep, 0, 0},
			Turns:          [3]int{turn1, turnStraight, turn3},
			Tangent1:       g,
			Tangent2:       g,
		}, true
	}

	theta := geo.HeadingOf(sep)
	straightHeading := theta
	straightLen := dist
	if turn1 != turn3 {
		// Inner tangent: no valid crossing when the circles overlap.
		if dist <= 2*r {
			return DubinsSolution{}, false
		}
		straightLen = math.Sqrt(dist*dist - 4*r*r)
		crossing := math.Atan2(2*r, straightLen)
		if turn1 == turnRight {
			straightHeading = theta + crossing // RSL
		} else {
			straightHeading = theta - crossing // LSR
		}
	}

	t1 := tangentPoint(c1, r, straightHeading, turn1)
	t2 := tangentPoint(c2, r, straightHeading, turn3)

	return DubinsSolution{
		Word: word,
		SegmentLengths: [3]float64{
			r * arcAngle(start.Heading, straightHeading, turn1),
			straightLen,
			r * arcAngle(straightHeading, goal.Heading, turn3),
		},
		Turns:    [3]int{turn1, turnStraight, turn3},
		Tangent1: t1,
		Tangent2: t2,
	}, true
}

// tripleArcCandidate builds RLR and LRL: a middle circle tangent to both
// outer circles, located by the law of cosines on the center separation.
// Invalid when the separation reaches 4r and the middle circle cannot touch
// both.
func (pl DubinsPlanner) tripleArcCandidate(word DubinsWord, start, goal Waypoint, c1, c2 geo.Vec) (DubinsSolution, bool) {
	r := pl.TurningRadius
	sep := c2.Sub(c1)
	dist := sep.Length()
	if dist >= 4*r {
		return DubinsSolution{}, false
	}

	outer := turnRight
	middle := turnLeft
	if word == WordLRL {
		outer = turnLeft
		middle = turnRight
	}

	// Triangle c1-c3-c2 has sides 2r, 2r and dist; the apex angle at c1
	// follows from the law of cosines.
	apex := math.Acos(dist / (4 * r))
	theta := geo.HeadingOf(sep)
	var c3 geo.Vec
	if word == WordRLR {
		c3 = c1.Add(geo.Dir(theta - apex).Scale(2 * r))
	} else {
		c3 = c1.Add(geo.Dir(theta + apex).Scale(2 * r))
	}

	t1 := c1.Add(c3).Scale(0.5)
	t2 := c2.Add(c3).Scale(0.5)

	// Travel heading at a tangency follows from the radial direction on the
	// outer circle.
	radial := math.Pi / 2
	if outer == turnLeft {
		radial = -math.Pi / 2
	}
	h1 := geo.WrapAngle(geo.HeadingOf(t1.Sub(c1)) + radial)
	h2 := geo.WrapAngle(geo.HeadingOf(t2.Sub(c2)) + radial)

	return DubinsSolution{
		Word: word,
		SegmentLengths: [3]float64{
			r * arcAngle(start.Heading, h1, outer),
			r * arcAngle(h1, h2, middle),
			r * arcAngle(h2, goal.Heading, outer),
		},
		Turns:    [3]int{outer, middle, outer},
		Tangent1: t1,
		Tangent2: t2,
	}, true
}

// discretize realizes the solution as a fixed-step polyline: heading steps
// by drive/r per sample on a turning segment (sign per turn direction) and
// holds constant on the straight. Position advances along the mid-step
// heading so arc samples stay on the circle instead of drifting outward.
// The final sample is the exact goal pose.
func (pl DubinsPlanner) discretize(start, goal Waypoint, sol DubinsSolution, drive float64) []Waypoint {
	r := pl.TurningRadius
	pts := make([]Waypoint, 0, int(sol.Length/drive)+2)
	pts = append(pts, start)

	p := start.Pos()
	h := start.Heading
	step := func(d float64, turn int) {
		if turn == turnStraight {
			p = p.Add(geo.Dir(h).Scale(d))
		} else {
			half := float64(turn) * d / (2 * r)
			p = p.Add(geo.Dir(h + half).Scale(d))
			h = geo.WrapAngle(h + 2*half)
		}
		pts = append(pts, WaypointAt(p, h))
	}

	for seg := 0; seg < 3; seg++ {
		remaining := sol.SegmentLengths[seg]
		for remaining >= drive {
			step(drive, sol.Turns[seg])
			remaining -= drive
		}
		if remaining > 1e-9 {
			step(remaining, sol.Turns[seg])
		}
	}

	return append(pts, goal)
}

// ShuttleTrack wraps a discretized Dubins polyline as a contour-type track
// so the lateral controllers can follow it like any other point sequence.
func ShuttleTrack(name string, points []Waypoint) (*Track, error) {
	return NewCurve(name, TrackContour, points, false)
}
