package guide

import (
	"fmt"
	"math"

	"github.com/fieldline/guidance/internal/geo"
)

// PurePursuit steers toward a goal point a configurable arc length ahead on
// the track, turning on the circle through the pivot and that point.
type PurePursuit struct {
	Wheelbase        float64 // metres
	MaxSteerAngle    float64 // radians
	IntegralGain     float64 // 0 disables the integral term
	MinIntegralTicks int     // 0 means DefaultMinIntegralTicks
}

// Steer computes one tick of Pure Pursuit guidance over the active track.
// The returned steer angle is always within +-MaxSteerAngle; end-of-track is
// reported as a flag on the output, never as an error.
func (pp PurePursuit) Steer(t *Track, in ControlInput, st *ControlState) (ControlOutput, error) {
	if pp.Wheelbase <= 0 || pp.MaxSteerAngle <= 0 {
		return ControlOutput{}, fmt.Errorf("guide: pure pursuit misconfigured: wheelbase=%g maxSteer=%g", pp.Wheelbase, pp.MaxSteerAngle)
	}
	if t == nil || len(t.Points) < 2 {
		return ControlOutput{}, ErrTooFewPoints
	}
	if !in.Engaged {
		st.Reset()
	}

	pivot := in.Pivot.Pos()
	heading := in.Pivot.Heading
	if in.Reverse {
		heading = geo.WrapAngle(heading + math.Pi)
	}

	hit, err := nearestHit(t, pivot, in)
	if err != nil {
		return ControlOutput{}, err
	}
	crossTrack := crossTrackError(t, hit, pivot)

	// Callers normally supply the goal distance from the lookahead tuning.
	// When unset, one wheelbase is the shortest drivable chord; anything
	// shorter saturates the steer command on the smallest offset.
	distance := in.GoalDistance
	if distance <= 0 {
		distance = pp.Wheelbase
	}
	goal, atEnd := goalPoint(t, hit, distance)
	out := ControlOutput{
		CrossTrack:   crossTrack,
		CrossTrackMM: millimetres(crossTrack),
		GoalPoint:    goal,
		HintIndex:    hit.Index,
		EndOfTrack:   hit.EndOfTrack || atEnd,
	}

	rel := goal.Sub(pivot)
	chord := rel.Length()
	lateral := rel.Dot(geo.RightNormal(heading))

	var steer float64
	if chord > 1e-9 && math.Abs(lateral) > 1e-9 {
		radius := chord * chord / (2 * lateral)
		steer = math.Atan(pp.Wheelbase / radius)
		out.PursuitRadius = radius
		out.TurnCenter = pivot.Add(geo.RightNormal(heading).Scale(radius))
	}

	minTicks := pp.MinIntegralTicks
	if minTicks <= 0 {
		minTicks = DefaultMinIntegralTicks
	}
	steer += integralStep(st, crossTrack, pp.IntegralGain, pp.MaxSteerAngle, minTicks, in.Engaged && !in.Reverse)

	if in.Reverse {
		// Front-wheel steering acts mirrored when backing toward the goal.
		steer = -steer
	}
	out.SteerAngle = geo.Clamp(steer, -pp.MaxSteerAngle, pp.MaxSteerAngle)
	return out, nil
}

// goalPoint walks forward from the nearest point, accumulating arc length
// until the goal distance is reached. Open tracks clamp at the final point
// and report it; closed tracks wrap. AB lines project directly along their
// heading since they are conceptually infinite.
func goalPoint(t *Track, hit SegmentHit, distance float64) (geo.Vec, bool) {
	if t.Type == TrackABLine {
		return hit.Point.Add(geo.Dir(t.Points[0].Heading).Scale(distance)), false
	}

	segCount := t.SegmentCount()
	cur := hit.Point
	idx := hit.Index
	remaining := distance

	// Bounded walk: at most one full lap plus the starting segment, so a
	// track of duplicate points cannot loop forever.
	for steps := 0; steps <= segCount; steps++ {
		_, b := t.Segment(idx)
		span := cur.DistanceTo(b)
		if span >= remaining && span > 1e-12 {
			return cur.Add(b.Sub(cur).Scale(remaining / span)), false
		}
		remaining -= span
		cur = b
		idx++
		if idx >= segCount {
			if !t.IsClosed {
				return cur, true // clamp at track end
			}
			idx = 0
		}
	}
	return cur, !t.IsClosed
}
