package guide

import (
	"fmt"
	"math"

	"github.com/fieldline/guidance/internal/geo"
)

// Stanley combines a heading-error term measured at the steer axle with a
// speed-scaled cross-track term, plus the shared integral bias and side-hill
// compensation.
type Stanley struct {
	HeadingGain      float64 // gain on the wrapped heading delta
	DistanceGain     float64 // gain on the cross-track term
	SideHillFactor   float64 // steer radians added per radian of roll
	MaxSteerAngle    float64 // radians
	IntegralGain     float64 // 0 disables the integral term
	MinIntegralTicks int     // 0 means DefaultMinIntegralTicks
}

// Steer computes one tick of Stanley guidance. The nearest-segment search
// and the cross-track error use the steer-axle position; the heading error
// compares the vehicle heading against the local track heading.
func (sc Stanley) Steer(t *Track, in ControlInput, st *ControlState) (ControlOutput, error) {
	if sc.MaxSteerAngle <= 0 {
		return ControlOutput{}, fmt.Errorf("guide: stanley misconfigured: maxSteer=%g", sc.MaxSteerAngle)
	}
	if t == nil || len(t.Points) < 2 {
		return ControlOutput{}, ErrTooFewPoints
	}
	if !in.Engaged {
		st.Reset()
	}

	axle := in.SteerAxle
	heading := in.Pivot.Heading
	if in.Reverse {
		heading = geo.WrapAngle(heading + math.Pi)
	}

	hit, err := nearestHit(t, axle, in)
	if err != nil {
		return ControlOutput{}, err
	}
	crossTrack := crossTrackError(t, hit, axle)

	trackHeading := t.HeadingAt(hit.Index)
	if t.Type == TrackABLine {
		trackHeading = t.Points[0].Heading
	}
	headingErr := geo.Clamp(geo.AngleDiff(trackHeading, heading), -headingErrorClamp, headingErrorClamp)

	steer := sc.HeadingGain * headingErr
	steer += math.Atan(sc.DistanceGain * -crossTrack / (math.Abs(in.Speed) + 1))

	minTicks := sc.MinIntegralTicks
	if minTicks <= 0 {
		minTicks = DefaultMinIntegralTicks
	}
	steer += integralStep(st, crossTrack, sc.IntegralGain, sc.MaxSteerAngle, minTicks, in.Engaged && !in.Reverse)
	steer += in.Roll * sc.SideHillFactor

	if in.Reverse {
		steer = -steer
	}

	return ControlOutput{
		SteerAngle:   geo.Clamp(steer, -sc.MaxSteerAngle, sc.MaxSteerAngle),
		CrossTrack:   crossTrack,
		CrossTrackMM: millimetres(crossTrack),
		GoalPoint:    hit.Point,
		HintIndex:    hit.Index,
		EndOfTrack:   hit.EndOfTrack,
	}, nil
}
