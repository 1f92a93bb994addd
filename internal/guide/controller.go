package guide

import (
	"math"

	"github.com/fieldline/guidance/internal/geo"
)

// Controller tuning constants shared by both lateral controllers.
const (
	// headingErrorClamp bounds the Stanley heading-error term before the
	// gain is applied.
	headingErrorClamp = 0.74
	// distErrSmoothing is the exponential smoothing weight applied to the
	// new cross-track sample feeding the integral accumulator; the
	// complement (0.8) weights the previous smoothed value.
	distErrSmoothing = 0.2
	// integralRate scales how fast the integral accumulator winds.
	integralRate = 0.05
	// maxIntegralFraction caps the integral contribution as a fraction of
	// the max steer angle so the accumulator can never dominate or diverge.
	maxIntegralFraction = 0.2
	// DefaultMinIntegralTicks is how many ticks must pass after a reset
	// before the integral term contributes.
	DefaultMinIntegralTicks = 20
)

// ControlState is the persistent filter state for one (vehicle, track)
// pairing. It must be reset whenever the active track changes, the reverse
// flag flips or autosteer disengages; a stored bias otherwise causes a
// steering lurch on re-engagement.
type ControlState struct {
	Integral        float64 // accumulated steer bias, radians
	PrevDistErr     float64 // smoothed cross-track error from the last tick
	PrevPrevDistErr float64
	Ticks           int // ticks since the last reset
}

// Reset zeroes the state.
func (s *ControlState) Reset() { *s = ControlState{} }

// ControlInput carries the per-tick vehicle data every controller consumes.
// GoalDistance is the speed- and error-dependent lookahead computed by the
// caller (see LookaheadDistance).
type ControlInput struct {
	Pivot        Waypoint // pivot pose: position plus fused heading
	SteerAxle    geo.Vec  // front-axle position, Stanley only
	Speed        float64  // metres per second
	Reverse      bool
	Engaged      bool    // autosteer engaged
	Roll         float64 // radians, side-hill compensation input
	GoalDistance float64 // goal-point distance, metres
	HintIndex    int     // last known segment index for the local search
	LocalSearch  bool    // use the windowed nearest-segment search
	LocalWindow  int     // window size; 0 means DefaultLocalSearchWindow
}

// ControlOutput is one tick's guidance result: the bounded steer command
// plus the cross-track error and visualization data for the rendering and
// transport collaborators.
type ControlOutput struct {
	SteerAngle    float64 // radians, right positive, within +-MaxSteerAngle
	CrossTrack    float64 // metres, right of track positive
	CrossTrackMM  int     // millimetres, rounded away from zero
	GoalPoint     geo.Vec
	TurnCenter    geo.Vec // pursuit circle center, valid when PursuitRadius != 0
	PursuitRadius float64 // signed radius, right positive; 0 when straight
	HintIndex     int     // segment index to feed back as the next hint
	EndOfTrack    bool    // normal condition, not an error
}

// Lookahead holds the tuning constants for the goal-point distance: it
// grows with speed and shrinks as cross-track error increases, trading
// near-field acquisition against far-field hold.
type Lookahead struct {
	Minimum     float64 // floor, metres
	SpeedGain   float64 // seconds of travel added per m/s
	ErrorShrink float64 // metres of lookahead removed per metre of error
}

// Distance computes the goal-point distance for the current speed and
// cross-track error, never dropping below the configured floor.
func (l Lookahead) Distance(speed, crossTrack float64) float64 {
	d := l.Minimum + math.Abs(speed)*l.SpeedGain - math.Abs(crossTrack)*l.ErrorShrink
	if d < l.Minimum {
		d = l.Minimum
	}
	return d
}

// crossTrackError computes the signed lateral distance from p to the track
// line through hit, using the standard point-to-line formula: left of travel
// is negative, right is positive. Zero-length segments fall back to the
// stored heading at the hit index instead of dividing by zero.
func crossTrackError(t *Track, hit SegmentHit, p geo.Vec) float64 {
	var a geo.Vec
	var dir geo.Vec
	if t.Type == TrackABLine {
		a, _ = t.abVirtualSegment()
		dir = geo.Dir(t.Points[0].Heading)
	} else {
		var ok bool
		a, _ = t.Segment(hit.Index)
		dir, ok = t.SegmentDir(hit.Index)
		if !ok {
			dir = geo.Dir(t.HeadingAt(hit.Index))
		}
	}
	return p.Sub(a).Cross(dir)
}

// nearestHit runs the configured nearest-segment search mode.
func nearestHit(t *Track, p geo.Vec, in ControlInput) (SegmentHit, error) {
	if in.LocalSearch {
		return t.NearestSegmentLocal(p, in.HintIndex, in.LocalWindow)
	}
	return t.NearestSegment(p)
}

// integralStep advances the smoothed distance-error filter and returns the
// integral steer contribution. The accumulator only winds and contributes
// when a gain is set, the vehicle is moving forward and enough ticks have
// passed since the last reset; it is clamped so it cannot diverge. An
// inactive tick still advances the filter but contributes nothing, so a
// reversing vehicle never steers on a stale bias.
func integralStep(st *ControlState, crossTrack, gain, maxSteer float64, minTicks int, active bool) float64 {
	st.Ticks++
	smoothed := st.PrevDistErr*(1-distErrSmoothing) + crossTrack*distErrSmoothing
	st.PrevPrevDistErr = st.PrevDistErr
	st.PrevDistErr = smoothed

	if gain == 0 || !active || st.Ticks < minTicks {
		return 0
	}
	st.Integral -= gain * smoothed * integralRate
	limit := maxSteer * maxIntegralFraction
	st.Integral = geo.Clamp(st.Integral, -limit, limit)
	return st.Integral
}

// millimetres converts a signed metre error to whole millimetres, rounded
// away from zero.
func millimetres(m float64) int {
	return int(math.Copysign(math.Floor(math.Abs(m)*1000+0.5), m))
}
