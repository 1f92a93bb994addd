package guide

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/guidance/internal/geo"
)

// simVehicle is a kinematic bicycle model for closed-loop controller tests.
type simVehicle struct {
	pos       geo.Vec
	heading   float64
	wheelbase float64
}

// step advances the model by dt seconds at the given speed and steer angle.
// Compass headings grow clockwise, so a positive (right) steer angle
// increases the heading.
func (v *simVehicle) step(steer, speed, dt float64) {
	v.heading = geo.WrapAngle(v.heading + speed*dt*math.Tan(steer)/v.wheelbase)
	v.pos = v.pos.Add(geo.Dir(v.heading).Scale(speed * dt))
}

func (v *simVehicle) pose() Waypoint { return WaypointAt(v.pos, v.heading) }

func testPurePursuit() PurePursuit {
	return PurePursuit{Wheelbase: 2.5, MaxSteerAngle: 40 * math.Pi / 180}
}

func TestPurePursuitOffsetFromABLine(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)

	pp := testPurePursuit()
	var st ControlState
	out, err := pp.Steer(ab, ControlInput{
		Pivot:        pose(5, 50, 0),
		Speed:        2,
		Engaged:      true,
		GoalDistance: 5,
	}, &st)
	require.NoError(t, err)

	// 5 m right of the line: the error is exact and the steer command points
	// left.
	assert.Equal(t, 5.0, out.CrossTrack)
	assert.Equal(t, 5000, out.CrossTrackMM)
	assert.InDelta(t, math.Atan(2.5/-5.0), out.SteerAngle, 1e-9)
	assert.Negative(t, out.SteerAngle)

	// Goal point projects along the line heading from the nearest point.
	assert.InDelta(t, 0, out.GoalPoint.E, 1e-9)
	assert.InDelta(t, 55, out.GoalPoint.N, 1e-9)
	assert.InDelta(t, -5, out.PursuitRadius, 1e-9)
	assert.False(t, out.EndOfTrack)
}

func TestPurePursuitConvergesToABLine(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)

	pp := testPurePursuit()
	veh := simVehicle{pos: geo.Vec{E: 5, N: 0}, heading: 0, wheelbase: pp.Wheelbase}
	var st ControlState

	const (
		speed = 2.0
		dt    = 0.1
	)
	var out ControlOutput
	for i := 0; i < 600; i++ {
		var err error
		out, err = pp.Steer(ab, ControlInput{
			Pivot:        veh.pose(),
			Speed:        speed,
			Engaged:      true,
			GoalDistance: 4,
		}, &st)
		require.NoError(t, err)
		veh.step(out.SteerAngle, speed, dt)
	}

	assert.Less(t, math.Abs(out.CrossTrack), 0.2, "vehicle should settle onto the line")
	assert.Less(t, math.Abs(out.SteerAngle), 0.1, "steer should settle near zero")
	assert.Less(t, math.Abs(geo.AngleDiff(veh.heading, 0)), 0.1)
}

func TestPurePursuitSteerClamped(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)
	pp := testPurePursuit()

	t.Run("close goal saturates the angle", func(t *testing.T) {
		t.Parallel()
		var st ControlState
		out, err := pp.Steer(ab, ControlInput{
			Pivot:        pose(5, 50, 0),
			Engaged:      true,
			GoalDistance: 0.5,
		}, &st)
		require.NoError(t, err)
		assert.InDelta(t, -pp.MaxSteerAngle, out.SteerAngle, 1e-9)
	})

	t.Run("bounded under extreme offsets", func(t *testing.T) {
		t.Parallel()
		for _, p := range []Waypoint{
			pose(10000, 50, 0),
			pose(-10000, 50, math.Pi/2),
			pose(3, 50, math.Pi),
			pose(0.1, 50, -math.Pi/2),
		} {
			var st ControlState
			out, err := pp.Steer(ab, ControlInput{Pivot: p, Engaged: true, GoalDistance: 3}, &st)
			require.NoError(t, err)
			assert.LessOrEqual(t, math.Abs(out.SteerAngle), pp.MaxSteerAngle, "pivot %+v", p)
			assert.False(t, math.IsNaN(out.SteerAngle))
		}
	})
}

func TestPurePursuitReverse(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)
	pp := testPurePursuit()

	var st ControlState
	out, err := pp.Steer(ab, ControlInput{
		Pivot:        pose(5, 50, 0),
		Reverse:      true,
		Engaged:      true,
		GoalDistance: 5,
	}, &st)
	require.NoError(t, err)

	// Backing with the line to the left of travel: mirrored front-wheel
	// geometry still commands a steer toward the line.
	assert.InDelta(t, math.Atan(2.5/-5.0), out.SteerAngle, 1e-9)
	assert.Equal(t, 5.0, out.CrossTrack)
}

func TestPurePursuitDisengagedResetsState(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)
	pp := testPurePursuit()

	st := ControlState{Integral: 0.1, PrevDistErr: 2, Ticks: 50}
	_, err = pp.Steer(ab, ControlInput{Pivot: pose(1, 10, 0), Engaged: false, GoalDistance: 3}, &st)
	require.NoError(t, err)

	assert.Zero(t, st.Integral)
	assert.Equal(t, 1, st.Ticks, "only the current tick counted after the reset")
}

func TestPurePursuitIntegralBounded(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)
	pp := testPurePursuit()
	pp.IntegralGain = 1
	pp.MinIntegralTicks = 1

	// A vehicle pinned off the line winds the accumulator to its clamp and
	// no further.
	var st ControlState
	for i := 0; i < 500; i++ {
		out, err := pp.Steer(ab, ControlInput{
			Pivot:        pose(5, 50, 0),
			Speed:        2,
			Engaged:      true,
			GoalDistance: 5,
		}, &st)
		require.NoError(t, err)
		assert.LessOrEqual(t, math.Abs(out.SteerAngle), pp.MaxSteerAngle)
	}
	limit := pp.MaxSteerAngle * maxIntegralFraction
	assert.InDelta(t, -limit, st.Integral, 1e-9)
}

func TestPurePursuitReverseIgnoresStoredIntegral(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)
	pp := testPurePursuit()
	pp.IntegralGain = 1
	pp.MinIntegralTicks = 1

	// Wind the accumulator to its clamp while driving forward.
	var st ControlState
	for i := 0; i < 300; i++ {
		_, err := pp.Steer(ab, ControlInput{
			Pivot:        pose(5, 50, 0),
			Speed:        2,
			Engaged:      true,
			GoalDistance: 5,
		}, &st)
		require.NoError(t, err)
	}
	limit := pp.MaxSteerAngle * maxIntegralFraction
	require.InDelta(t, -limit, st.Integral, 1e-9)

	// Reversing must steer on geometry alone; the stored bias neither
	// contributes nor winds further.
	out, err := pp.Steer(ab, ControlInput{
		Pivot:        pose(5, 50, 0),
		Speed:        2,
		Reverse:      true,
		Engaged:      true,
		GoalDistance: 5,
	}, &st)
	require.NoError(t, err)
	assert.InDelta(t, -math.Atan(2.5/5.0), out.SteerAngle, 1e-9)
	assert.InDelta(t, -limit, st.Integral, 1e-9)
}

func TestPurePursuitGoalDistanceFloor(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)
	pp := testPurePursuit()

	// An unset goal distance falls back to one wheelbase, so a small offset
	// cannot saturate the steer command.
	var st ControlState
	out, err := pp.Steer(ab, ControlInput{Pivot: pose(0.2, 50, 0), Engaged: true}, &st)
	require.NoError(t, err)

	assert.InDelta(t, 52.5, out.GoalPoint.N, 1e-9)
	assert.InDelta(t, math.Atan(2.5/-15.725), out.SteerAngle, 1e-9)
	assert.Greater(t, out.SteerAngle, -pp.MaxSteerAngle)
}

func TestPurePursuitEndOfTrack(t *testing.T) {
	t.Parallel()

	track := northLine(t, 11)
	pp := testPurePursuit()

	var st ControlState
	out, err := pp.Steer(track, ControlInput{
		Pivot:        pose(0.5, 9.8, 0),
		Engaged:      true,
		GoalDistance: 5,
	}, &st)
	require.NoError(t, err)

	// The goal walk clamps at the final point and reports end of track as a
	// normal condition.
	assert.True(t, out.EndOfTrack)
	assert.InDelta(t, 0, out.GoalPoint.E, 1e-9)
	assert.InDelta(t, 10, out.GoalPoint.N, 1e-9)
}

func TestPurePursuitClosedTrackWraps(t *testing.T) {
	t.Parallel()

	pts := []Waypoint{
		{Easting: 0, Northing: 0}, {Easting: 10, Northing: 0},
		{Easting: 10, Northing: 10}, {Easting: 0, Northing: 10},
	}
	track, err := NewCurve("square", TrackCurve, pts, true)
	require.NoError(t, err)
	pp := testPurePursuit()

	var st ControlState
	out, err := pp.Steer(track, ControlInput{
		Pivot:        pose(5, -1, math.Pi/2),
		Engaged:      true,
		GoalDistance: 28,
	}, &st)
	require.NoError(t, err)

	// 28 m along the perimeter from (5,0): around three corners onto the
	// west side.
	assert.False(t, out.EndOfTrack)
	assert.InDelta(t, 0, out.GoalPoint.E, 1e-9)
	assert.InDelta(t, 7, out.GoalPoint.N, 1e-9)
}

func TestPurePursuitPreconditions(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)

	var st ControlState
	_, err = PurePursuit{Wheelbase: 0, MaxSteerAngle: 0.7}.Steer(ab, ControlInput{}, &st)
	assert.Error(t, err)

	_, err = PurePursuit{Wheelbase: 2.5, MaxSteerAngle: 0}.Steer(ab, ControlInput{}, &st)
	assert.Error(t, err)

	pp := testPurePursuit()
	_, err = pp.Steer(nil, ControlInput{}, &st)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = pp.Steer(&Track{Points: []Waypoint{{}}}, ControlInput{}, &st)
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestLookaheadDistance(t *testing.T) {
	t.Parallel()

	l := Lookahead{Minimum: 2, SpeedGain: 0.6, ErrorShrink: 0.5}

	assert.InDelta(t, 2, l.Distance(0, 0), 1e-12)
	assert.InDelta(t, 3.2, l.Distance(2, 0), 1e-12)
	assert.InDelta(t, 2.7, l.Distance(2, 1), 1e-12)
	// Large error never drags the distance below the floor.
	assert.InDelta(t, 2, l.Distance(2, 50), 1e-12)
	// Reverse speed still grows the lookahead.
	assert.InDelta(t, 3.2, l.Distance(-2, 0), 1e-12)
}
