package guide

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldline/guidance/internal/geo"
)

// northLine builds an open contour of n points spaced 1 m apart heading
// north from the origin.
func northLine(t *testing.T, n int) *Track {
	t.Helper()
	pts := make([]Waypoint, n)
	for i := range pts {
		pts[i] = Waypoint{Easting: 0, Northing: float64(i), Heading: 0}
	}
	track, err := NewCurve("north", TrackCurve, pts, false)
	require.NoError(t, err)
	return track
}

func TestNewABLine(t *testing.T) {
	t.Parallel()

	t.Run("computes heading", func(t *testing.T) {
		t.Parallel()
		ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 10, N: 0})
		require.NoError(t, err)
		assert.Equal(t, TrackABLine, ab.Type)
		require.Len(t, ab.Points, 2)
		assert.InDelta(t, math.Pi/2, ab.Points[0].Heading, 1e-12)
	})

	t.Run("rejects coincident points", func(t *testing.T) {
		t.Parallel()
		_, err := NewABLine("bad", geo.Vec{E: 1, N: 1}, geo.Vec{E: 1, N: 1})
		assert.ErrorIs(t, err, geo.ErrDegenerate)
	})
}

func TestNewCurve(t *testing.T) {
	t.Parallel()

	_, err := NewCurve("short", TrackCurve, []Waypoint{{}}, false)
	assert.ErrorIs(t, err, ErrTooFewPoints)

	_, err = NewCurve("wrong", TrackABLine, []Waypoint{{}, {Northing: 1}}, false)
	assert.Error(t, err)
}

func TestSegmentCount(t *testing.T) {
	t.Parallel()

	open := northLine(t, 4)
	assert.Equal(t, 3, open.SegmentCount())

	open.IsClosed = true
	assert.Equal(t, 4, open.SegmentCount())
}

func TestNearestSegment(t *testing.T) {
	t.Parallel()

	t.Run("first minimum wins on ties", func(t *testing.T) {
		t.Parallel()
		// A U shape where the query point is equidistant from all three
		// segments.
		pts := []Waypoint{
			{Easting: 0, Northing: 0}, {Easting: 10, Northing: 0},
			{Easting: 10, Northing: 10}, {Easting: 0, Northing: 10},
		}
		track, err := NewCurve("u", TrackCurve, pts, false)
		require.NoError(t, err)

		hit, err := track.NearestSegment(geo.Vec{E: 5, N: 5})
		require.NoError(t, err)
		assert.Equal(t, 0, hit.Index)
		assert.InDelta(t, 25, hit.DistSq, 1e-9)
	})

	t.Run("tolerates duplicate adjacent points", func(t *testing.T) {
		t.Parallel()
		pts := []Waypoint{
			{Easting: 0, Northing: 0},
			{Easting: 0, Northing: 0},
			{Easting: 0, Northing: 10},
		}
		track, err := NewCurve("dup", TrackCurve, pts, false)
		require.NoError(t, err)

		hit, err := track.NearestSegment(geo.Vec{E: 1, N: 5})
		require.NoError(t, err)
		assert.Equal(t, 1, hit.Index)
		assert.InDelta(t, 1, hit.DistSq, 1e-9)
	})

	t.Run("ab line extends virtually", func(t *testing.T) {
		t.Parallel()
		ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 10})
		require.NoError(t, err)

		// Far beyond the stored second point.
		hit, err := ab.NearestSegment(geo.Vec{E: 3, N: 500})
		require.NoError(t, err)
		assert.InDelta(t, 9, hit.DistSq, 1e-9)
		assert.InDelta(t, 500, hit.Point.N, 1e-9)
		assert.False(t, hit.EndOfTrack)
		// The stored representation stays two points.
		assert.Len(t, ab.Points, 2)
	})

	t.Run("too few points is a caller bug", func(t *testing.T) {
		t.Parallel()
		track := &Track{Points: []Waypoint{{}}}
		_, err := track.NearestSegment(geo.Vec{})
		assert.ErrorIs(t, err, ErrTooFewPoints)
	})
}

func TestNearestSegmentLocal(t *testing.T) {
	t.Parallel()

	t.Run("scans only the window", func(t *testing.T) {
		t.Parallel()
		track := northLine(t, 11)

		// Globally the nearest segment is 9, but the window from hint 2
		// only sees segments 2..4.
		hit, err := track.NearestSegmentLocal(geo.Vec{E: 0.5, N: 9.5}, 2, 3)
		require.NoError(t, err)
		assert.Equal(t, 4, hit.Index)
	})

	t.Run("clamps at the last segment and flags end of track", func(t *testing.T) {
		t.Parallel()
		track := northLine(t, 11)

		hit, err := track.NearestSegmentLocal(geo.Vec{E: 0, N: 12}, 8, 5)
		require.NoError(t, err)
		assert.Equal(t, 9, hit.Index)
		assert.InDelta(t, 1, hit.T, 1e-12)
		assert.True(t, hit.EndOfTrack)
	})

	t.Run("wraps on closed tracks", func(t *testing.T) {
		t.Parallel()
		pts := []Waypoint{
			{Easting: 0, Northing: 0}, {Easting: 10, Northing: 0},
			{Easting: 10, Northing: 10}, {Easting: 0, Northing: 10},
		}
		track, err := NewCurve("square", TrackCurve, pts, true)
		require.NoError(t, err)

		hit, err := track.NearestSegmentLocal(geo.Vec{E: 5, N: -1}, 3, 3)
		require.NoError(t, err)
		assert.Equal(t, 0, hit.Index)
	})
}

func TestHeadingAt(t *testing.T) {
	t.Parallel()

	t.Run("skips zero-length segments", func(t *testing.T) {
		t.Parallel()
		pts := []Waypoint{
			{Easting: 0, Northing: 0, Heading: 1.5},
			{Easting: 0, Northing: 0, Heading: 1.5},
			{Easting: 0, Northing: 10, Heading: 0},
		}
		track, err := NewCurve("dup", TrackCurve, pts, false)
		require.NoError(t, err)
		assert.InDelta(t, 0, track.HeadingAt(0), 1e-12)
	})

	t.Run("falls back to stored heading", func(t *testing.T) {
		t.Parallel()
		pts := []Waypoint{
			{Easting: 2, Northing: 2, Heading: 0.7},
			{Easting: 2, Northing: 2, Heading: 0.7},
		}
		track, err := NewCurve("stuck", TrackCurve, pts, false)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, track.HeadingAt(0), 1e-12)
	})
}

func TestNudge(t *testing.T) {
	t.Parallel()

	ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 100})
	require.NoError(t, err)

	// Heading north: a positive nudge moves the line east.
	ab.Nudge(1)
	assert.InDelta(t, 1, ab.Points[0].Easting, 1e-12)
	assert.InDelta(t, 1, ab.Points[1].Easting, 1e-12)
	assert.InDelta(t, 1, ab.NudgeDistance, 1e-12)

	ab.Nudge(-0.5)
	assert.InDelta(t, 0.5, ab.Points[0].Easting, 1e-12)
	assert.InDelta(t, 0.5, ab.NudgeDistance, 1e-12)
}

func TestSmoothed(t *testing.T) {
	t.Parallel()

	t.Run("resamples through the original points", func(t *testing.T) {
		t.Parallel()
		pts := []Waypoint{
			{Easting: 0, Northing: 0},
			{Easting: 1, Northing: 5},
			{Easting: 0, Northing: 10},
			{Easting: -1, Northing: 15},
		}
		track, err := NewCurve("wiggle", TrackCurve, pts, false)
		require.NoError(t, err)

		smooth, err := track.Smoothed(4)
		require.NoError(t, err)
		assert.Len(t, smooth.Points, 3*4+1)
		// Endpoints are preserved exactly.
		assert.Equal(t, pts[0].Pos(), smooth.Points[0].Pos())
		assert.Equal(t, pts[3].Pos(), smooth.Points[len(smooth.Points)-1].Pos())
		// The spline interpolates, so every original point stays on the line.
		hit, err := smooth.NearestSegment(pts[1].Pos())
		require.NoError(t, err)
		assert.Less(t, hit.DistSq, 0.01)
	})

	t.Run("ab line passes through unchanged", func(t *testing.T) {
		t.Parallel()
		ab, err := NewABLine("ab", geo.Vec{E: 0, N: 0}, geo.Vec{E: 0, N: 10})
		require.NoError(t, err)
		smooth, err := ab.Smoothed(4)
		require.NoError(t, err)
		assert.Same(t, ab, smooth)
	})
}

func TestTrackLength(t *testing.T) {
	t.Parallel()

	track := northLine(t, 11)
	assert.InDelta(t, 10, track.Length(), 1e-12)

	track.IsClosed = true
	assert.InDelta(t, 20, track.Length(), 1e-12)
}
