package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapAngle(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, WrapAngle(0), 1e-12)
	assert.InDelta(t, math.Pi, WrapAngle(math.Pi), 1e-12)
	assert.InDelta(t, math.Pi, WrapAngle(-math.Pi), 1e-12) // interval is (-pi, pi]
	assert.InDelta(t, -math.Pi/2, WrapAngle(3*math.Pi/2), 1e-12)
	assert.InDelta(t, 0.5, WrapAngle(0.5+4*math.Pi), 1e-12)
}

func TestAngleDiff(t *testing.T) {
	t.Parallel()

	// Crossing the north wrap: 350 degrees to 10 degrees is +20, not -340.
	a := 10 * math.Pi / 180
	b := 350 * math.Pi / 180
	assert.InDelta(t, 20*math.Pi/180, AngleDiff(a, b), 1e-12)
	assert.InDelta(t, -20*math.Pi/180, AngleDiff(b, a), 1e-12)
}

func TestMod2Pi(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, Mod2Pi(0), 1e-12)
	assert.InDelta(t, 1.5, Mod2Pi(1.5+2*math.Pi), 1e-12)
	assert.InDelta(t, 2*math.Pi-0.5, Mod2Pi(-0.5), 1e-12)
}

func TestCompassHeading(t *testing.T) {
	t.Parallel()

	origin := Vec{0, 0}

	// Compass convention: north is 0, east is +pi/2.
	assert.InDelta(t, 0, Heading(origin, Vec{0, 1}), 1e-12)
	assert.InDelta(t, math.Pi/2, Heading(origin, Vec{1, 0}), 1e-12)
	assert.InDelta(t, math.Pi, Heading(origin, Vec{0, -1}), 1e-12)
	assert.InDelta(t, -math.Pi/2, Heading(origin, Vec{-1, 0}), 1e-12)
}

func TestDirAndRightNormal(t *testing.T) {
	t.Parallel()

	// Heading north: forward is +N, right of travel is +E.
	f := Dir(0)
	assert.InDelta(t, 0, f.E, 1e-12)
	assert.InDelta(t, 1, f.N, 1e-12)

	r := RightNormal(0)
	assert.InDelta(t, 1, r.E, 1e-12)
	assert.InDelta(t, 0, r.N, 1e-12)

	// Right normal is always perpendicular to travel.
	for _, h := range []float64{0.3, 1.2, -2.4, 3.0} {
		assert.InDelta(t, 0, Dir(h).Dot(RightNormal(h)), 1e-12)
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Clamp(5, -1, 1))
	assert.Equal(t, -1.0, Clamp(-5, -1, 1))
	assert.Equal(t, 0.25, Clamp(0.25, -1, 1))
}
