package geo

import "math"

// Angles in the guidance core use the compass convention: 0 points north
// (+N), angles grow clockwise, so east is +pi/2. This matches GNSS heading
// output and differs from the math convention by axis order in atan2.

// WrapAngle normalizes a to the half-open interval (-pi, pi].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the wrapped difference a-b in (-pi, pi].
func AngleDiff(a, b float64) float64 {
	return WrapAngle(a - b)
}

// Mod2Pi normalizes a to [0, 2*pi).
func Mod2Pi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// Heading returns the compass heading of the direction from a to b:
// atan2(delta easting, delta northing).
func Heading(a, b Vec) float64 {
	d := b.Sub(a)
	return math.Atan2(d.E, d.N)
}

// HeadingOf returns the compass heading of direction vector v.
func HeadingOf(v Vec) float64 {
	return math.Atan2(v.E, v.N)
}

// Dir returns the unit direction vector for compass heading h.
func Dir(h float64) Vec {
	return Vec{math.Sin(h), math.Cos(h)}
}

// RightNormal returns the unit vector 90 degrees clockwise of heading h,
// i.e. pointing to the right of travel.
func RightNormal(h float64) Vec {
	return Vec{math.Cos(h), -math.Sin(h)}
}

// Clamp limits v to the interval [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
