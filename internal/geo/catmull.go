package geo

// CatmullRom evaluates the uniform Catmull-Rom spline through control points
// p0..p3 at t in [0,1). The curve passes through p1 at t=0 and reaches p2 as
// t approaches 1.
func CatmullRom(p0, p1, p2, p3 Vec, t float64) Vec {
	t2 := t * t
	t3 := t2 * t

	e := 0.5 * (2*p1.E +
		(-p0.E+p2.E)*t +
		(2*p0.E-5*p1.E+4*p2.E-p3.E)*t2 +
		(-p0.E+3*p1.E-3*p2.E+p3.E)*t3)
	n := 0.5 * (2*p1.N +
		(-p0.N+p2.N)*t +
		(2*p0.N-5*p1.N+4*p2.N-p3.N)*t2 +
		(-p0.N+3*p1.N-3*p2.N+p3.N)*t3)
	return Vec{e, n}
}

// CatmullRomChain smooths a polyline by interpolating samplesPerSpan points
// across every interior span. Endpoints are duplicated so the smoothed line
// still starts and ends on the original points. Fewer than three input
// points or samplesPerSpan < 1 returns the input unchanged.
func CatmullRomChain(points []Vec, samplesPerSpan int) []Vec {
	if len(points) < 3 || samplesPerSpan < 1 {
		return points
	}

	out := make([]Vec, 0, (len(points)-1)*samplesPerSpan+1)
	for i := 0; i < len(points)-1; i++ {
		p1 := points[i]
		p2 := points[i+1]
		p0 := p1
		if i > 0 {
			p0 = points[i-1]
		}
		p3 := p2
		if i+2 < len(points) {
			p3 = points[i+2]
		}
		for s := 0; s < samplesPerSpan; s++ {
			t := float64(s) / float64(samplesPerSpan)
			out = append(out, CatmullRom(p0, p1, p2, p3, t))
		}
	}
	return append(out, points[len(points)-1])
}
