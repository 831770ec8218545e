package game

import "math"

const epsilon = 1e-9

// closestPointOnSegment projects p onto segment a→b, clamped to the endpoints.
// t is the parametric position of the closest point along the segment.
func closestPointOnSegment(p, a, b Vec2) (closest Vec2, t float64) {
	ab := b.Minus(a)
	lenSq := ab.MagnitudeSquared()
	if lenSq < epsilon {
		return a, 0
	}
	t = p.Minus(a).Dot(ab) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return a.Plus(ab.Times(t)), t
}

// pointSegmentDistance returns the shortest distance from p to segment a→b.
func pointSegmentDistance(p, a, b Vec2) float64 {
	c, _ := closestPointOnSegment(p, a, b)
	return p.DistanceTo(c)
}

// segmentNormal returns the unit left normal of a→b, or zero for a degenerate segment.
func segmentNormal(a, b Vec2) Vec2 {
	return b.Minus(a).Normalize().LeftNormal()
}

// lineIntersectLine tests if segment p1→p2 crosses segment p3→p4. t is the
// parameter along p1→p2 and u along p3→p4, both in [0,1] when ok.
func lineIntersectLine(p1, p2, p3, p4 Vec2) (t, u float64, ok bool) {
	r := p2.Minus(p1)
	s := p4.Minus(p3)
	denom := r.Cross(s)
	if math.Abs(denom) < epsilon {
		return 0, 0, false // parallel or degenerate
	}

	qp := p3.Minus(p1)
	t = qp.Cross(s) / denom
	u = qp.Cross(r) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return 0, 0, false
	}
	return t, u, true
}

// sweepCircleCircle returns the first time t in [0,1] at which a point moving
// from p0 to p1 enters the circle (center, radius). A point that starts inside
// the circle is not reported; the discrete test covers that case.
func sweepCircleCircle(p0, p1, center Vec2, radius float64) (float64, bool) {
	d := p1.Minus(p0)
	f := p0.Minus(center)

	a := d.Dot(d)
	b := 2 * f.Dot(d)
	c := f.Dot(f) - radius*radius

	if a < epsilon || c <= 0 {
		return 0, false
	}

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}

	t := (-b - math.Sqrt(discriminant)) / (2 * a) // enter
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

// sweepCircleSegment returns the first time t in [0,1] at which a point moving
// from p0 to p1 comes within radius of segment a→b, i.e. enters the capsule
// around the segment. It tests both offset faces and both end caps exactly.
func sweepCircleSegment(p0, p1, a, b Vec2, radius float64) (float64, bool) {
	if pointSegmentDistance(p0, a, b) <= radius {
		return 0, false
	}
	best := math.Inf(1)

	n := segmentNormal(a, b)
	if !n.IsZero() {
		for _, side := range [2]float64{1, -1} {
			off := n.Times(side * radius)
			if t, _, ok := lineIntersectLine(p0, p1, a.Plus(off), b.Plus(off)); ok && t < best {
				best = t
			}
		}
	}

	if t, ok := sweepCircleCircle(p0, p1, a, radius); ok && t < best {
		best = t
	}
	if t, ok := sweepCircleCircle(p0, p1, b, radius); ok && t < best {
		best = t
	}

	if math.IsInf(best, 1) {
		return 0, false
	}
	return best, true
}

// normalizeAngle maps an angle in radians into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// angleInArc reports whether angle lies on the arc swept from start to end.
// When start > end after normalization the arc wraps through zero.
func angleInArc(angle, start, end float64) bool {
	angle = normalizeAngle(angle)
	start = normalizeAngle(start)
	end = normalizeAngle(end)
	if start <= end {
		return angle >= start && angle <= end
	}
	return angle >= start || angle <= end
}

// fallbackNormal synthesizes a separation direction when the geometric normal
// is undefined (ball exactly on a point or a line). It prefers backing out
// along the incoming velocity, then straight up the table.
func fallbackNormal(velocity Vec2) Vec2 {
	if n := velocity.Invert().Normalize(); !n.IsZero() {
		return n
	}
	return Vec2{X: 0, Y: -1}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
