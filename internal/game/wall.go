package game

import "math"

// WallShape distinguishes straight segments from circular arcs.
type WallShape string

const (
	WallSegment WallShape = "segment"
	WallArc     WallShape = "arc"
)

// Wall is static table geometry: a thick segment or a thick circular arc.
// Arc angles are radians measured with atan2 in table coordinates (y down);
// the arc covers StartAngle → EndAngle in increasing angle, wrapping through
// zero when StartAngle > EndAngle.
type Wall struct {
	Shape WallShape `json:"shape"`

	X1 float64 `json:"x1,omitempty"`
	Y1 float64 `json:"y1,omitempty"`
	X2 float64 `json:"x2,omitempty"`
	Y2 float64 `json:"y2,omitempty"`

	CenterX    float64 `json:"center_x,omitempty"`
	CenterY    float64 `json:"center_y,omitempty"`
	Radius     float64 `json:"radius,omitempty"`
	StartAngle float64 `json:"start_angle,omitempty"`
	EndAngle   float64 `json:"end_angle,omitempty"`

	Width float64 `json:"width"`
	Color string  `json:"color,omitempty"`
}

func NewSegmentWall(x1, y1, x2, y2, width float64, color string) *Wall {
	return &Wall{Shape: WallSegment, X1: x1, Y1: y1, X2: x2, Y2: y2, Width: math.Max(width, 0), Color: color}
}

func NewArcWall(cx, cy, radius, startAngle, endAngle, width float64, color string) *Wall {
	return &Wall{
		Shape: WallArc, CenterX: cx, CenterY: cy, Radius: radius,
		StartAngle: startAngle, EndAngle: endAngle,
		Width: math.Max(width, 0), Color: color,
	}
}

func (w *Wall) Kind() ObstacleKind { return KindWall }

func (w *Wall) start() Vec2 { return Vec2{X: w.X1, Y: w.Y1} }
func (w *Wall) end() Vec2   { return Vec2{X: w.X2, Y: w.Y2} }

// Degenerate reports geometry that contributes nothing to collisions.
func (w *Wall) Degenerate() bool {
	if w.Shape == WallArc {
		return w.Radius <= 0
	}
	return w.start().DistanceTo(w.end()) < epsilon
}

// CheckCollision pushes the ball out of the wall and reflects it when it is
// moving into the surface.
func (w *Wall) CheckCollision(b *Ball) CollisionOutcome {
	if w.Degenerate() {
		return noCollision()
	}
	if w.Shape == WallArc {
		return w.checkArc(b)
	}

	out := w.checkSegment(b)
	if !out.Hit && b.sweepEligible() {
		out = w.sweepSegment(b)
	}
	return out
}

func (w *Wall) checkSegment(b *Ball) CollisionOutcome {
	a, e := w.start(), w.end()
	reach := b.Radius + w.Width/2

	closest, _ := closestPointOnSegment(b.Position, a, e)
	offset := b.Position.Minus(closest)
	dist := offset.Magnitude()
	if dist >= reach {
		return noCollision()
	}

	var n Vec2
	if dist > epsilon {
		n = offset.Times(1 / dist)
	} else {
		n = w.facingNormal(b.Velocity)
	}

	// Endpoint contacts get more separation and a livelier bounce so the ball
	// does not lose its energy or wedge against the cap.
	nearCorner := math.Min(b.Position.DistanceTo(a), b.Position.DistanceTo(e)) < CornerThresholdFactor*b.Radius
	if nearCorner {
		b.Position = closest.Plus(n.Times(reach + CornerSafetyMargin))
		if b.reflect(n, CornerBounceDamping) {
			b.Velocity = b.Velocity.Plus(n.Times(CornerKick))
		}
	} else {
		b.Position = closest.Plus(n.Times(reach + SafetyMargin))
		b.reflect(n, BounceDamping)
	}

	return CollisionOutcome{Hit: true, Event: EventWallHit, Normal: n}
}

// sweepSegment catches a ball whose displacement this tick crossed the wall
// without overlapping it at either end of the tick.
func (w *Wall) sweepSegment(b *Ball) CollisionOutcome {
	a, e := w.start(), w.end()
	reach := b.Radius + w.Width/2

	t, ok := sweepCircleSegment(b.PreviousPosition, b.Position, a, e, reach)
	if !ok {
		return noCollision()
	}

	contact := b.PreviousPosition.Lerp(b.Position, t)
	closest, _ := closestPointOnSegment(contact, a, e)
	n := contact.Minus(closest).Normalize()
	if n.IsZero() {
		n = w.facingNormal(b.Velocity)
	}

	b.Position = closest.Plus(n.Times(reach + SafetyMargin))
	b.reflect(n, BounceDamping)

	return CollisionOutcome{Hit: true, Event: EventWallHit, Normal: n}
}

// facingNormal is the segment normal on the side the ball came from.
func (w *Wall) facingNormal(velocity Vec2) Vec2 {
	n := segmentNormal(w.start(), w.end())
	if n.IsZero() {
		return fallbackNormal(velocity)
	}
	if velocity.Dot(n) > 0 {
		n = n.Invert()
	}
	return n
}

func (w *Wall) checkArc(b *Ball) CollisionOutcome {
	center := Vec2{X: w.CenterX, Y: w.CenterY}
	half := w.Width / 2

	offset := b.Position.Minus(center)
	d := offset.Magnitude()
	inner := w.Radius - half - b.Radius
	outer := w.Radius + half + b.Radius

	// The side is taken from where the ball started the tick, so a fast ball
	// that crossed the whole band is still resolved back inside.
	inside := b.PreviousPosition.Minus(center).Magnitude() < w.Radius
	if inside && d < inner || !inside && d > outer {
		return noCollision()
	}
	if !angleInArc(math.Atan2(offset.Y, offset.X), w.StartAngle, w.EndAngle) {
		return w.checkArcCaps(b)
	}

	radial := offset.Normalize()
	if radial.IsZero() {
		radial = fallbackNormal(b.Velocity)
	}

	var n Vec2
	var target float64
	if inside {
		// Inside the arc: the surface faces the center.
		n = radial.Invert()
		target = math.Max(inner-SafetyMargin, 0)
	} else {
		n = radial
		target = outer + SafetyMargin
	}

	b.Position = center.Plus(radial.Times(target))
	b.reflect(n, BounceDamping)

	return CollisionOutcome{Hit: true, Event: EventWallHit, Normal: n}
}

// checkArcCaps treats the two open ends of an arc as round caps, like the
// endpoints of a segment wall.
func (w *Wall) checkArcCaps(b *Ball) CollisionOutcome {
	reach := w.Width/2 + b.Radius
	for _, a := range []float64{w.StartAngle, w.EndAngle} {
		p := Vec2{X: w.CenterX + w.Radius*math.Cos(a), Y: w.CenterY + w.Radius*math.Sin(a)}
		offset := b.Position.Minus(p)
		if offset.Magnitude() >= reach {
			continue
		}
		n := offset.Normalize()
		if n.IsZero() {
			n = fallbackNormal(b.Velocity)
		}

		b.Position = p.Plus(n.Times(reach + CornerSafetyMargin))
		if b.reflect(n, CornerBounceDamping) {
			b.Velocity = b.Velocity.Plus(n.Times(CornerKick))
		}
		return CollisionOutcome{Hit: true, Event: EventWallHit, Normal: n}
	}
	return noCollision()
}

// samplePoints returns points along the wall's center line no further apart
// than step, used to rasterize the collision grid.
func (w *Wall) samplePoints(step float64) []Vec2 {
	if w.Degenerate() || step <= 0 {
		return nil
	}

	if w.Shape == WallArc {
		span := normalizeAngle(w.EndAngle - w.StartAngle)
		if span == 0 && w.EndAngle != w.StartAngle {
			span = 2 * math.Pi
		}
		n := int(math.Ceil(span*w.Radius/step)) + 1
		pts := make([]Vec2, 0, n+1)
		for i := 0; i <= n; i++ {
			a := w.StartAngle + span*float64(i)/float64(n)
			pts = append(pts, Vec2{X: w.CenterX + w.Radius*math.Cos(a), Y: w.CenterY + w.Radius*math.Sin(a)})
		}
		return pts
	}

	a, e := w.start(), w.end()
	n := int(math.Ceil(a.DistanceTo(e)/step)) + 1
	pts := make([]Vec2, 0, n+1)
	for i := 0; i <= n; i++ {
		pts = append(pts, a.Lerp(e, float64(i)/float64(n)))
	}
	return pts
}
