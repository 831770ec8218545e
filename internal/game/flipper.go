package game

import "math"

// Default flipper swing, radians either side of horizontal.
const (
	flipperRestTilt   = 0.5
	flipperActiveTilt = 0.5
)

// Flipper is a tapered capsule rotating about a fixed pivot. BaseWidth and
// TipWidth are the capsule radii at the pivot and at the tip.
type Flipper struct {
	Position        Vec2    `json:"position"`
	IsLeft          bool    `json:"is_left"`
	RestAngle       float64 `json:"rest_angle"`
	ActiveAngle     float64 `json:"active_angle"`
	Angle           float64 `json:"angle"`
	TargetAngle     float64 `json:"target_angle"`
	AngularVelocity float64 `json:"angular_velocity"`
	Length          float64 `json:"length"`
	BaseWidth       float64 `json:"base_width"`
	TipWidth        float64 `json:"tip_width"`
	IsActive        bool    `json:"is_active"`

	// PrevAngle is the angle before the last Update.
	PrevAngle float64 `json:"-"`
}

// NewFlipper creates a flipper at rest with the default swing for its side.
// A left flipper points right from its pivot and swings up counter-clockwise
// on screen; a right flipper mirrors it.
func NewFlipper(pivot Vec2, isLeft bool, length, baseWidth, tipWidth float64) *Flipper {
	rest, active := flipperRestTilt, -flipperActiveTilt
	if !isLeft {
		rest, active = math.Pi-flipperRestTilt, math.Pi+flipperActiveTilt
	}
	return NewFlipperWithAngles(pivot, isLeft, rest, active, length, baseWidth, tipWidth)
}

func NewFlipperWithAngles(pivot Vec2, isLeft bool, restAngle, activeAngle, length, baseWidth, tipWidth float64) *Flipper {
	return &Flipper{
		Position:    pivot,
		IsLeft:      isLeft,
		RestAngle:   restAngle,
		ActiveAngle: activeAngle,
		Angle:       restAngle,
		PrevAngle:   restAngle,
		TargetAngle: restAngle,
		Length:      length,
		BaseWidth:   baseWidth,
		TipWidth:    tipWidth,
	}
}

func (f *Flipper) Kind() ObstacleKind { return KindFlipper }

// Activate sets the actuator intent. Repeated calls are no-ops.
func (f *Flipper) Activate() {
	f.IsActive = true
	f.TargetAngle = f.ActiveAngle
}

// Deactivate releases the actuator intent. Repeated calls are no-ops.
func (f *Flipper) Deactivate() {
	f.IsActive = false
	f.TargetAngle = f.RestAngle
}

func (f *Flipper) minAngle() float64 { return math.Min(f.RestAngle, f.ActiveAngle) }
func (f *Flipper) maxAngle() float64 { return math.Max(f.RestAngle, f.ActiveAngle) }

// Update drives the angle toward the target with a first-order approach and
// keeps it inside the legal swing.
func (f *Flipper) Update() EventType {
	if f.IsActive {
		f.TargetAngle = f.ActiveAngle
	} else {
		f.TargetAngle = f.RestAngle
	}
	f.PrevAngle = f.Angle
	f.AngularVelocity = (f.TargetAngle - f.Angle) * FlipperApproachRate
	f.Angle = clamp(f.Angle+f.AngularVelocity, f.minAngle(), f.maxAngle())
	return EventNone
}

// Tip returns the end of the flipper's center line.
func (f *Flipper) Tip() Vec2 {
	return f.Position.Plus(Vec2{X: math.Cos(f.Angle), Y: math.Sin(f.Angle)}.Times(f.Length))
}

// radiusAt interpolates the capsule radius at parametric position t.
func (f *Flipper) radiusAt(t float64) float64 {
	return f.BaseWidth + (f.TipWidth-f.BaseWidth)*t
}

// CheckCollision tests the ball against the capsule at its current angle,
// falling back to a swept test along the ball's motion this tick.
func (f *Flipper) CheckCollision(b *Ball) CollisionOutcome {
	if f.Length <= 0 {
		return noCollision()
	}
	if out := f.checkStatic(b); out.Hit {
		return out
	}
	if b.sweepEligible() {
		return f.checkSwept(b)
	}
	return noCollision()
}

func (f *Flipper) checkStatic(b *Ball) CollisionOutcome {
	tip := f.Tip()
	closest, t := closestPointOnSegment(b.Position, f.Position, tip)
	offset := b.Position.Minus(closest)
	dist := offset.Magnitude()
	reach := b.Radius + f.radiusAt(t)
	side, crossed := f.contactSide(b)
	if dist >= reach && !crossed {
		return noCollision()
	}

	// The ball stays on the face it touched before this tick's rotation,
	// even when the center line has swung past it.
	n := side
	if dist > epsilon && !crossed {
		if on := offset.Times(1 / dist); on.Dot(side) >= 0 || t <= 0 || t >= 1 {
			n = on
		}
	}

	b.Position = closest.Plus(n.Times(reach + SafetyMargin))
	f.respond(b, n, closest)

	return CollisionOutcome{Hit: true, Event: EventFlipperHit, Normal: n}
}

// checkSwept samples the ball's motion and takes the earliest sample that
// overlaps the capsule. If every sample misses but the path crosses the
// center line, the crossing point is used.
func (f *Flipper) checkSwept(b *Ball) CollisionOutcome {
	tip := f.Tip()
	from, to := b.PreviousPosition, b.Position

	found := false
	var closest Vec2
	var t float64
	for i := 1; i <= FlipperSweepSteps; i++ {
		s := from.Lerp(to, float64(i)/FlipperSweepSteps)
		c, ct := closestPointOnSegment(s, f.Position, tip)
		if s.DistanceTo(c) < b.Radius+f.radiusAt(ct) {
			closest, t, found = c, ct, true
			break
		}
	}
	if !found {
		_, u, ok := lineIntersectLine(from, to, f.Position, tip)
		if !ok {
			return noCollision()
		}
		closest, t = f.Position.Lerp(tip, u), u
	}

	// Resolve toward the side the ball came from so a fast ball is never
	// pushed through to the far side.
	n := f.faceNormal(from.Minus(closest))

	b.Position = closest.Plus(n.Times(b.Radius + f.radiusAt(t) + SafetyMargin))
	f.respond(b, n, closest)

	return CollisionOutcome{Hit: true, Event: EventFlipperHit, Normal: n}
}

// contactSide returns the face normal of the current pose on the side the
// ball occupied relative to the pose before the last Update. crossed reports
// that the center line passed over the ball during the tick.
func (f *Flipper) contactSide(b *Ball) (Vec2, bool) {
	prevTip := f.Position.Plus(Vec2{X: math.Cos(f.PrevAngle), Y: math.Sin(f.PrevAngle)}.Times(f.Length))
	before := sideOf(prevTip.Minus(f.Position).Cross(b.PreviousPosition.Minus(f.Position)))
	if before == 0 {
		return f.faceNormal(Vec2{}), false
	}

	dir := f.Tip().Minus(f.Position)
	n := segmentNormal(f.Position, f.Tip())
	if sideOf(dir.Cross(n)) != before {
		n = n.Invert()
	}

	rel := b.Position.Minus(f.Position)
	u := rel.Dot(dir) / (f.Length * f.Length)
	now := sideOf(dir.Cross(rel))
	crossed := now != 0 && now != before && u >= 0 && u <= 1 &&
		rel.Magnitude() <= f.Length+b.Radius+f.BaseWidth
	return n, crossed
}

func sideOf(x float64) int {
	switch {
	case x > epsilon:
		return 1
	case x < -epsilon:
		return -1
	}
	return 0
}

// faceNormal returns the unit normal of the flipper's center line on the
// side of hint, defaulting to the upper face.
func (f *Flipper) faceNormal(hint Vec2) Vec2 {
	n := segmentNormal(f.Position, f.Tip())
	if n.IsZero() {
		return Vec2{X: 0, Y: -1}
	}
	if hint.IsZero() {
		if n.Y > 0 {
			n = n.Invert()
		}
		return n
	}
	if hint.Dot(n) < 0 {
		n = n.Invert()
	}
	return n
}

// respond applies the flipper's velocity response at contact with normal n.
// Approach is measured against the surface velocity at the contact, so a
// resting ball is struck by a rising flipper. A rotating, actuated flipper
// adds a normal kick and a tangential impulse from its angular velocity about
// the pivot; otherwise it bounces like a wall.
func (f *Flipper) respond(b *Ball, n, contact Vec2) {
	lever := contact.Minus(f.Position)
	surface := lever.Perp().Times(f.AngularVelocity)
	if b.Velocity.Minus(surface).Dot(n) >= 0 {
		return
	}

	if f.IsActive && math.Abs(f.AngularVelocity) > FlipperRotatingThreshold {
		v := b.Velocity
		if v.Dot(n) < 0 {
			v = v.Reflect(n).Times(BounceDamping)
		}
		v = v.Plus(n.Times(FlipperStrength))
		v = v.Plus(lever.Perp().Times(f.AngularVelocity * FlipperSpinTransfer))
		b.Velocity = v
		return
	}

	b.reflect(n, BounceDamping)
}
