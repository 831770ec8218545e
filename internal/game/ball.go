package game

// Ball is the single moving body on the table.
type Ball struct {
	Position         Vec2    `json:"position"`
	Velocity         Vec2    `json:"velocity"`
	PreviousPosition Vec2    `json:"previous_position"`
	Radius           float64 `json:"radius"`
	MinVelocity      float64 `json:"min_velocity"`
}

// NewBall places a ball at rest at the given position.
func NewBall(pos Vec2, radius float64) *Ball {
	if radius <= 0 {
		radius = BallRadius
	}
	return &Ball{
		Position:         pos,
		PreviousPosition: pos,
		Radius:           radius,
		MinVelocity:      MinVelocity,
	}
}

// Integrate advances the ball by one tick: gravity, soft stop, speed clamp,
// friction, then position.
func (b *Ball) Integrate() {
	b.PreviousPosition = b.Position

	b.Velocity = b.Velocity.Plus(Vec2{Y: Gravity})

	// Soft stop keeps a resting ball from jittering forever.
	if b.Velocity.Magnitude() < b.MinVelocity {
		b.Velocity = b.Velocity.Times(SoftStopDamp)
	}

	b.Velocity = b.Velocity.ClampMagnitude(MaxBallSpeed)
	b.Velocity = b.Velocity.Times(Friction)
	b.Position = b.Position.Plus(b.Velocity)
}

// HandleWallCollisions keeps the ball inside the left, right and top table
// edges. It returns true once the ball has fallen past the bottom of the table.
func (b *Ball) HandleWallCollisions(width, height float64) bool {
	if b.Position.X-b.Radius < 0 {
		b.Position.X = b.Radius
		if b.Velocity.X < 0 {
			b.Velocity.X = -b.Velocity.X * BoundaryDamping
		}
	} else if b.Position.X+b.Radius > width {
		b.Position.X = width - b.Radius
		if b.Velocity.X > 0 {
			b.Velocity.X = -b.Velocity.X * BoundaryDamping
		}
	}

	if b.Position.Y-b.Radius < 0 {
		b.Position.Y = b.Radius
		if b.Velocity.Y < 0 {
			b.Velocity.Y = -b.Velocity.Y * BoundaryDamping
		}
	}

	return b.Position.Y > height+BallLostMargin
}

// Speed returns the magnitude of the ball's velocity.
func (b *Ball) Speed() float64 {
	return b.Velocity.Magnitude()
}

// Reset puts the ball back at rest at pos.
func (b *Ball) Reset(pos Vec2) {
	b.Position = pos
	b.PreviousPosition = pos
	b.Velocity = Vec2{}
}

// sweepEligible reports whether the ball moved far enough this tick to need
// a continuous collision test.
func (b *Ball) sweepEligible() bool {
	return b.Speed() > b.Radius*SweepSpeedFraction
}

// reflect mirrors the ball's velocity about n and scales it by damping, but
// only when the ball is moving into the surface. It reports whether the
// velocity changed.
func (b *Ball) reflect(n Vec2, damping float64) bool {
	if b.Velocity.Dot(n) >= 0 {
		return false
	}
	b.Velocity = b.Velocity.Reflect(n).Times(damping)
	return true
}
