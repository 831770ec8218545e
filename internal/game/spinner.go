package game

import "math"

// Spinner is a free-spinning rectangular gate. The ball passes through it;
// contact spins the gate and deflects the ball slightly.
type Spinner struct {
	Position        Vec2    `json:"position"`
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Angle           float64 `json:"angle"`
	AngularVelocity float64 `json:"angular_velocity"`
	Points          int     `json:"points"`

	touching bool // ball overlapped on the previous test
}

func NewSpinner(pos Vec2, width, height, angle float64, points int) *Spinner {
	if points < 0 {
		points = 0
	}
	return &Spinner{Position: pos, Width: width, Height: height, Angle: angle, Points: points}
}

func (s *Spinner) Kind() ObstacleKind { return KindSpinner }

// Update integrates the angle and decays the spin, contact or not.
func (s *Spinner) Update() EventType {
	s.Angle = normalizeAngle(s.Angle + s.AngularVelocity)
	s.AngularVelocity *= SpinnerDecay
	if math.Abs(s.AngularVelocity) < 1e-4 {
		s.AngularVelocity = 0
	}
	return EventNone
}

// toLocal maps a world point into the spinner's rotated frame.
func (s *Spinner) toLocal(p Vec2) Vec2 {
	return p.Minus(s.Position).Rotate(-s.Angle)
}

// CheckCollision spins the gate when the ball enters its rectangle. Only the
// first tick of an overlap scores and pushes; the ball then passes through.
func (s *Spinner) CheckCollision(b *Ball) CollisionOutcome {
	if s.Width <= 0 || s.Height <= 0 {
		return noCollision()
	}

	local := s.toLocal(b.Position)
	hw := s.Width/2 + b.Radius
	hh := s.Height/2 + b.Radius
	if math.Abs(local.X) >= hw || math.Abs(local.Y) >= hh {
		s.touching = false
		return noCollision()
	}
	if s.touching {
		return noCollision()
	}
	s.touching = true

	dir := 1.0
	if local.X < 0 {
		dir = -1
	}
	s.AngularVelocity = clamp(s.AngularVelocity+dir*b.Speed()*SpinnerSpinFactor, -SpinnerMaxAngular, SpinnerMaxAngular)

	// Push along the local axis with the greater overlap.
	overlapX := hw - math.Abs(local.X)
	overlapY := hh - math.Abs(local.Y)
	var impulse Vec2
	if overlapX > overlapY {
		impulse = Vec2{X: sign(local.X) * SpinnerImpulse}
	} else {
		impulse = Vec2{Y: sign(local.Y) * SpinnerImpulse}
	}
	b.Velocity = b.Velocity.Plus(impulse.Rotate(s.Angle))

	return CollisionOutcome{Hit: true, ScoreDelta: s.Points, Event: EventSpinnerSpin}
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
