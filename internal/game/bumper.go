package game

// Bumper is a static circle that kicks the ball away at a fixed speed.
type Bumper struct {
	Position     Vec2    `json:"position"`
	Radius       float64 `json:"radius"`
	Points       int     `json:"points"`
	HitAnimation float64 `json:"hit_animation"`
}

func NewBumper(pos Vec2, radius float64, points int) *Bumper {
	if points < 0 {
		points = 0
	}
	return &Bumper{Position: pos, Radius: radius, Points: points}
}

func (bp *Bumper) Kind() ObstacleKind { return KindBumper }

// Update decays the hit animation.
func (bp *Bumper) Update() EventType {
	bp.HitAnimation = decay(bp.HitAnimation, BumperAnimationDecay)
	return EventNone
}

func (bp *Bumper) CheckCollision(b *Ball) CollisionOutcome {
	if bp.Radius <= 0 {
		return noCollision()
	}

	reach := b.Radius + bp.Radius
	offset := b.Position.Minus(bp.Position)
	if offset.MagnitudeSquared() < reach*reach {
		n := offset.Normalize()
		if n.IsZero() {
			n = fallbackNormal(b.Velocity)
		}
		return bp.kick(b, n)
	}

	if !b.sweepEligible() {
		return noCollision()
	}
	t, ok := sweepCircleCircle(b.PreviousPosition, b.Position, bp.Position, reach)
	if !ok {
		return noCollision()
	}
	contact := b.PreviousPosition.Lerp(b.Position, t)
	n := contact.Minus(bp.Position).Normalize()
	if n.IsZero() {
		n = fallbackNormal(b.Velocity)
	}
	return bp.kick(b, n)
}

// kick places the ball just outside the bumper and sets its velocity.
// Bumpers add energy, so the velocity is replaced rather than reflected.
func (bp *Bumper) kick(b *Ball, n Vec2) CollisionOutcome {
	b.Position = bp.Position.Plus(n.Times(b.Radius + bp.Radius + BumperMargin))
	b.Velocity = n.Times(BumperBounceForce)
	bp.HitAnimation = 1

	return CollisionOutcome{Hit: true, ScoreDelta: bp.Points, Event: EventBumperHit, Normal: n}
}
