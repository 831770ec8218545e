package game

// Tunnel teleports the ball from its entry mouth to its exit.
type Tunnel struct {
	Entry          Vec2    `json:"entry"`
	Exit           Vec2    `json:"exit"`
	Radius         float64 `json:"radius"`
	Cooldown       int     `json:"cooldown"`
	MaxCooldown    int     `json:"max_cooldown"`
	Points         int     `json:"points"`
	EntryAnimation float64 `json:"entry_animation"`
	ExitAnimation  float64 `json:"exit_animation"`
}

func NewTunnel(entry, exit Vec2, radius float64, points int) *Tunnel {
	if points < 0 {
		points = 0
	}
	return &Tunnel{Entry: entry, Exit: exit, Radius: radius, MaxCooldown: TunnelMaxCooldown, Points: points}
}

func (tn *Tunnel) Kind() ObstacleKind { return KindTunnel }

// Update ticks the cooldown and decays both animations.
func (tn *Tunnel) Update() EventType {
	if tn.Cooldown > 0 {
		tn.Cooldown--
	}
	tn.EntryAnimation = decay(tn.EntryAnimation, TunnelAnimationDecay)
	tn.ExitAnimation = decay(tn.ExitAnimation, TunnelAnimationDecay)
	return EventNone
}

// CheckCollision fires only while the cooldown is zero; the cooldown keeps the
// ball from re-entering straight away when the exit is itself near an entry.
func (tn *Tunnel) CheckCollision(b *Ball) CollisionOutcome {
	if tn.Cooldown > 0 || tn.Radius <= 0 {
		return noCollision()
	}

	reach := tn.Radius + b.Radius
	if b.Position.Minus(tn.Entry).MagnitudeSquared() >= reach*reach {
		return noCollision()
	}

	b.Position = tn.Exit
	b.PreviousPosition = tn.Exit
	b.Velocity = b.Velocity.Times(TunnelSpeedBoost)

	tn.EntryAnimation = 1
	tn.ExitAnimation = 1
	tn.Cooldown = tn.MaxCooldown

	return CollisionOutcome{Hit: true, ScoreDelta: tn.Points, Event: EventTunnelEnter}
}

func decay(v, factor float64) float64 {
	v *= factor
	if v < AnimationCutoff {
		return 0
	}
	return v
}
