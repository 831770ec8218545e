package game

import "math"

// TargetShape is the collision footprint of a drop target.
type TargetShape string

const (
	TargetRectangle TargetShape = "rectangle"
	TargetCircle    TargetShape = "circle"
)

// DropTarget drops when hit and pops back up after a fixed countdown.
// Position is the center; a circle target uses Width as its diameter.
type DropTarget struct {
	Position  Vec2        `json:"position"`
	Width     float64     `json:"width"`
	Height    float64     `json:"height"`
	Shape     TargetShape `json:"shape"`
	IsActive  bool        `json:"is_active"`
	ResetTime int         `json:"reset_time"`
	Points    int         `json:"points"`
}

func NewDropTarget(pos Vec2, width, height float64, shape TargetShape, points int) *DropTarget {
	if shape != TargetCircle {
		shape = TargetRectangle
	}
	if points < 0 {
		points = 0
	}
	return &DropTarget{Position: pos, Width: width, Height: height, Shape: shape, IsActive: true, Points: points}
}

func (d *DropTarget) Kind() ObstacleKind { return KindDropTarget }

// Update counts down a dropped target and reports when it pops back up.
func (d *DropTarget) Update() EventType {
	if d.IsActive {
		return EventNone
	}
	if d.ResetTime > 0 {
		d.ResetTime--
	}
	if d.ResetTime == 0 {
		d.IsActive = true
		return EventTargetReset
	}
	return EventNone
}

func (d *DropTarget) CheckCollision(b *Ball) CollisionOutcome {
	if !d.IsActive {
		return noCollision()
	}

	var closest, n Vec2
	var ok bool
	if d.Shape == TargetCircle {
		closest, n, ok = d.contactCircle(b)
	} else {
		closest, n, ok = d.contactRect(b)
	}
	if !ok {
		return noCollision()
	}

	d.IsActive = false
	d.ResetTime = DropTargetResetTicks

	b.Position = closest.Plus(n.Times(b.Radius + SafetyMargin))
	b.reflect(n, BounceDamping)
	b.Velocity = b.Velocity.Plus(n.Times(DropTargetBoost))

	return CollisionOutcome{Hit: true, ScoreDelta: d.Points, Event: EventTargetHit, Normal: n}
}

// contactCircle returns the surface point nearest the ball and the outward normal.
func (d *DropTarget) contactCircle(b *Ball) (Vec2, Vec2, bool) {
	r := d.Width / 2
	if r <= 0 {
		return Vec2{}, Vec2{}, false
	}
	offset := b.Position.Minus(d.Position)
	if offset.Magnitude() >= r+b.Radius {
		return Vec2{}, Vec2{}, false
	}
	n := offset.Normalize()
	if n.IsZero() {
		n = fallbackNormal(b.Velocity)
	}
	return d.Position.Plus(n.Times(r)), n, true
}

// contactRect clamps the ball center onto the box. When the center is inside
// the box the side with the shallowest penetration is the one struck.
func (d *DropTarget) contactRect(b *Ball) (Vec2, Vec2, bool) {
	hw, hh := d.Width/2, d.Height/2
	if hw <= 0 || hh <= 0 {
		return Vec2{}, Vec2{}, false
	}

	local := b.Position.Minus(d.Position)
	closestLocal := Vec2{X: clamp(local.X, -hw, hw), Y: clamp(local.Y, -hh, hh)}
	offset := local.Minus(closestLocal)
	dist := offset.Magnitude()
	if dist >= b.Radius {
		return Vec2{}, Vec2{}, false
	}

	if dist > epsilon {
		return d.Position.Plus(closestLocal), offset.Times(1 / dist), true
	}

	// Center inside the box.
	penX := hw - math.Abs(local.X)
	penY := hh - math.Abs(local.Y)
	if penX < penY {
		closestLocal = Vec2{X: sign(local.X) * hw, Y: local.Y}
		return d.Position.Plus(closestLocal), Vec2{X: sign(local.X)}, true
	}
	closestLocal = Vec2{X: local.X, Y: sign(local.Y) * hh}
	return d.Position.Plus(closestLocal), Vec2{Y: sign(local.Y)}, true
}
