package game

// TickResult is everything one simulation step reports to its caller.
type TickResult struct {
	ScoreDelta int              `json:"score_delta"`
	Events     []CollisionEvent `json:"events,omitempty"`
	BallLost   bool             `json:"ball_lost"`
	Nudged     bool             `json:"nudged"`
}

// Step advances the level by one tick: integrate the ball, advance the
// kinematic and reactive obstacles, apply the grid correction, then run the
// narrow phase against every obstacle in a fixed order. The ball is the only
// state shared across obstacles and it is mutated strictly in sequence.
func (l *Level) Step(b *Ball) TickResult {
	var res TickResult

	b.Integrate()
	lost := b.HandleWallCollisions(l.Width, l.Height)

	for i, u := range l.updaters() {
		if ev := u.Update(); ev != EventNone {
			kind := ObstacleKind("")
			if o, ok := u.(Obstacle); ok {
				kind = o.Kind()
			}
			res.Events = append(res.Events, CollisionEvent{Type: ev, Kind: kind, Index: l.arenaIndex(i)})
		}
	}

	if lost {
		res.BallLost = true
		res.Events = append(res.Events, CollisionEvent{Type: EventBallLost})
		return res
	}

	if l.Grid != nil && l.Grid.Correct(b) {
		res.Nudged = true
		res.Events = append(res.Events, CollisionEvent{Type: EventGridNudge, Speed: b.Speed()})
	}

	res.collect(KindWall, len(l.Walls), func(i int) CollisionOutcome { return l.Walls[i].CheckCollision(b) }, b)
	res.collect(KindFlipper, len(l.Flippers), func(i int) CollisionOutcome { return l.Flippers[i].CheckCollision(b) }, b)
	res.collect(KindBumper, len(l.Bumpers), func(i int) CollisionOutcome { return l.Bumpers[i].CheckCollision(b) }, b)
	res.collect(KindSpinner, len(l.Spinners), func(i int) CollisionOutcome { return l.Spinners[i].CheckCollision(b) }, b)
	res.collect(KindDropTarget, len(l.DropTargets), func(i int) CollisionOutcome { return l.DropTargets[i].CheckCollision(b) }, b)
	res.collect(KindTunnel, len(l.Tunnels), func(i int) CollisionOutcome { return l.Tunnels[i].CheckCollision(b) }, b)

	return res
}

func (res *TickResult) collect(kind ObstacleKind, n int, check func(i int) CollisionOutcome, b *Ball) {
	for i := 0; i < n; i++ {
		out := check(i)
		if !out.Hit {
			continue
		}
		res.ScoreDelta += out.ScoreDelta
		res.Events = append(res.Events, CollisionEvent{
			Type:   out.Event,
			Kind:   kind,
			Index:  i,
			Points: out.ScoreDelta,
			Speed:  b.Speed(),
		})
	}
}

// arenaIndex maps a position in updaters() back to the index within its
// obstacle's own arena.
func (l *Level) arenaIndex(i int) int {
	for _, n := range []int{len(l.Flippers), len(l.Bumpers), len(l.Spinners), len(l.DropTargets), len(l.Tunnels)} {
		if i < n {
			return i
		}
		i -= n
	}
	return i
}
