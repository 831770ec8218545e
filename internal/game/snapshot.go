package game

// BallPose is the renderer's view of the ball.
type BallPose struct {
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
}

type FlipperPose struct {
	Position Vec2    `json:"position"`
	Angle    float64 `json:"angle"`
	Length   float64 `json:"length"`
	IsLeft   bool    `json:"is_left"`
	IsActive bool    `json:"is_active"`
}

type BumperPose struct {
	Position     Vec2    `json:"position"`
	Radius       float64 `json:"radius"`
	HitAnimation float64 `json:"hit_animation"`
}

type SpinnerPose struct {
	Position Vec2    `json:"position"`
	Angle    float64 `json:"angle"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

type DropTargetPose struct {
	Position Vec2        `json:"position"`
	Shape    TargetShape `json:"shape"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	IsActive bool        `json:"is_active"`
}

type TunnelPose struct {
	Entry          Vec2    `json:"entry"`
	Exit           Vec2    `json:"exit"`
	Radius         float64 `json:"radius"`
	Cooldown       int     `json:"cooldown"`
	EntryAnimation float64 `json:"entry_animation"`
	ExitAnimation  float64 `json:"exit_animation"`
}

// Snapshot is a read-only copy of every entity's pose for one tick. Static
// walls are omitted; renderers take them from the level descriptor.
type Snapshot struct {
	Level       string           `json:"level"`
	Ball        BallPose         `json:"ball"`
	Flippers    []FlipperPose    `json:"flippers"`
	Bumpers     []BumperPose     `json:"bumpers"`
	Spinners    []SpinnerPose    `json:"spinners"`
	DropTargets []DropTargetPose `json:"drop_targets"`
	Tunnels     []TunnelPose     `json:"tunnels"`
}

// Snapshot copies the current poses, rounded for the wire.
func (l *Level) Snapshot(b *Ball) Snapshot {
	s := Snapshot{
		Level:       l.Name,
		Flippers:    make([]FlipperPose, 0, len(l.Flippers)),
		Bumpers:     make([]BumperPose, 0, len(l.Bumpers)),
		Spinners:    make([]SpinnerPose, 0, len(l.Spinners)),
		DropTargets: make([]DropTargetPose, 0, len(l.DropTargets)),
		Tunnels:     make([]TunnelPose, 0, len(l.Tunnels)),
	}
	if b != nil {
		s.Ball = BallPose{Position: b.Position.Fixed(), Velocity: b.Velocity.Fixed(), Radius: b.Radius}
	}

	for _, f := range l.Flippers {
		s.Flippers = append(s.Flippers, FlipperPose{
			Position: f.Position.Fixed(), Angle: fix(f.Angle), Length: f.Length,
			IsLeft: f.IsLeft, IsActive: f.IsActive,
		})
	}
	for _, bp := range l.Bumpers {
		s.Bumpers = append(s.Bumpers, BumperPose{Position: bp.Position.Fixed(), Radius: bp.Radius, HitAnimation: fix(bp.HitAnimation)})
	}
	for _, sp := range l.Spinners {
		s.Spinners = append(s.Spinners, SpinnerPose{Position: sp.Position.Fixed(), Angle: fix(sp.Angle), Width: sp.Width, Height: sp.Height})
	}
	for _, d := range l.DropTargets {
		s.DropTargets = append(s.DropTargets, DropTargetPose{
			Position: d.Position.Fixed(), Shape: d.Shape, Width: d.Width, Height: d.Height, IsActive: d.IsActive,
		})
	}
	for _, tn := range l.Tunnels {
		s.Tunnels = append(s.Tunnels, TunnelPose{
			Entry: tn.Entry.Fixed(), Exit: tn.Exit.Fixed(), Radius: tn.Radius, Cooldown: tn.Cooldown,
			EntryAnimation: fix(tn.EntryAnimation), ExitAnimation: fix(tn.ExitAnimation),
		})
	}
	return s
}
