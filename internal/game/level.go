package game

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrUnknownLevel = errors.New("unknown level")

// FlipperDescriptor places a flipper. Nil angles take the side's default swing.
type FlipperDescriptor struct {
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	IsLeft      bool     `json:"is_left"`
	Length      float64  `json:"length"`
	BaseWidth   float64  `json:"base_width"`
	TipWidth    float64  `json:"tip_width"`
	RestAngle   *float64 `json:"rest_angle,omitempty"`
	ActiveAngle *float64 `json:"active_angle,omitempty"`
}

type BumperDescriptor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
	Points int     `json:"points,omitempty"`
}

type SpinnerDescriptor struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
	Points int     `json:"points,omitempty"`
}

type DropTargetDescriptor struct {
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  float64     `json:"width"`
	Height float64     `json:"height"`
	Shape  TargetShape `json:"shape"`
	Points int         `json:"points,omitempty"`
}

type TunnelDescriptor struct {
	EntryX   float64 `json:"entry_x"`
	EntryY   float64 `json:"entry_y"`
	ExitX    float64 `json:"exit_x"`
	ExitY    float64 `json:"exit_y"`
	Radius   float64 `json:"radius"`
	Cooldown int     `json:"cooldown,omitempty"`
	Points   int     `json:"points,omitempty"`
}

// LevelDescriptor is the ordered obstacle layout a level is built from.
// Geometry is assumed validated by whoever produced it; degenerate entries
// are dropped rather than rejected.
type LevelDescriptor struct {
	Name        string                 `json:"name"`
	Width       float64                `json:"width"`
	Height      float64                `json:"height"`
	BallStart   Vec2                   `json:"ball_start"`
	BallRadius  float64                `json:"ball_radius"`
	Walls       []Wall                 `json:"walls"`
	Flippers    []FlipperDescriptor    `json:"flippers"`
	Bumpers     []BumperDescriptor     `json:"bumpers"`
	Spinners    []SpinnerDescriptor    `json:"spinners"`
	DropTargets []DropTargetDescriptor `json:"drop_targets"`
	Tunnels     []TunnelDescriptor     `json:"tunnels"`
}

// Level owns one arena per obstacle kind for the lifetime of a level.
// Obstacles never reference each other or the ball.
type Level struct {
	Name        string
	Width       float64
	Height      float64
	BallStart   Vec2
	BallRadius  float64
	Walls       []*Wall
	Flippers    []*Flipper
	Bumpers     []*Bumper
	Spinners    []*Spinner
	DropTargets []*DropTarget
	Tunnels     []*Tunnel
	Grid        *CollisionGrid

	desc LevelDescriptor
}

// BuildLevel constructs obstacle instances and the collision grid.
func BuildLevel(desc LevelDescriptor) *Level {
	l := &Level{
		Name:       desc.Name,
		Width:      desc.Width,
		Height:     desc.Height,
		BallStart:  desc.BallStart,
		BallRadius: desc.BallRadius,
		desc:       desc,
	}
	if l.Width <= 0 {
		l.Width = TableWidth
	}
	if l.Height <= 0 {
		l.Height = TableHeight
	}
	if l.BallRadius <= 0 {
		l.BallRadius = BallRadius
	}

	for i := range desc.Walls {
		var w *Wall
		src := desc.Walls[i]
		if src.Shape == WallArc {
			w = NewArcWall(src.CenterX, src.CenterY, src.Radius, src.StartAngle, src.EndAngle, src.Width, src.Color)
		} else {
			w = NewSegmentWall(src.X1, src.Y1, src.X2, src.Y2, src.Width, src.Color)
		}
		if w.Degenerate() {
			continue
		}
		l.Walls = append(l.Walls, w)
	}

	for _, fd := range desc.Flippers {
		if fd.Length <= 0 {
			continue
		}
		f := NewFlipper(NewVec2(fd.X, fd.Y), fd.IsLeft, fd.Length, math.Max(fd.BaseWidth, 0), math.Max(fd.TipWidth, 0))
		if fd.RestAngle != nil && fd.ActiveAngle != nil {
			f = NewFlipperWithAngles(f.Position, fd.IsLeft, *fd.RestAngle, *fd.ActiveAngle, f.Length, f.BaseWidth, f.TipWidth)
		}
		l.Flippers = append(l.Flippers, f)
	}

	for _, bd := range desc.Bumpers {
		if bd.Radius <= 0 {
			continue
		}
		l.Bumpers = append(l.Bumpers, NewBumper(NewVec2(bd.X, bd.Y), bd.Radius, orDefault(bd.Points, BumperPoints)))
	}

	for _, sd := range desc.Spinners {
		if sd.Width <= 0 || sd.Height <= 0 {
			continue
		}
		l.Spinners = append(l.Spinners, NewSpinner(NewVec2(sd.X, sd.Y), sd.Width, sd.Height, sd.Angle, orDefault(sd.Points, SpinnerPoints)))
	}

	for _, td := range desc.DropTargets {
		if td.Width <= 0 || (td.Shape != TargetCircle && td.Height <= 0) {
			continue
		}
		l.DropTargets = append(l.DropTargets, NewDropTarget(NewVec2(td.X, td.Y), td.Width, td.Height, td.Shape, orDefault(td.Points, DropTargetPoints)))
	}

	for _, tdesc := range desc.Tunnels {
		if tdesc.Radius <= 0 {
			continue
		}
		tn := NewTunnel(NewVec2(tdesc.EntryX, tdesc.EntryY), NewVec2(tdesc.ExitX, tdesc.ExitY), tdesc.Radius, orDefault(tdesc.Points, TunnelPoints))
		if tdesc.Cooldown > 0 {
			tn.MaxCooldown = tdesc.Cooldown
		}
		l.Tunnels = append(l.Tunnels, tn)
	}

	l.Grid = BuildCollisionGrid(l.Walls, l.Width, l.Height, GridCellSize)
	return l
}

func orDefault(points, def int) int {
	if points <= 0 {
		return def
	}
	return points
}

// Descriptor returns the layout the level was built from.
func (l *Level) Descriptor() LevelDescriptor {
	return l.desc
}

// NewBall spawns a ball at the level's start position.
func (l *Level) NewBall() *Ball {
	return NewBall(l.BallStart, l.BallRadius)
}

// SetFlippers applies an actuator intent to every flipper on one side.
func (l *Level) SetFlippers(left, active bool) {
	for _, f := range l.Flippers {
		if f.IsLeft != left {
			continue
		}
		if active {
			f.Activate()
		} else {
			f.Deactivate()
		}
	}
}

// Obstacles lists every obstacle in narrow-phase order: walls, flippers,
// bumpers, spinners, drop targets, tunnels.
func (l *Level) Obstacles() []Obstacle {
	obs := make([]Obstacle, 0, len(l.Walls)+len(l.Flippers)+len(l.Bumpers)+len(l.Spinners)+len(l.DropTargets)+len(l.Tunnels))
	for _, o := range l.Walls {
		obs = append(obs, o)
	}
	for _, o := range l.Flippers {
		obs = append(obs, o)
	}
	for _, o := range l.Bumpers {
		obs = append(obs, o)
	}
	for _, o := range l.Spinners {
		obs = append(obs, o)
	}
	for _, o := range l.DropTargets {
		obs = append(obs, o)
	}
	for _, o := range l.Tunnels {
		obs = append(obs, o)
	}
	return obs
}

// updaters lists obstacles with per-tick state in the same order.
func (l *Level) updaters() []Updater {
	ups := make([]Updater, 0, len(l.Flippers)+len(l.Bumpers)+len(l.Spinners)+len(l.DropTargets)+len(l.Tunnels))
	for _, u := range l.Flippers {
		ups = append(ups, u)
	}
	for _, u := range l.Bumpers {
		ups = append(ups, u)
	}
	for _, u := range l.Spinners {
		ups = append(ups, u)
	}
	for _, u := range l.DropTargets {
		ups = append(ups, u)
	}
	for _, u := range l.Tunnels {
		ups = append(ups, u)
	}
	return ups
}

var builtinLevels = map[string]func() LevelDescriptor{
	"classic": ClassicLevel,
}

// LevelByName builds a fresh instance of a built-in level.
func LevelByName(name string) (*Level, error) {
	mk, ok := builtinLevels[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
	return BuildLevel(mk()), nil
}

// LevelNames returns the built-in level names in sorted order.
func LevelNames() []string {
	names := make([]string, 0, len(builtinLevels))
	for n := range builtinLevels {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ClassicLevel is the default 600×1000 table.
func ClassicLevel() LevelDescriptor {
	w, h := TableWidth, TableHeight

	return LevelDescriptor{
		Name:       "classic",
		Width:      w,
		Height:     h,
		BallStart:  NewVec2(520, 120),
		BallRadius: BallRadius,
		Walls: []Wall{
			// Top dome
			*NewArcWall(w/2, w/2, w/2, math.Pi, 2*math.Pi, 10, "#4a4a6a"),
			// Side rails below the dome
			*NewSegmentWall(0, w/2, 0, 800, 10, "#4a4a6a"),
			*NewSegmentWall(w, w/2, w, 800, 10, "#4a4a6a"),
			// Outlane slopes into the flipper pivots
			*NewSegmentWall(0, 800, 180, 900, 8, "#4a4a6a"),
			*NewSegmentWall(w, 800, w-180, 900, 8, "#4a4a6a"),
			// Slingshots
			*NewSegmentWall(100, 650, 100, 760, 6, "#c0392b"),
			*NewSegmentWall(100, 760, 160, 800, 6, "#c0392b"),
			*NewSegmentWall(w-100, 650, w-100, 760, 6, "#c0392b"),
			*NewSegmentWall(w-100, 760, w-160, 800, 6, "#c0392b"),
			// Right lane guide
			*NewSegmentWall(450, 380, 450, 560, 6, "#4a4a6a"),
		},
		Flippers: []FlipperDescriptor{
			{X: 180, Y: 900, IsLeft: true, Length: 90, BaseWidth: 10, TipWidth: 6},
			{X: w - 180, Y: 900, IsLeft: false, Length: 90, BaseWidth: 10, TipWidth: 6},
		},
		Bumpers: []BumperDescriptor{
			{X: 220, Y: 250, Radius: 25, Points: BumperPoints},
			{X: 380, Y: 250, Radius: 25, Points: BumperPoints},
			{X: 300, Y: 350, Radius: 25, Points: BumperPoints},
		},
		Spinners: []SpinnerDescriptor{
			{X: 520, Y: 470, Width: 40, Height: 6, Points: SpinnerPoints},
		},
		DropTargets: []DropTargetDescriptor{
			{X: 200, Y: 520, Width: 30, Height: 10, Shape: TargetRectangle},
			{X: 240, Y: 520, Width: 30, Height: 10, Shape: TargetRectangle},
			{X: 280, Y: 520, Width: 30, Height: 10, Shape: TargetRectangle},
			{X: 300, Y: 170, Width: 20, Shape: TargetCircle},
		},
		Tunnels: []TunnelDescriptor{
			{EntryX: 60, EntryY: 420, ExitX: 300, ExitY: 110, Radius: 15},
		},
	}
}
