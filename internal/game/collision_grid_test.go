package game

import (
	"math"
	"testing"
)

func TestCollisionGridMarksWalls(t *testing.T) {
	walls := []*Wall{NewSegmentWall(100, 100, 300, 100, 4, "")}
	g := BuildCollisionGrid(walls, 400, 400, 10)

	if cols, rows := g.Size(); cols != 40 || rows != 40 {
		t.Fatalf("size = %dx%d, want 40x40", cols, rows)
	}

	cell, ok := g.CellAt(NewVec2(200, 100))
	if !ok || !cell.Solid {
		t.Errorf("cell on the wall should be solid: %+v ok=%v", cell, ok)
	}

	open, ok := g.CellAt(NewVec2(200, 300))
	if !ok || open.Solid || open.DangerLevel != 0 {
		t.Errorf("cell far from the wall should be open and safe: %+v", open)
	}

	if _, ok := g.CellAt(NewVec2(-1, 5)); ok {
		t.Error("negative coordinates are outside the grid")
	}
	if _, ok := g.CellAt(NewVec2(5, 400)); ok {
		t.Error("coordinates past the edge are outside the grid")
	}
}

// crevice builds two short parallel walls with a single open column of cells
// between them.
func crevice() *CollisionGrid {
	walls := []*Wall{
		NewSegmentWall(105, 100, 105, 150, 4, ""),
		NewSegmentWall(145, 100, 145, 150, 4, ""),
	}
	return BuildCollisionGrid(walls, 400, 400, 10)
}

func TestCollisionGridNudgesTowardOpenSpace(t *testing.T) {
	g := crevice()

	// Bottom of the slot: open, six solid neighbors.
	found, ok := g.CellAt(NewVec2(125, 155))
	if !ok || found.Solid {
		t.Fatalf("slot cell should be open: %+v", found)
	}
	if !almostEqual(found.DangerLevel, 0.75, 1e-12) || !found.HasEscape {
		t.Fatalf("slot cell danger=%v escape=%v", found.DangerLevel, found.HasEscape)
	}
	if !almostEqual(found.EscapeDirection.Magnitude(), 1, 1e-9) {
		t.Errorf("escape direction not unit: %+v", found.EscapeDirection)
	}
	if found.EscapeDirection.Y <= 0 {
		t.Errorf("escape should lead out of the slot's open end, got %+v", found.EscapeDirection)
	}

	b := newTestBall(125, 155, 0, 0)
	if !g.Correct(b) {
		t.Fatal("ball in the slot should be nudged")
	}
	want := found.EscapeDirection.Times(found.DangerLevel * GridNudgeStrength)
	if !almostEqual(b.Velocity.X, want.X, 1e-12) || !almostEqual(b.Velocity.Y, want.Y, 1e-12) {
		t.Errorf("nudge = %+v, want %+v", b.Velocity, want)
	}

	safe := newTestBall(200, 300, 1, 1)
	if g.Correct(safe) {
		t.Error("ball in open space must not be nudged")
	}
}

func TestCollisionGridIgnoresFlatWall(t *testing.T) {
	walls := []*Wall{NewSegmentWall(100, 100, 300, 100, 4, "")}
	g := BuildCollisionGrid(walls, 400, 400, 10)

	cols, rows := g.Size()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			pos := NewVec2((float64(col)+0.5)*10, (float64(row)+0.5)*10)
			if g.Correct(newTestBall(pos.X, pos.Y, 0, 0)) {
				c, _ := g.Cell(col, row)
				t.Fatalf("flat wall nudged a ball at cell (%d,%d): %+v", col, row, c)
			}
		}
	}
}

func TestStepNeverNudgesBallRestingOnWall(t *testing.T) {
	l := BuildLevel(LevelDescriptor{
		Name:      "shelf",
		BallStart: NewVec2(300, 493.5),
		Walls:     []Wall{*NewSegmentWall(100, 509, 500, 509, 10, "")},
	})
	b := l.NewBall()

	for i := 0; i < 60; i++ {
		res := l.Step(b)
		if res.Nudged {
			t.Fatalf("tick %d: ball on a flat wall was nudged at %+v", i, b.Position)
		}
		if b.Position.Y > 509-5-b.Radius+epsilon {
			t.Fatalf("tick %d: ball sank into the wall at y=%v", i, b.Position.Y)
		}
	}
	if math.Abs(b.Velocity.Y) > 1 {
		t.Errorf("resting ball still moving vertically: %+v", b.Velocity)
	}
}
