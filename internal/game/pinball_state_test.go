package game

import (
	"errors"
	"testing"
	"time"
)

func newTestGame(t *testing.T, balls int) *GameState {
	t.Helper()
	l, err := LevelByName("classic")
	if err != nil {
		t.Fatalf("level: %v", err)
	}
	return NewPinballGame("game_test", "tok", PinballPlayer{ID: 7, Username: "alice"}, l, balls, time.Minute)
}

func drainBall(g *GameState) {
	g.mu.Lock()
	g.ball.Position = NewVec2(300, TableHeight+BallLostMargin+20)
	g.ball.Velocity = Vec2{}
	g.mu.Unlock()
}

func TestGameStartAndFlippers(t *testing.T) {
	g := newTestGame(t, 3)

	if err := g.SetFlipper(SideLeft, true); !errors.Is(err, ErrGameNotInProgress) {
		t.Errorf("flipper before start: err=%v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.GetStatus() != StatusInProgress || g.StartedAt == nil {
		t.Fatalf("status = %s", g.GetStatus())
	}

	if err := g.SetFlipper(SideLeft, true); err != nil {
		t.Errorf("left flipper: %v", err)
	}
	if err := g.SetFlipper("middle", true); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("invalid side: err=%v", err)
	}

	for _, f := range g.level.Flippers {
		if f.IsActive != f.IsLeft {
			t.Errorf("flipper left=%v active=%v", f.IsLeft, f.IsActive)
		}
	}
}

func TestGameBallLossAndCompletion(t *testing.T) {
	g := newTestGame(t, 2)
	g.Start()

	drainBall(g)
	res, finished := g.Step()
	if !res.BallLost || finished {
		t.Fatalf("first drain: lost=%v finished=%v", res.BallLost, finished)
	}
	if g.BallsLeft != 1 || g.BallsPlayed != 1 {
		t.Errorf("balls left=%d played=%d", g.BallsLeft, g.BallsPlayed)
	}
	if !g.ball.Position.IsEqualTo(g.level.BallStart) {
		t.Errorf("ball not respawned: %+v", g.ball.Position)
	}

	drainBall(g)
	_, finished = g.Step()
	if !finished {
		t.Fatal("game should finish when the last ball drains")
	}

	v := g.View(false)
	if v.Status != StatusCompleted || v.EndReason != EndBallsExhausted || v.CompletedAt == nil {
		t.Errorf("final view = %+v", v)
	}
	if v.Snapshot != nil {
		t.Error("view without snapshot requested carries one")
	}

	if _, finished := g.Step(); finished {
		t.Error("finished game kept ticking")
	}
	if g.Cancel(EndAborted) {
		t.Error("completed game should not be cancellable")
	}
}

func TestGameCancel(t *testing.T) {
	g := newTestGame(t, 3)
	g.Start()

	if !g.Cancel(EndIdle) {
		t.Fatal("cancel of running game failed")
	}
	if g.GetStatus() != StatusCancelled || g.EndReason != EndIdle {
		t.Errorf("status=%s reason=%s", g.GetStatus(), g.EndReason)
	}
	if err := g.SetFlipper(SideRight, true); !errors.Is(err, ErrGameNotInProgress) {
		t.Errorf("flipper after cancel: err=%v", err)
	}
}

func TestGameViewSnapshot(t *testing.T) {
	g := newTestGame(t, 1)
	g.Start()
	g.Step()

	v := g.View(true)
	if v.Snapshot == nil || v.Snapshot.Level != "classic" {
		t.Fatalf("snapshot missing: %+v", v.Snapshot)
	}
	if v.Tick != 1 || v.Player.Username != "alice" {
		t.Errorf("view = %+v", v)
	}
}

func TestGameIdle(t *testing.T) {
	g := newTestGame(t, 1)
	g.Start()

	if d := g.Idle(g.LastActivity.Add(5 * time.Second)); d != 5*time.Second {
		t.Errorf("idle = %v, want 5s", d)
	}
}
