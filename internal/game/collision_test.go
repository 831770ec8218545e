package game

import (
	"math"
	"testing"
)

func newTestBall(x, y, vx, vy float64) *Ball {
	b := NewBall(NewVec2(x, y), 10)
	b.PreviousPosition = b.Position
	b.Velocity = NewVec2(vx, vy)
	return b
}

func assertFinite(t *testing.T, b *Ball) {
	t.Helper()
	for _, f := range []float64{b.Position.X, b.Position.Y, b.Velocity.X, b.Velocity.Y} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("ball state not finite: pos=%+v vel=%+v", b.Position, b.Velocity)
		}
	}
}

func TestBallIntegrateClampsSpeed(t *testing.T) {
	b := newTestBall(300, 300, 100, 0)
	b.Integrate()

	if s := b.Speed(); s > MaxBallSpeed {
		t.Errorf("speed %v exceeds max %v", s, MaxBallSpeed)
	}
	if !b.PreviousPosition.IsEqualTo(NewVec2(300, 300)) {
		t.Errorf("previous position not recorded: %+v", b.PreviousPosition)
	}
}

func TestBallIntegrateAppliesGravityAndFriction(t *testing.T) {
	b := newTestBall(300, 300, 2, 0)
	b.Integrate()

	wantVY := Gravity * Friction
	if !almostEqual(b.Velocity.Y, wantVY, 1e-12) {
		t.Errorf("vy = %v, want %v", b.Velocity.Y, wantVY)
	}
	if !almostEqual(b.Position.Y, 300+wantVY, 1e-12) {
		t.Errorf("y = %v, want %v", b.Position.Y, 300+wantVY)
	}
}

func TestBallHandleWallCollisions(t *testing.T) {
	b := newTestBall(5, 400, -4, 0)
	if lost := b.HandleWallCollisions(TableWidth, TableHeight); lost {
		t.Fatal("ball inside the table reported lost")
	}
	if b.Position.X != b.Radius {
		t.Errorf("x = %v, want clamped to %v", b.Position.X, b.Radius)
	}
	if !almostEqual(b.Velocity.X, 4*BoundaryDamping, 1e-12) {
		t.Errorf("vx = %v, want %v", b.Velocity.X, 4*BoundaryDamping)
	}

	lostBall := newTestBall(300, TableHeight+BallLostMargin+1, 0, 3)
	if !lostBall.HandleWallCollisions(TableWidth, TableHeight) {
		t.Error("ball below the table should be lost")
	}
}

func TestWallBounceDampsAndFlips(t *testing.T) {
	w := NewSegmentWall(0, 0, 100, 0, 10, "")
	b := newTestBall(50, 6, 0, -5)

	out := w.CheckCollision(b)
	if !out.Hit || out.Event != EventWallHit {
		t.Fatalf("expected wall hit, got %+v", out)
	}
	if !out.Normal.IsEqualTo(NewVec2(0, 1)) {
		t.Errorf("normal = %+v, want {0 1}", out.Normal)
	}
	if !almostEqual(b.Velocity.Y, 5*BounceDamping, 1e-12) {
		t.Errorf("vy = %v, want %v", b.Velocity.Y, 5*BounceDamping)
	}
	if d := pointSegmentDistance(b.Position, w.start(), w.end()); d < b.Radius+w.Width/2 {
		t.Errorf("ball still penetrating: distance %v", d)
	}
}

func TestWallDoesNotReflectSeparatingBall(t *testing.T) {
	w := NewSegmentWall(0, 0, 100, 0, 10, "")
	b := newTestBall(50, 6, 0, 5)

	out := w.CheckCollision(b)
	if !out.Hit {
		t.Fatal("overlap should still be resolved")
	}
	if b.Velocity.Y != 5 {
		t.Errorf("separating velocity changed: %+v", b.Velocity)
	}
	if b.Position.Y < 15 {
		t.Errorf("ball not pushed out: y=%v", b.Position.Y)
	}
}

func TestWallSweptTunneling(t *testing.T) {
	w := NewSegmentWall(0, 0, 100, 0, 2, "")
	b := newTestBall(50, 30, 0, 60)
	b.PreviousPosition = NewVec2(50, -30)

	out := w.CheckCollision(b)
	if !out.Hit {
		t.Fatal("swept test should catch a ball that jumped across the wall")
	}
	if b.Position.Y >= 0 {
		t.Errorf("ball should be resolved on the side it came from, y=%v", b.Position.Y)
	}
	if b.Velocity.Y >= 0 {
		t.Errorf("ball should be heading back, vy=%v", b.Velocity.Y)
	}
}

func TestWallDegenerateIsInert(t *testing.T) {
	w := NewSegmentWall(10, 10, 10, 10, 5, "")
	b := newTestBall(10, 10, 1, 1)

	if out := w.CheckCollision(b); out.Hit {
		t.Errorf("zero-length wall reported %+v", out)
	}
	assertFinite(t, b)
}

func TestWallBallOnCenterLine(t *testing.T) {
	w := NewSegmentWall(0, 0, 100, 0, 10, "")
	b := newTestBall(50, 0, 0, 3)

	out := w.CheckCollision(b)
	if !out.Hit {
		t.Fatal("expected hit")
	}
	assertFinite(t, b)
	if !almostEqual(out.Normal.Magnitude(), 1, 1e-9) {
		t.Errorf("fallback normal not unit: %+v", out.Normal)
	}
}

func TestArcWallKeepsBallInside(t *testing.T) {
	w := NewArcWall(300, 300, 300, math.Pi, 2*math.Pi, 10, "")
	// Just inside the top of the dome, moving up.
	b := newTestBall(300, 10, 0, -4)

	out := w.CheckCollision(b)
	if !out.Hit {
		t.Fatal("expected arc hit")
	}
	if out.Normal.Y <= 0 {
		t.Errorf("inner normal should face down into the table, got %+v", out.Normal)
	}
	if b.Velocity.Y <= 0 {
		t.Errorf("ball should bounce downward, vy=%v", b.Velocity.Y)
	}
	if d := b.Position.DistanceTo(NewVec2(300, 300)); d > 300-5-b.Radius-SafetyMargin+1e-9 {
		t.Errorf("ball left inside the band: %v from center", d)
	}

	// Below the dome's angular span.
	below := newTestBall(300, 595, 0, 4)
	if out := w.CheckCollision(below); out.Hit {
		t.Error("point outside the arc span must not collide")
	}
}

func TestArcWallEndCaps(t *testing.T) {
	w := NewArcWall(300, 300, 100, math.Pi, 2*math.Pi, 10, "")
	end := NewVec2(400, 300)

	// Just past the open end, outside the angular span, moving up into it.
	b := newTestBall(400, 310, 0, -3)
	out := w.CheckCollision(b)
	if !out.Hit {
		t.Fatal("ball grazing the arc end should hit its cap")
	}
	if out.Normal.Y <= 0 {
		t.Errorf("cap normal should face away from the end, got %+v", out.Normal)
	}
	if d := b.Position.DistanceTo(end); d < 5+b.Radius+SafetyMargin {
		t.Errorf("ball still overlaps the cap: %v from the end", d)
	}
	if b.Velocity.Y <= 0 {
		t.Errorf("ball should bounce off the cap, vy=%v", b.Velocity.Y)
	}

	clear := newTestBall(400, 320, 0, -3)
	if out := w.CheckCollision(clear); out.Hit {
		t.Errorf("ball beyond cap reach collided: %+v", out)
	}
}

func TestFlipperUpdateStaysInSwing(t *testing.T) {
	f := NewFlipper(NewVec2(180, 900), true, 90, 10, 6)
	f.Activate()
	for i := 0; i < 50; i++ {
		f.Update()
		if f.Angle < f.minAngle()-1e-12 || f.Angle > f.maxAngle()+1e-12 {
			t.Fatalf("tick %d: angle %v outside [%v,%v]", i, f.Angle, f.minAngle(), f.maxAngle())
		}
	}
	if !almostEqual(f.Angle, f.ActiveAngle, 1e-6) {
		t.Errorf("active flipper settled at %v, want %v", f.Angle, f.ActiveAngle)
	}

	f.Activate() // idempotent
	f.Deactivate()
	for i := 0; i < 50; i++ {
		f.Update()
	}
	if !almostEqual(f.Angle, f.RestAngle, 1e-6) {
		t.Errorf("released flipper settled at %v, want %v", f.Angle, f.RestAngle)
	}
}

// tipContact builds a horizontal flipper with a ball resting on its tip.
func tipContact(active bool, omega float64) (*Flipper, *Ball, CollisionOutcome) {
	f := NewFlipper(NewVec2(0, 0), true, 90, 10, 6)
	f.Angle = 0
	f.IsActive = active
	f.AngularVelocity = omega

	b := newTestBall(90, -12, 0, 5)
	out := f.CheckCollision(b)
	return f, b, out
}

func TestFlipperSpinTransfer(t *testing.T) {
	_, passive, out := tipContact(false, -0.5)
	if !out.Hit {
		t.Fatal("passive flipper missed")
	}
	if !almostEqual(passive.Velocity.X, 0, 1e-12) || !almostEqual(passive.Velocity.Y, -5*BounceDamping, 1e-12) {
		t.Errorf("passive flipper should bounce like a wall, got %+v", passive.Velocity)
	}

	spin := func(omega float64) Vec2 {
		_, b, out := tipContact(true, omega)
		if !out.Hit {
			t.Fatalf("active flipper missed at ω=%v", omega)
		}
		base := NewVec2(0, -5*BounceDamping).Plus(out.Normal.Times(FlipperStrength))
		return b.Velocity.Minus(base)
	}

	half := spin(-0.5)
	full := spin(-1.0)
	if half.IsZero() {
		t.Fatal("active flipper added no spin")
	}

	want := NewVec2(90, 0).Perp().Times(-0.5 * FlipperSpinTransfer)
	if !almostEqual(half.X, want.X, 1e-9) || !almostEqual(half.Y, want.Y, 1e-9) {
		t.Errorf("spin contribution = %+v, want %+v", half, want)
	}
	if !almostEqual(full.Y, 2*half.Y, 1e-9) {
		t.Errorf("spin should scale with ω: %v vs %v", full.Y, half.Y)
	}
}

func TestFlipperSweptCatchesFastBall(t *testing.T) {
	f := NewFlipper(NewVec2(0, 0), true, 90, 10, 6)
	f.Angle = 0

	b := newTestBall(45, 40, 0, 80)
	b.PreviousPosition = NewVec2(45, -40)

	out := f.CheckCollision(b)
	if !out.Hit {
		t.Fatal("swept test should catch the ball")
	}
	if b.Position.Y >= 0 {
		t.Errorf("ball pushed through the flipper: y=%v", b.Position.Y)
	}
}

func TestBumperSetsFixedSpeed(t *testing.T) {
	bp := NewBumper(Vec2{}, 25, BumperPoints)
	b := newTestBall(34, 0, -3, 1)

	out := bp.CheckCollision(b)
	if !out.Hit || out.ScoreDelta != BumperPoints || out.Event != EventBumperHit {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !almostEqual(b.Speed(), BumperBounceForce, 1e-12) {
		t.Errorf("speed = %v, want %v", b.Speed(), BumperBounceForce)
	}
	if d := b.Position.Magnitude(); d < 25+b.Radius+BumperMargin-1e-9 {
		t.Errorf("ball overlaps the bumper: %v from center", d)
	}
	if bp.HitAnimation != 1 {
		t.Errorf("hit animation = %v, want 1", bp.HitAnimation)
	}

	bp.Update()
	if !almostEqual(bp.HitAnimation, BumperAnimationDecay, 1e-12) {
		t.Errorf("animation after decay = %v", bp.HitAnimation)
	}
}

func TestBumperBallAtCenter(t *testing.T) {
	bp := NewBumper(Vec2{}, 25, BumperPoints)
	b := newTestBall(0, 0, 0, 0)

	out := bp.CheckCollision(b)
	if !out.Hit {
		t.Fatal("expected hit")
	}
	assertFinite(t, b)
	if !almostEqual(b.Speed(), BumperBounceForce, 1e-12) {
		t.Errorf("speed = %v, want %v", b.Speed(), BumperBounceForce)
	}
}

func TestBumperSweptKeepsBallOutside(t *testing.T) {
	bp := NewBumper(Vec2{}, 25, BumperPoints)
	b := newTestBall(0, 60, 0, -22)
	b.PreviousPosition = NewVec2(0, 60)
	b.Position = NewVec2(0, -60)

	if out := bp.CheckCollision(b); !out.Hit {
		t.Fatal("fast ball crossing the bumper should hit")
	}
	if d := b.Position.Magnitude(); d < 25+b.Radius+BumperMargin-1e-9 {
		t.Errorf("ball overlaps the bumper: %v from center", d)
	}
	if b.Position.Y <= 0 {
		t.Errorf("ball resolved on the far side: %+v", b.Position)
	}
}

func TestSpinnerScoresOnEntryOnly(t *testing.T) {
	s := NewSpinner(Vec2{}, 40, 6, 0, SpinnerPoints)
	b := newTestBall(5, 0, 0, 3)

	out := s.CheckCollision(b)
	if !out.Hit || out.ScoreDelta != SpinnerPoints {
		t.Fatalf("entry should score, got %+v", out)
	}
	if !almostEqual(s.AngularVelocity, 3*SpinnerSpinFactor, 1e-12) {
		t.Errorf("ω = %v, want %v", s.AngularVelocity, 3*SpinnerSpinFactor)
	}
	if !almostEqual(b.Velocity.X, SpinnerImpulse, 1e-12) {
		t.Errorf("vx = %v, want impulse %v", b.Velocity.X, SpinnerImpulse)
	}

	if out := s.CheckCollision(b); out.Hit {
		t.Error("staying inside the gate must not score again")
	}

	b.Position = NewVec2(100, 0)
	s.CheckCollision(b)
	b.Position = NewVec2(5, 0)
	if out := s.CheckCollision(b); !out.Hit {
		t.Error("re-entering the gate should score")
	}
}

func TestSpinnerDecays(t *testing.T) {
	s := NewSpinner(Vec2{}, 40, 6, 0, SpinnerPoints)
	s.AngularVelocity = 1
	s.Update()
	if !almostEqual(s.Angle, 1, 1e-12) || !almostEqual(s.AngularVelocity, SpinnerDecay, 1e-12) {
		t.Errorf("angle=%v ω=%v", s.Angle, s.AngularVelocity)
	}
	for i := 0; i < 2000; i++ {
		s.Update()
	}
	if s.AngularVelocity != 0 {
		t.Errorf("spinner never came to rest: ω=%v", s.AngularVelocity)
	}
}

func TestDropTargetLifecycle(t *testing.T) {
	d := NewDropTarget(Vec2{}, 30, 10, TargetRectangle, DropTargetPoints)
	b := newTestBall(0, -12, 0, 2)

	out := d.CheckCollision(b)
	if !out.Hit || out.ScoreDelta != DropTargetPoints || out.Event != EventTargetHit {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if d.IsActive || d.ResetTime != DropTargetResetTicks {
		t.Fatalf("target should drop with reset %d, got active=%v reset=%d", DropTargetResetTicks, d.IsActive, d.ResetTime)
	}
	if b.Velocity.Y >= 0 {
		t.Errorf("ball should be sent back up, vy=%v", b.Velocity.Y)
	}

	b.Position = NewVec2(0, 0)
	if out := d.CheckCollision(b); out.Hit {
		t.Error("dropped target must not collide")
	}

	for i := 1; i < DropTargetResetTicks; i++ {
		if ev := d.Update(); ev != EventNone || d.IsActive {
			t.Fatalf("tick %d: target popped up early (ev=%q)", i, ev)
		}
	}
	if ev := d.Update(); ev != EventTargetReset || !d.IsActive {
		t.Fatalf("target should reset on tick %d, got ev=%q active=%v", DropTargetResetTicks, ev, d.IsActive)
	}

	b.Position = NewVec2(0, -12)
	if out := d.CheckCollision(b); !out.Hit {
		t.Error("reset target should accept collisions again")
	}
}

func TestCircleDropTarget(t *testing.T) {
	d := NewDropTarget(Vec2{}, 20, 0, TargetCircle, DropTargetPoints)
	b := newTestBall(0, -15, 0, 2)

	out := d.CheckCollision(b)
	if !out.Hit {
		t.Fatal("expected hit")
	}
	if !out.Normal.IsEqualTo(NewVec2(0, -1)) {
		t.Errorf("normal = %+v, want {0 -1}", out.Normal)
	}
	if got := b.Position.Magnitude(); got < 20 {
		t.Errorf("ball not pushed clear: distance %v", got)
	}
}

func TestTunnelCooldown(t *testing.T) {
	tn := NewTunnel(Vec2{}, NewVec2(200, 200), 15, TunnelPoints)
	b := newTestBall(5, 0, 2, 0)

	out := tn.CheckCollision(b)
	if !out.Hit || out.ScoreDelta != TunnelPoints {
		t.Fatalf("unexpected outcome %+v", out)
	}
	if !b.Position.IsEqualTo(tn.Exit) || !b.PreviousPosition.IsEqualTo(tn.Exit) {
		t.Errorf("ball not teleported: pos=%+v prev=%+v", b.Position, b.PreviousPosition)
	}
	if !almostEqual(b.Velocity.X, 2*TunnelSpeedBoost, 1e-12) {
		t.Errorf("vx = %v, want %v", b.Velocity.X, 2*TunnelSpeedBoost)
	}

	b.Position = NewVec2(5, 0)
	for i := 0; i < TunnelMaxCooldown; i++ {
		if out := tn.CheckCollision(b); out.Hit {
			t.Fatalf("tunnel fired during cooldown at tick %d", i)
		}
		tn.Update()
	}
	if out := tn.CheckCollision(b); !out.Hit {
		t.Error("tunnel should fire again once the cooldown expires")
	}
}
