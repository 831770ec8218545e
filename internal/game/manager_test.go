package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/playmatatu/pinball/internal/config"
)

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []map[string]interface{}
}

func (r *recordingBroadcaster) BroadcastToGame(gameID string, message interface{}) {
	m, ok := message.(map[string]interface{})
	if !ok {
		return
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recordingBroadcaster) count(typ string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs {
		if m["type"] == typ {
			n++
		}
	}
	return n
}

func testManager(t *testing.T) (*GameManager, *recordingBroadcaster) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := &config.Config{TickRateHz: 200, SnapshotEveryTicks: 1, BallsPerGame: 3, DefaultLevel: "classic", GameExpiryMinutes: 0}
	gm := NewGameManager(ctx, nil, nil, cfg)
	rb := &recordingBroadcaster{}
	gm.SetBroadcaster(rb)
	return gm, rb
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestManagerCreateAndTick(t *testing.T) {
	gm, rb := testManager(t)

	g, err := gm.CreateGame(PinballPlayer{ID: 1, Username: "bob"}, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if g.LevelName != "classic" || g.GetStatus() != StatusInProgress {
		t.Fatalf("game = %+v", g.View(false))
	}

	found, err := gm.GetGameByToken(g.Token)
	if err != nil || found != g {
		t.Fatalf("lookup by token: %v", err)
	}
	if _, err := gm.GetGame(g.ID); err != nil {
		t.Errorf("lookup by id: %v", err)
	}

	waitFor(t, "snapshots", func() bool { return rb.count("snapshot") >= 3 })

	if err := gm.SetFlipper(g.Token, SideRight, true); err != nil {
		t.Errorf("set flipper: %v", err)
	}
	if n := gm.GetActiveGameCount(); n != 1 {
		t.Errorf("active games = %d, want 1", n)
	}
	if views := gm.ActiveGames(); len(views) != 1 || views[0].Token != g.Token {
		t.Errorf("active views = %+v", views)
	}
}

func TestManagerAbortFinalizes(t *testing.T) {
	gm, rb := testManager(t)

	g, err := gm.CreateGame(PinballPlayer{ID: 2, Username: "carol"}, "classic")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := gm.AbortGame(g.Token, EndAborted); err != nil {
		t.Fatalf("abort: %v", err)
	}
	waitFor(t, "game_over", func() bool { return rb.count("game_over") == 1 })

	if err := gm.AbortGame(g.Token, EndAborted); !errors.Is(err, ErrGameNotInProgress) {
		t.Errorf("second abort: err=%v", err)
	}
	if err := gm.SetFlipper(g.Token, SideLeft, true); !errors.Is(err, ErrGameNotInProgress) {
		t.Errorf("flipper on aborted game: err=%v", err)
	}

	gm.checkExpiredGames(time.Now().Add(time.Second))
	if _, err := gm.GetGameByToken(g.Token); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("finished game not evicted: err=%v", err)
	}
}

func TestManagerErrors(t *testing.T) {
	gm, _ := testManager(t)

	if _, err := gm.CreateGame(PinballPlayer{}, "missing"); !errors.Is(err, ErrUnknownLevel) {
		t.Errorf("unknown level: err=%v", err)
	}
	if _, err := gm.GetGameByToken("nope"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("unknown token: err=%v", err)
	}
	if err := gm.AbortGame("nope", EndAborted); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("abort unknown: err=%v", err)
	}

	entries, err := gm.Leaderboard(context.Background(), "classic", 10)
	if err != nil || len(entries) != 0 {
		t.Errorf("leaderboard without storage = %v, %v", entries, err)
	}
	if _, err := gm.LoadGameView(context.Background(), "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Errorf("load unknown view: err=%v", err)
	}
}

func TestNotableEvents(t *testing.T) {
	events := []CollisionEvent{
		{Type: EventWallHit, Speed: 1},
		{Type: EventWallHit, Speed: loudHitSpeed + 1},
		{Type: EventBumperHit, Points: BumperPoints},
		{Type: EventTargetReset},
		{Type: EventGridNudge},
	}
	got := notableEvents(events)
	if len(got) != 3 {
		t.Fatalf("notable = %+v", got)
	}
	if got[0].Type != EventWallHit || got[1].Type != EventBumperHit || got[2].Type != EventTargetReset {
		t.Errorf("notable order = %+v", got)
	}
}
