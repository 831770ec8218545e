package game

import (
	"errors"
	"log"
	"sync"
	"time"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameNotInProgress = errors.New("game is not in progress")
	ErrInvalidSide       = errors.New("invalid flipper side")
)

// FlipperSide selects which bank of flippers an actuator intent targets.
type FlipperSide string

const (
	SideLeft  FlipperSide = "left"
	SideRight FlipperSide = "right"
)

// End reasons recorded when a game stops.
const (
	EndBallsExhausted = "balls_exhausted"
	EndIdle           = "idle"
	EndAborted        = "aborted"
	EndExpired        = "expired"
)

// PinballPlayer is the player a session belongs to.
type PinballPlayer struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
}

// GameView is the externally visible state of a session.
type GameView struct {
	ID          string        `json:"id"`
	Token       string        `json:"token"`
	Player      PinballPlayer `json:"player"`
	Level       string        `json:"level"`
	Status      GameStatus    `json:"status"`
	Score       int           `json:"score"`
	BallsLeft   int           `json:"balls_left"`
	BallsPlayed int           `json:"balls_played"`
	Tick        int64         `json:"tick"`
	EndReason   string        `json:"end_reason,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Snapshot    *Snapshot     `json:"snapshot,omitempty"`
}

// GameState is one player's session on one level with a single ball in play.
// The ticking goroutine is the only writer of physics state; everything else
// goes through the mutex.
type GameState struct {
	ID           string
	Token        string
	Player       PinballPlayer
	LevelName    string
	Score        int
	BallsLeft    int
	BallsPlayed  int
	Tick         int64
	Status       GameStatus
	EndReason    string
	ExpiresAt    time.Time
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	LastActivity time.Time
	SessionID    int

	level *Level
	ball  *Ball
	mu    sync.RWMutex
}

// NewPinballGame creates a session in WAITING state.
func NewPinballGame(id, token string, player PinballPlayer, level *Level, balls int, expiry time.Duration) *GameState {
	if balls < 1 {
		balls = 1
	}
	now := time.Now()
	return &GameState{
		ID:           id,
		Token:        token,
		Player:       player,
		LevelName:    level.Name,
		BallsLeft:    balls,
		Status:       StatusWaiting,
		ExpiresAt:    now.Add(expiry),
		CreatedAt:    now,
		LastActivity: now,
		level:        level,
		ball:         level.NewBall(),
	}
}

// Start puts the first ball in play.
func (g *GameState) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusWaiting {
		log.Printf("[GAME] Game %s already started, skipping", g.ID)
		return nil
	}

	now := time.Now()
	g.StartedAt = &now
	g.Status = StatusInProgress
	g.LastActivity = now
	g.ball.Reset(g.level.BallStart)

	log.Printf("[GAME] Game %s started on level %s (player=%d balls=%d)", g.ID, g.LevelName, g.Player.ID, g.BallsLeft)
	return nil
}

// SetFlipper records an actuator intent. It is idempotent.
func (g *GameState) SetFlipper(side FlipperSide, active bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusInProgress {
		return ErrGameNotInProgress
	}
	switch side {
	case SideLeft:
		g.level.SetFlippers(true, active)
	case SideRight:
		g.level.SetFlippers(false, active)
	default:
		return ErrInvalidSide
	}
	g.LastActivity = time.Now()
	return nil
}

// Step runs one simulation tick. finished is true on the tick the game ends.
func (g *GameState) Step() (res TickResult, finished bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status != StatusInProgress {
		return TickResult{}, false
	}

	res = g.level.Step(g.ball)
	g.Tick++
	g.Score += res.ScoreDelta

	if !res.BallLost {
		return res, false
	}

	g.BallsLeft--
	g.BallsPlayed++
	if g.BallsLeft > 0 {
		log.Printf("[GAME] Game %s ball lost at tick %d, %d left (score=%d)", g.ID, g.Tick, g.BallsLeft, g.Score)
		g.ball.Reset(g.level.BallStart)
		return res, false
	}

	g.finishLocked(StatusCompleted, EndBallsExhausted)
	log.Printf("[GAME] Game %s over at tick %d, final score %d", g.ID, g.Tick, g.Score)
	return res, true
}

// Cancel stops a game that is not already finished.
func (g *GameState) Cancel(reason string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.Status.IsFinished() {
		return false
	}
	g.finishLocked(StatusCancelled, reason)
	log.Printf("[GAME] Game %s cancelled (%s), score %d", g.ID, reason, g.Score)
	return true
}

func (g *GameState) finishLocked(status GameStatus, reason string) {
	now := time.Now()
	g.Status = status
	g.EndReason = reason
	g.CompletedAt = &now
}

// Snapshot returns the current pose snapshot.
func (g *GameState) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.level.Snapshot(g.ball)
}

// View returns the session summary, with a snapshot when withSnapshot is set.
func (g *GameState) View(withSnapshot bool) GameView {
	g.mu.RLock()
	defer g.mu.RUnlock()

	v := GameView{
		ID:          g.ID,
		Token:       g.Token,
		Player:      g.Player,
		Level:       g.LevelName,
		Status:      g.Status,
		Score:       g.Score,
		BallsLeft:   g.BallsLeft,
		BallsPlayed: g.BallsPlayed,
		Tick:        g.Tick,
		EndReason:   g.EndReason,
		CreatedAt:   g.CreatedAt,
		StartedAt:   g.StartedAt,
		CompletedAt: g.CompletedAt,
	}
	if withSnapshot {
		s := g.level.Snapshot(g.ball)
		v.Snapshot = &s
	}
	return v
}

// GetStatus returns the status under the read lock.
func (g *GameState) GetStatus() GameStatus {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.Status
}

// Idle reports how long it has been since the last actuator intent.
func (g *GameState) Idle(now time.Time) time.Duration {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return now.Sub(g.LastActivity)
}

// LevelDescriptor returns the static layout clients draw the table from.
func (g *GameState) LevelDescriptor() LevelDescriptor {
	return g.level.Descriptor()
}
