package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/redis/go-redis/v9"
)

// Broadcaster delivers messages to the clients watching a game.
type Broadcaster interface {
	BroadcastToGame(gameID string, message interface{})
}

// GameManager owns every live session and the goroutine ticking it.
type GameManager struct {
	games       map[string]*GameState         // keyed by game ID
	tokens      map[string]string             // game token -> game ID
	cancels     map[string]context.CancelFunc // game ID -> tick loop cancel
	rdb         *redis.Client                 // Redis client for live state, leaderboard, events
	db          *sqlx.DB                      // SQL DB for persistent records
	config      *config.Config                // Application config
	broadcaster Broadcaster
	baseCtx     context.Context
	mu          sync.RWMutex
}

var (
	// Global game manager instance
	Manager *GameManager
)

// InitializeManager initializes the global game manager with Redis, DB and config
func InitializeManager(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewGameManager(ctx, db, rdb, cfg)
	go Manager.StartExpiryChecker(ctx)
}

// NewGameManager creates a manager. Tick loops are children of ctx.
func NewGameManager(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *GameManager {
	if cfg == nil {
		cfg = &config.Config{TickRateHz: 60, SnapshotEveryTicks: 2, BallsPerGame: 3, DefaultLevel: "classic", GameExpiryMinutes: 10}
	}
	return &GameManager{
		games:   make(map[string]*GameState),
		tokens:  make(map[string]string),
		cancels: make(map[string]context.CancelFunc),
		rdb:     rdb,
		db:      db,
		config:  cfg,
		baseCtx: ctx,
	}
}

// SetBroadcaster wires the realtime transport.
func (gm *GameManager) SetBroadcaster(b Broadcaster) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.broadcaster = b
}

func (gm *GameManager) getBroadcaster() Broadcaster {
	gm.mu.RLock()
	defer gm.mu.RUnlock()
	return gm.broadcaster
}

// generateToken generates a random hex token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// generateGameID generates a unique game ID
func generateGameID() string {
	return "game_" + generateToken(8)
}

// CreateGame builds the level, starts the session and its tick loop.
func (gm *GameManager) CreateGame(player PinballPlayer, levelName string) (*GameState, error) {
	if levelName == "" {
		levelName = gm.config.DefaultLevel
	}
	level, err := LevelByName(levelName)
	if err != nil {
		return nil, err
	}

	expiry := time.Duration(gm.config.GameExpiryMinutes) * time.Minute
	g := NewPinballGame(generateGameID(), generateToken(16), player, level, gm.config.BallsPerGame, expiry)

	if sessionID, err := gm.RecordSessionStart(g); err != nil {
		log.Printf("[DB] Failed to record session for game %s: %v", g.ID, err)
	} else {
		g.SessionID = sessionID
	}

	if err := g.Start(); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	if g.StartedAt != nil {
		gm.MarkSessionStarted(g.SessionID, *g.StartedAt)
	}

	ctx, cancel := context.WithCancel(gm.baseCtx)

	gm.mu.Lock()
	gm.games[g.ID] = g
	gm.tokens[g.Token] = g.ID
	gm.cancels[g.ID] = cancel
	gm.mu.Unlock()

	gm.touchIdle(g.Token)
	go gm.run(ctx, g)

	log.Printf("[GAME] Game created: %s (token=%s level=%s)", g.ID, g.Token, levelName)
	return g, nil
}

// GetGame retrieves a game by ID
func (gm *GameManager) GetGame(gameID string) (*GameState, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	g, ok := gm.games[gameID]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// GetGameByToken retrieves a game by its token
func (gm *GameManager) GetGameByToken(token string) (*GameState, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	id, ok := gm.tokens[token]
	if !ok {
		return nil, ErrGameNotFound
	}
	g, ok := gm.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return g, nil
}

// SetFlipper forwards an actuator intent and refreshes the idle deadline.
func (gm *GameManager) SetFlipper(token string, side FlipperSide, active bool) error {
	g, err := gm.GetGameByToken(token)
	if err != nil {
		return err
	}
	if err := g.SetFlipper(side, active); err != nil {
		return err
	}
	gm.touchIdle(token)
	return nil
}

// AbortGame cancels a running game. The tick loop finalizes it.
func (gm *GameManager) AbortGame(token, reason string) error {
	g, err := gm.GetGameByToken(token)
	if err != nil {
		return err
	}
	if !g.Cancel(reason) {
		return ErrGameNotInProgress
	}
	return nil
}

// ActiveGames returns a summary of every session held in memory.
func (gm *GameManager) ActiveGames() []GameView {
	gm.mu.RLock()
	games := make([]*GameState, 0, len(gm.games))
	for _, g := range gm.games {
		games = append(games, g)
	}
	gm.mu.RUnlock()

	views := make([]GameView, 0, len(games))
	for _, g := range games {
		views = append(views, g.View(false))
	}
	return views
}

// GetActiveGameCount returns the number of sessions still ticking.
func (gm *GameManager) GetActiveGameCount() int {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	n := 0
	for _, g := range gm.games {
		if g.GetStatus() == StatusInProgress {
			n++
		}
	}
	return n
}

// run ticks one game at the configured rate until it finishes or ctx ends.
func (gm *GameManager) run(ctx context.Context, g *GameState) {
	hz := gm.config.TickRateHz
	if hz <= 0 {
		hz = 60
	}
	every := int64(gm.config.SnapshotEveryTicks)
	if every <= 0 {
		every = 1
	}

	ticker := time.NewTicker(time.Second / time.Duration(hz))
	defer ticker.Stop()

	var tick int64
	for {
		select {
		case <-ctx.Done():
			g.Cancel(EndAborted)
			gm.finalize(g)
			return
		case <-ticker.C:
			if g.GetStatus().IsFinished() {
				gm.finalize(g)
				return
			}

			res, finished := g.Step()
			tick++

			if res.BallLost {
				v := g.View(false)
				go gm.RecordBallLost(g.SessionID, g.Player.ID, v.BallsPlayed, v.Score, v.Tick)
			}

			if events := notableEvents(res.Events); len(events) > 0 {
				gm.broadcast(g.ID, map[string]interface{}{
					"type":   "events",
					"tick":   tick,
					"events": events,
				})
			}
			if tick%every == 0 || finished {
				gm.broadcastSnapshot(g)
			}
			if tick%int64(hz) == 0 {
				if err := gm.saveGameToRedis(g); err != nil {
					log.Printf("[REDIS] Failed to cache game %s: %v", g.ID, err)
				}
			}
			if finished {
				gm.finalize(g)
				return
			}
		}
	}
}

// loudHitSpeed is the minimum speed at which an unscored wall or flipper
// contact is forwarded to clients for sound.
const loudHitSpeed = 8.0

// notableEvents drops resting contacts that clients have no use for.
func notableEvents(events []CollisionEvent) []CollisionEvent {
	var out []CollisionEvent
	for _, ev := range events {
		switch {
		case ev.Points > 0, ev.Type == EventTargetReset, ev.Type == EventBallLost, ev.Type == EventTunnelEnter:
			out = append(out, ev)
		case ev.Speed >= loudHitSpeed:
			out = append(out, ev)
		}
	}
	return out
}

func (gm *GameManager) broadcast(gameID string, msg interface{}) {
	if b := gm.getBroadcaster(); b != nil {
		b.BroadcastToGame(gameID, msg)
	}
}

func (gm *GameManager) broadcastSnapshot(g *GameState) {
	v := g.View(true)
	gm.broadcast(g.ID, map[string]interface{}{
		"type":       "snapshot",
		"tick":       v.Tick,
		"score":      v.Score,
		"balls_left": v.BallsLeft,
		"status":     v.Status,
		"snapshot":   v.Snapshot,
	})
}

// finalize persists a finished game and announces the result.
func (gm *GameManager) finalize(g *GameState) {
	gm.SaveFinalGameState(g)
	if err := gm.saveGameToRedis(g); err != nil {
		log.Printf("[REDIS] Failed to cache final state of game %s: %v", g.ID, err)
	}
	gm.clearIdle(g.Token)

	v := g.View(false)
	gm.publishGameEvent(map[string]interface{}{
		"type":       "game_over",
		"game_id":    g.ID,
		"game_token": g.Token,
		"score":      v.Score,
		"status":     v.Status,
		"reason":     v.EndReason,
	})
}

// StartExpiryChecker periodically evicts finished games and cancels games
// that outlived their expiry or went idle without Redis to track them.
func (gm *GameManager) StartExpiryChecker(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			gm.checkExpiredGames(time.Now())
		}
	}
}

func (gm *GameManager) checkExpiredGames(now time.Time) {
	retain := time.Duration(gm.config.GameExpiryMinutes) * time.Minute
	idle := time.Duration(gm.config.IdleTimeoutSeconds) * time.Second

	gm.mu.RLock()
	var candidates []*GameState
	for _, g := range gm.games {
		candidates = append(candidates, g)
	}
	gm.mu.RUnlock()

	for _, g := range candidates {
		v := g.View(false)
		switch {
		case v.Status.IsFinished() && v.CompletedAt != nil && now.Sub(*v.CompletedAt) > retain:
			gm.evict(g)
		case v.Status == StatusWaiting && now.After(g.ExpiresAt):
			log.Printf("[EXPIRY] Game %s expired before starting", g.ID)
			g.Cancel(EndExpired)
			gm.evict(g)
		case v.Status == StatusInProgress && gm.rdb == nil && idle > 0 && g.Idle(now) > idle:
			log.Printf("[EXPIRY] Game %s idle for %s; cancelling", g.ID, g.Idle(now).Round(time.Second))
			g.Cancel(EndIdle)
		}
	}
}

func (gm *GameManager) evict(g *GameState) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if cancel, ok := gm.cancels[g.ID]; ok {
		cancel()
		delete(gm.cancels, g.ID)
	}
	delete(gm.tokens, g.Token)
	delete(gm.games, g.ID)
	log.Printf("[EXPIRY] Game %s evicted from memory", g.ID)
}
