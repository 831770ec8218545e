package game

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/playmatatu/pinball/internal/models"
	"github.com/redis/go-redis/v9"
)

// LeaderboardEntry is one row of a level's high score table.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

func leaderboardKey(level string) string {
	return "leaderboard:" + level
}

func gameStateKey(token string) string {
	return "game:" + token + ":state"
}

// RecordSessionStart inserts the game_sessions row and returns its id.
func (gm *GameManager) RecordSessionStart(g *GameState) (int, error) {
	if gm == nil || gm.db == nil {
		return 0, nil
	}

	var playerParam interface{}
	if g.Player.ID > 0 {
		playerParam = g.Player.ID
	}

	var id int
	err := gm.db.QueryRowx(
		`INSERT INTO game_sessions (game_token, player_id, level_name, status, balls_total, created_at) VALUES ($1,$2,$3,$4,$5,NOW()) RETURNING id`,
		g.Token, playerParam, g.LevelName, string(StatusWaiting), g.BallsLeft,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert game session: %w", err)
	}
	return id, nil
}

// RecordBallLost records a drained ball as a game move with JSONB event data.
func (gm *GameManager) RecordBallLost(sessionID int, playerID int, ballNumber int, score int, tick int64) {
	if gm == nil || gm.db == nil || sessionID == 0 {
		return
	}

	eventData, err := json.Marshal(map[string]interface{}{
		"ball":  ballNumber,
		"score": score,
		"tick":  tick,
	})
	if err != nil {
		log.Printf("[DB] Failed to marshal ball event for session %d: %v", sessionID, err)
		return
	}

	var playerParam interface{}
	if playerID > 0 {
		playerParam = playerID
	}

	_, err = gm.db.Exec(
		`INSERT INTO game_moves (session_id, player_id, move_number, move_type, event_data, created_at) VALUES ($1,$2,$3,$4,$5::jsonb,NOW())`,
		sessionID, playerParam, ballNumber, "BALL_LOST", string(eventData),
	)
	if err != nil {
		log.Printf("[DB] Failed to record ball lost for session %d: %v", sessionID, err)
	}
}

// SaveFinalGameState persists the outcome of a finished game and ranks it.
func (gm *GameManager) SaveFinalGameState(g *GameState) {
	if gm == nil {
		return
	}

	g.mu.RLock()
	sessionID := g.SessionID
	status := g.Status
	score := g.Score
	ballsPlayed := g.BallsPlayed
	ticks := g.Tick
	reason := g.EndReason
	startedAt := g.StartedAt
	username := g.Player.Username
	playerID := g.Player.ID
	level := g.LevelName
	g.mu.RUnlock()

	if gm.db != nil && sessionID != 0 {
		var startedAtParam interface{}
		if startedAt != nil {
			startedAtParam = *startedAt
		}
		if _, err := gm.db.Exec(
			`UPDATE game_sessions SET status=$1, score=$2, balls_played=$3, ticks=$4, end_reason=$5, started_at = COALESCE(started_at, $6), completed_at = NOW() WHERE id = $7`,
			string(status), score, ballsPlayed, ticks, reason, startedAtParam, sessionID,
		); err != nil {
			log.Printf("[DB] Failed to update game_sessions for session %d to %s: %v", sessionID, status, err)
		}
		if playerID > 0 {
			if _, err := gm.db.Exec(
				`UPDATE players SET total_games_played = total_games_played + 1, best_score = GREATEST(best_score, $1), last_active = NOW() WHERE id = $2`,
				score, playerID,
			); err != nil {
				log.Printf("[DB] Failed to update stats for player %d: %v", playerID, err)
			}
		}
	}

	// Cancelled games keep their row but never rank.
	if status == StatusCompleted && username != "" {
		if err := gm.addToLeaderboard(level, username, score); err != nil {
			log.Printf("[REDIS] Failed to update leaderboard %s: %v", level, err)
		}
	}
}

// MarkSessionStarted updates the session row to IN_PROGRESS and sets started_at if it wasn't set.
func (gm *GameManager) MarkSessionStarted(sessionID int, startedAt time.Time) error {
	if gm == nil || gm.db == nil || sessionID == 0 {
		return nil
	}
	_, err := gm.db.Exec(`UPDATE game_sessions SET status=$1, started_at = COALESCE(started_at, $2) WHERE id=$3`, string(StatusInProgress), startedAt, sessionID)
	if err != nil {
		log.Printf("[DB] Failed to mark session %d as IN_PROGRESS: %v", sessionID, err)
	}
	return err
}

// addToLeaderboard keeps each player's best score per level.
func (gm *GameManager) addToLeaderboard(level, username string, score int) error {
	if gm.rdb == nil {
		return nil
	}
	return gm.rdb.ZAddGT(context.Background(), leaderboardKey(level), redis.Z{Score: float64(score), Member: username}).Err()
}

// Leaderboard returns the top scores for a level, from Redis when it has
// them and from game_sessions otherwise.
func (gm *GameManager) Leaderboard(ctx context.Context, level string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	if gm.rdb != nil {
		zs, err := gm.rdb.ZRevRangeWithScores(ctx, leaderboardKey(level), 0, int64(limit-1)).Result()
		if err != nil {
			log.Printf("[REDIS] Leaderboard read failed for %s, falling back to DB: %v", level, err)
		} else if len(zs) > 0 {
			entries := make([]LeaderboardEntry, 0, len(zs))
			for i, z := range zs {
				name, _ := z.Member.(string)
				entries = append(entries, LeaderboardEntry{Rank: i + 1, Username: name, Score: int(z.Score)})
			}
			return entries, nil
		}
	}

	if gm.db == nil {
		return []LeaderboardEntry{}, nil
	}

	var rows []struct {
		Username string `db:"username"`
		Score    int    `db:"score"`
	}
	err := gm.db.SelectContext(ctx, &rows, `
		SELECT p.username, MAX(s.score) AS score
		FROM game_sessions s
		JOIN players p ON p.id = s.player_id
		WHERE s.level_name = $1 AND s.status = $2
		GROUP BY p.username
		ORDER BY score DESC
		LIMIT $3`, level, string(StatusCompleted), limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(rows))
	for i, r := range rows {
		entries = append(entries, LeaderboardEntry{Rank: i + 1, Username: r.Username, Score: r.Score})
	}
	return entries, nil
}

// saveGameToRedis caches the session summary for an hour.
func (gm *GameManager) saveGameToRedis(g *GameState) error {
	if gm.rdb == nil {
		return nil
	}

	data, err := json.Marshal(g.View(false))
	if err != nil {
		return err
	}
	return gm.rdb.SetEx(context.Background(), gameStateKey(g.Token), data, time.Hour).Err()
}

// LoadGameView returns a session summary from memory, then from the Redis
// cache, then from game_sessions.
func (gm *GameManager) LoadGameView(ctx context.Context, token string) (*GameView, error) {
	if g, err := gm.GetGameByToken(token); err == nil {
		v := g.View(true)
		return &v, nil
	}

	if gm.rdb != nil {
		data, err := gm.rdb.Get(ctx, gameStateKey(token)).Bytes()
		if err == nil {
			var v GameView
			if err := json.Unmarshal(data, &v); err == nil {
				return &v, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Printf("[REDIS] Failed to load game %s: %v", token, err)
		}
	}

	if gm.db == nil {
		return nil, ErrGameNotFound
	}

	var row struct {
		models.GameSession
		Username sql.NullString `db:"username"`
	}
	err := gm.db.GetContext(ctx, &row, `
		SELECT s.id, s.game_token, s.player_id, p.username, s.level_name, s.status, s.score,
		       s.balls_total, s.balls_played, s.ticks, s.end_reason, s.created_at, s.started_at, s.completed_at
		FROM game_sessions s
		LEFT JOIN players p ON p.id = s.player_id
		WHERE s.game_token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load game session: %w", err)
	}

	return sessionView(row.GameSession, row.Username.String), nil
}

// sessionView converts a persisted session into the view clients receive.
func sessionView(s models.GameSession, username string) *GameView {
	v := &GameView{
		ID:          "session_" + strconv.Itoa(s.ID),
		Token:       s.GameToken,
		Player:      PinballPlayer{ID: int(s.PlayerID.Int64), Username: username},
		Level:       s.LevelName,
		Status:      GameStatus(s.Status),
		Score:       s.Score,
		BallsLeft:   s.BallsTotal - s.BallsPlayed,
		BallsPlayed: s.BallsPlayed,
		Tick:        s.Ticks,
		EndReason:   s.EndReason.String,
		CreatedAt:   s.CreatedAt,
	}
	if s.StartedAt.Valid {
		t := s.StartedAt.Time
		v.StartedAt = &t
	}
	if s.CompletedAt.Valid {
		t := s.CompletedAt.Time
		v.CompletedAt = &t
	}
	if v.BallsLeft < 0 {
		v.BallsLeft = 0
	}
	return v
}

// publishGameEvent fans an event out over Redis so every server instance
// can deliver it. Without Redis it goes straight to the local broadcaster.
func (gm *GameManager) publishGameEvent(payload map[string]interface{}) {
	gameID, _ := payload["game_id"].(string)

	if gm.rdb == nil {
		gm.broadcast(gameID, payload)
		return
	}

	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal %v event for game %s: %v", payload["type"], gameID, err)
		return
	}
	if n, err := gm.rdb.Publish(context.Background(), "game_events", b).Result(); err != nil {
		log.Printf("[REDIS] publish %v failed: game=%s err=%v", payload["type"], gameID, err)
		gm.broadcast(gameID, payload)
	} else {
		log.Printf("[REDIS] published %v: game=%s subscribers=%d", payload["type"], gameID, n)
	}
}
