package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Player is a registered pinball player
type Player struct {
	ID               int            `db:"id" json:"id"`
	Username         string         `db:"username" json:"username"`
	DisplayName      sql.NullString `db:"display_name" json:"display_name,omitempty"`
	PinHash          string         `db:"pin_hash" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	TotalGamesPlayed int            `db:"total_games_played" json:"total_games_played"`
	BestScore        int            `db:"best_score" json:"best_score"`
	IsBlocked        bool           `db:"is_blocked" json:"is_blocked"`
	LastActive       sql.NullTime   `db:"last_active" json:"last_active,omitempty"`
}

// GameSession is the persisted record of one game
type GameSession struct {
	ID          int            `db:"id" json:"id"`
	GameToken   string         `db:"game_token" json:"game_token"`
	PlayerID    sql.NullInt64  `db:"player_id" json:"player_id,omitempty"`
	LevelName   string         `db:"level_name" json:"level_name"`
	Status      string         `db:"status" json:"status"`
	Score       int            `db:"score" json:"score"`
	BallsTotal  int            `db:"balls_total" json:"balls_total"`
	BallsPlayed int            `db:"balls_played" json:"balls_played"`
	Ticks       int64          `db:"ticks" json:"ticks"`
	EndReason   sql.NullString `db:"end_reason" json:"end_reason,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	StartedAt   sql.NullTime   `db:"started_at" json:"started_at,omitempty"`
	CompletedAt sql.NullTime   `db:"completed_at" json:"completed_at,omitempty"`
}

// GameMove is a notable in-game event such as a drained ball
type GameMove struct {
	ID         int             `db:"id" json:"id"`
	SessionID  int             `db:"session_id" json:"session_id"`
	PlayerID   sql.NullInt64   `db:"player_id" json:"player_id,omitempty"`
	MoveNumber int             `db:"move_number" json:"move_number"`
	MoveType   string          `db:"move_type" json:"move_type"`
	EventData  json.RawMessage `db:"event_data" json:"event_data,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}

// AdminAccount is an operator allowed to inspect and abort games
type AdminAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit is one entry of the operator audit trail
type AdminAudit struct {
	ID            int             `db:"id" json:"id"`
	AdminUsername string          `db:"admin_username" json:"admin_username"`
	IP            string          `db:"ip" json:"ip"`
	Route         string          `db:"route" json:"route"`
	Action        string          `db:"action" json:"action"`
	Details       json.RawMessage `db:"details" json:"details"`
	Success       bool            `db:"success" json:"success"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}
