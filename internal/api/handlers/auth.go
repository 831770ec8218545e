package handlers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/models"
	"golang.org/x/crypto/bcrypt"
)

type credentials struct {
	Username    string `json:"username"`
	PIN         string `json:"pin"`
	DisplayName string `json:"display_name"`
}

// RegisterPlayer creates a player with a bcrypt-hashed PIN and returns a token.
// POST /api/v1/player/register
func RegisterPlayer(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and pin required"})
			return
		}

		username := strings.TrimSpace(req.Username)
		pin := strings.TrimSpace(req.PIN)
		if !usernamePattern.MatchString(username) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username must be 3-32 letters, digits or underscores"})
			return
		}
		if !validPIN(pin) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be 4 to 6 digits"})
			return
		}
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "player storage unavailable"})
			return
		}

		pinHash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[AUTH] bcrypt error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		displayName := sql.NullString{String: strings.TrimSpace(req.DisplayName)}
		displayName.Valid = displayName.String != ""

		var id int
		err = db.QueryRow(`
			INSERT INTO players (username, display_name, pin_hash, created_at, last_active)
			VALUES ($1, $2, $3, NOW(), NOW())
			RETURNING id
		`, username, displayName, string(pinHash)).Scan(&id)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				c.JSON(http.StatusConflict, gin.H{"error": "username taken"})
				return
			}
			log.Printf("[AUTH] Failed to create player %s: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		token, err := issuePlayerToken(cfg.JWTSecret, id, username, time.Now())
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		log.Printf("[AUTH] Player registered: %s (id=%d)", username, id)
		c.JSON(http.StatusCreated, gin.H{
			"token":  token,
			"player": gin.H{"id": id, "username": username, "display_name": displayName.String},
		})
	}
}

// LoginPlayer checks a username and PIN and returns a token.
// POST /api/v1/player/login
func LoginPlayer(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req credentials
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and pin required"})
			return
		}
		username := strings.TrimSpace(req.Username)
		pin := strings.TrimSpace(req.PIN)
		if username == "" || pin == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "username and pin required"})
			return
		}
		if db == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "player storage unavailable"})
			return
		}

		var player models.Player
		err := db.Get(&player, `
			SELECT id, username, display_name, pin_hash, created_at, total_games_played,
			       best_score, is_blocked, last_active
			FROM players WHERE username = $1
		`, username)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or PIN"})
			return
		}
		if err != nil {
			log.Printf("[AUTH] Login lookup failed for %s: %v", username, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if bcrypt.CompareHashAndPassword([]byte(player.PinHash), []byte(pin)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or PIN"})
			return
		}
		if player.IsBlocked {
			c.JSON(http.StatusForbidden, gin.H{"error": "account blocked"})
			return
		}

		if _, err := db.Exec(`UPDATE players SET last_active = NOW() WHERE id = $1`, player.ID); err != nil {
			log.Printf("[AUTH] Failed to update last_active for %d: %v", player.ID, err)
		}

		token, err := issuePlayerToken(cfg.JWTSecret, player.ID, player.Username, time.Now())
		if err != nil {
			log.Printf("[AUTH] Failed to sign token: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token, "player": player})
	}
}

// AuthMiddleware validates the bearer JWT and sets player_id and username.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		playerID, username, err := ParsePlayerToken(cfg.JWTSecret, strings.TrimPrefix(auth, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("player_id", playerID)
		c.Set("username", username)
		c.Next()
	}
}

// GetMe returns the authenticated player's profile and stats.
// GET /api/v1/me
func GetMe(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.GetInt("player_id")
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"id": playerID, "username": c.GetString("username")})
			return
		}

		var player models.Player
		err := db.Get(&player, `
			SELECT id, username, display_name, pin_hash, created_at, total_games_played,
			       best_score, is_blocked, last_active
			FROM players WHERE id = $1
		`, playerID)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
			return
		}
		if err != nil {
			log.Printf("[AUTH] GetMe failed for %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, player)
	}
}
