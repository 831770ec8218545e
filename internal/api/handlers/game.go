package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/game"
)

// ListLevels returns the built-in level names.
// GET /api/v1/levels
func ListLevels(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"levels":  game.LevelNames(),
			"default": cfg.DefaultLevel,
		})
	}
}

// GetLevel returns the layout of one built-in level.
// GET /api/v1/levels/:name
func GetLevel(c *gin.Context) {
	level, err := game.LevelByName(c.Param("name"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Level not found"})
		return
	}
	c.JSON(http.StatusOK, level.Descriptor())
}

// CreateGame starts a session for the authenticated player.
// POST /api/v1/game
func CreateGame(db *sqlx.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Level string `json:"level"`
		}
		// Empty body means the default level.
		if c.Request.ContentLength > 0 {
			if err := c.BindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
				return
			}
		}

		playerID := c.GetInt("player_id")
		player := game.PinballPlayer{ID: playerID, Username: c.GetString("username")}

		if db != nil {
			var row struct {
				DisplayName *string `db:"display_name"`
				IsBlocked   bool    `db:"is_blocked"`
			}
			if err := db.Get(&row, `SELECT display_name, is_blocked FROM players WHERE id = $1`, playerID); err != nil {
				log.Printf("[GAME] Player lookup failed for %d: %v", playerID, err)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown player"})
				return
			}
			if row.IsBlocked {
				c.JSON(http.StatusForbidden, gin.H{"error": "account blocked"})
				return
			}
			if row.DisplayName != nil {
				player.DisplayName = *row.DisplayName
			}
		}

		g, err := game.Manager.CreateGame(player, req.Level)
		if errors.Is(err, game.ErrUnknownLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown level"})
			return
		}
		if err != nil {
			log.Printf("[GAME] CreateGame failed for player %d: %v", playerID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create game"})
			return
		}

		c.Header("X-Game-ID", g.ID)
		c.JSON(http.StatusCreated, gin.H{
			"game_id":    g.ID,
			"game_token": g.Token,
			"level":      g.LevelName,
			"balls":      g.BallsLeft,
			"ws_url":     "/api/v1/game/" + g.Token + "/ws",
		})
	}
}

// GetGameState returns the current state of a game, live or archived.
// GET /api/v1/game/:token
func GetGameState(c *gin.Context) {
	view, err := game.Manager.LoadGameView(c.Request.Context(), c.Param("token"))
	if errors.Is(err, game.ErrGameNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if err != nil {
		log.Printf("[GAME] LoadGameView failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, view)
}

// SetFlipper applies an actuator intent over plain HTTP.
// POST /api/v1/game/:token/flipper
func SetFlipper(c *gin.Context) {
	token := c.Param("token")

	var req struct {
		Side   string `json:"side"`
		Active *bool  `json:"active"`
	}
	if err := c.BindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "side and active required"})
		return
	}

	g, err := game.Manager.GetGameByToken(token)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	if g.Player.ID != c.GetInt("player_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your game"})
		return
	}

	err = game.Manager.SetFlipper(token, game.FlipperSide(req.Side), *req.Active)
	switch {
	case errors.Is(err, game.ErrInvalidSide):
		c.JSON(http.StatusBadRequest, gin.H{"error": "side must be left or right"})
	case errors.Is(err, game.ErrGameNotInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "game is not in progress"})
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
	default:
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}

// GetLeaderboard returns the best scores for a level.
// GET /api/v1/leaderboard/:level
func GetLeaderboard(c *gin.Context) {
	level := c.Param("level")
	if _, err := game.LevelByName(level); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Level not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	entries, err := game.Manager.Leaderboard(c.Request.Context(), level, limit)
	if err != nil {
		log.Printf("[GAME] Leaderboard failed for %s: %v", level, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": level, "entries": entries})
}
