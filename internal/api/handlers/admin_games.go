package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/admin"
	"github.com/playmatatu/pinball/internal/game"
	"github.com/playmatatu/pinball/internal/models"
)

// GetAdminGames lists live sessions and a paginated page of recorded ones.
// GET /api/v1/admin/games?status=all|active|completed|cancelled
func GetAdminGames(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.DefaultQuery("status", "all")
		limit, offset := pagination(c, 25)

		type gameRow struct {
			ID          int        `db:"id" json:"id"`
			GameToken   string     `db:"game_token" json:"game_token"`
			Username    *string    `db:"username" json:"username"`
			LevelName   string     `db:"level_name" json:"level_name"`
			Status      string     `db:"status" json:"status"`
			Score       int        `db:"score" json:"score"`
			BallsPlayed int        `db:"balls_played" json:"balls_played"`
			EndReason   *string    `db:"end_reason" json:"end_reason"`
			CreatedAt   time.Time  `db:"created_at" json:"created_at"`
			CompletedAt *time.Time `db:"completed_at" json:"completed_at"`
			TotalCount  int        `db:"total_count" json:"-"`
		}

		rows := []gameRow{}
		err := db.Select(&rows, `
			SELECT gs.id, gs.game_token, p.username, gs.level_name, gs.status,
				gs.score, gs.balls_played, gs.end_reason, gs.created_at, gs.completed_at,
				COUNT(*) OVER() as total_count
			FROM game_sessions gs
			LEFT JOIN players p ON gs.player_id = p.id
			WHERE ($1 = 'all'
				OR ($1 = 'waiting' AND gs.status = 'WAITING')
				OR ($1 = 'active' AND gs.status = 'IN_PROGRESS')
				OR ($1 = 'completed' AND gs.status = 'COMPLETED')
				OR ($1 = 'cancelled' AND gs.status = 'CANCELLED'))
			ORDER BY gs.created_at DESC
			LIMIT $2 OFFSET $3
		`, status, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch games: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch games"})
			return
		}

		total := 0
		if len(rows) > 0 {
			total = rows[0].TotalCount
		}

		c.JSON(http.StatusOK, gin.H{
			"live":   game.Manager.ActiveGames(),
			"games":  rows,
			"total":  total,
			"limit":  limit,
			"offset": offset,
		})
	}
}

// GetAdminGameDetail returns a game's state and its recorded ball losses.
// GET /api/v1/admin/games/:token
func GetAdminGameDetail(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Param("token")

		view, err := game.Manager.LoadGameView(c.Request.Context(), token)
		if errors.Is(err, game.ErrGameNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
			return
		}
		if err != nil {
			log.Printf("[ADMIN] Failed to load game %s: %v", token, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load game"})
			return
		}

		moves := []models.GameMove{}
		if err := db.Select(&moves, `
			SELECT gm.id, gm.session_id, gm.player_id, gm.move_number, gm.move_type, gm.event_data, gm.created_at
			FROM game_moves gm
			JOIN game_sessions gs ON gs.id = gm.session_id
			WHERE gs.game_token = $1
			ORDER BY gm.move_number ASC
		`, token); err != nil {
			log.Printf("[ADMIN] Failed to fetch moves for %s: %v", token, err)
		}

		c.JSON(http.StatusOK, gin.H{"game": view, "moves": moves})
	}
}

// AdminCancelGame aborts a running game.
// DELETE /api/v1/admin/games/:token
func AdminCancelGame(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		token := c.Param("token")
		route := "/api/v1/admin/games/" + token

		err := game.Manager.AbortGame(token, game.EndAborted)
		details := map[string]interface{}{"game_token": token}
		switch {
		case errors.Is(err, game.ErrGameNotFound):
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "cancel_game", details, false)
			c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		case errors.Is(err, game.ErrGameNotInProgress):
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "cancel_game", details, false)
			c.JSON(http.StatusConflict, gin.H{"error": "Game already finished"})
		case err != nil:
			log.Printf("[ADMIN] Failed to cancel game %s: %v", token, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel game"})
		default:
			log.Printf("[ADMIN] Game %s cancelled by %s", token, adminUsername)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, "cancel_game", details, true)
			c.JSON(http.StatusOK, gin.H{"ok": true})
		}
	}
}
