package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/admin"
)

// GetAdminPlayers returns a paginated player list, optionally filtered by
// a username prefix.
func GetAdminPlayers(db *sqlx.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		search := strings.TrimSpace(c.Query("search"))
		limit, offset := pagination(c, 25)

		type playerRow struct {
			ID               int        `db:"id" json:"id"`
			Username         string     `db:"username" json:"username"`
			DisplayName      *string    `db:"display_name" json:"display_name"`
			TotalGamesPlayed int        `db:"total_games_played" json:"total_games_played"`
			BestScore        int        `db:"best_score" json:"best_score"`
			IsBlocked        bool       `db:"is_blocked" json:"is_blocked"`
			CreatedAt        time.Time  `db:"created_at" json:"created_at"`
			LastActive       *time.Time `db:"last_active" json:"last_active"`
			TotalCount       int        `db:"total_count" json:"-"`
		}

		rows := []playerRow{}
		err := db.Select(&rows, `
			SELECT id, username, display_name, total_games_played, best_score,
				is_blocked, created_at, last_active,
				COUNT(*) OVER() as total_count
			FROM players
			WHERE ($1 = '' OR username ILIKE $1 || '%')
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, search, limit, offset)
		if err != nil {
			log.Printf("[ADMIN] Failed to fetch players: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch players"})
			return
		}

		total := 0
		if len(rows) > 0 {
			total = rows[0].TotalCount
		}
		c.JSON(http.StatusOK, gin.H{"players": rows, "total": total, "limit": limit, "offset": offset})
	}
}

// AdminSetPlayerBlocked returns a handler that blocks or unblocks a player.
func AdminSetPlayerBlocked(db *sqlx.DB, blocked bool) gin.HandlerFunc {
	action := "unblock_player"
	if blocked {
		action = "block_player"
	}

	return func(c *gin.Context) {
		adminUsername := c.GetString("admin_username")
		playerID := c.Param("id")
		route := c.Request.URL.Path
		details := map[string]interface{}{"player_id": playerID}

		res, err := db.Exec(`UPDATE players SET is_blocked = $1 WHERE id = $2`, blocked, playerID)
		if err != nil {
			log.Printf("[ADMIN] Failed to %s %s: %v", action, playerID, err)
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, action, details, false)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update player"})
			return
		}
		if n, _ := res.RowsAffected(); n == 0 {
			admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, action, details, false)
			c.JSON(http.StatusNotFound, gin.H{"error": "Player not found"})
			return
		}

		admin.LogAdminAction(db, adminUsername, c.ClientIP(), route, action, details, true)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
