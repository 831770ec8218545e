package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/database"
	"github.com/playmatatu/pinball/internal/game"
	pinredis "github.com/playmatatu/pinball/internal/redis"
	"github.com/redis/go-redis/v9"
)

var startTime = time.Now()

const version = "1.0.0"

func dependencyStatus(ctx context.Context, configured bool, ping func(context.Context) error) string {
	if !configured {
		return "disabled"
	}
	if err := ping(ctx); err != nil {
		return "down"
	}
	return "ok"
}

// HealthCheck returns server health status
func HealthCheck(db *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus := dependencyStatus(ctx, db != nil, func(ctx context.Context) error { return database.Ping(ctx, db) })
		redisStatus := dependencyStatus(ctx, rdb != nil, func(ctx context.Context) error { return pinredis.Ping(ctx, rdb) })

		status, code := "ok", http.StatusOK
		if dbStatus == "down" || redisStatus == "down" {
			status, code = "degraded", http.StatusServiceUnavailable
		}

		activeGames := 0
		if game.Manager != nil {
			activeGames = game.Manager.GetActiveGameCount()
		}

		c.JSON(code, gin.H{
			"status":       status,
			"service":      "pinball-api",
			"version":      version,
			"uptime":       time.Since(startTime).String(),
			"database":     dbStatus,
			"redis":        redisStatus,
			"active_games": activeGames,
		})
	}
}
