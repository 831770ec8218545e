package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/pinball/internal/api/handlers"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(middleware.NoCache())
		log.Println("[DEV MODE] no-cache headers enabled for all routes")
	}

	auth := handlers.AuthMiddleware(cfg)

	// API v1 group
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck(db, rdb))

		v1.GET("/levels", handlers.ListLevels(cfg))
		v1.GET("/levels/:name", handlers.GetLevel)
		v1.GET("/leaderboard/:level", handlers.GetLeaderboard)

		// Player endpoints
		player := v1.Group("/player")
		{
			player.POST("/register", handlers.RegisterPlayer(db, cfg))
			player.POST("/login", handlers.LoginPlayer(db, cfg))
		}
		v1.GET("/me", auth, handlers.GetMe(db))

		// Game endpoints
		game := v1.Group("/game")
		{
			game.POST("", auth, handlers.CreateGame(db, cfg))
			game.GET("/:token", handlers.GetGameState)
			game.POST("/:token/flipper", auth, handlers.SetFlipper)
			game.GET("/:token/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleGameWebSocket(cfg))
		}

		// Operator endpoints
		adm := v1.Group("/admin", handlers.AdminMiddleware(db))
		{
			viewer := handlers.RequireAdminRole(handlers.RoleViewer)
			operator := handlers.RequireAdminRole(handlers.RoleOperator)

			adm.GET("/me", handlers.AdminMe)
			adm.GET("/games", viewer, handlers.GetAdminGames(db))
			adm.GET("/games/:token", viewer, handlers.GetAdminGameDetail(db))
			adm.DELETE("/games/:token", operator, handlers.AdminCancelGame(db))
			adm.GET("/players", viewer, handlers.GetAdminPlayers(db))
			adm.POST("/players/:id/block", operator, handlers.AdminSetPlayerBlocked(db, true))
			adm.POST("/players/:id/unblock", operator, handlers.AdminSetPlayerBlocked(db, false))
			adm.GET("/audit", viewer, handlers.GetAdminAuditLogs(db))
		}
	}
}
