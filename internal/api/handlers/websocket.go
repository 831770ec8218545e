package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/playmatatu/pinball/internal/config"
	"github.com/playmatatu/pinball/internal/ws"
)

// HandleGameWebSocket handles real-time game communication
func HandleGameWebSocket(cfg *config.Config) gin.HandlerFunc {
	return ws.HandleWebSocket(func(token string) (int, error) {
		playerID, _, err := ParsePlayerToken(cfg.JWTSecret, token)
		return playerID, err
	})
}
