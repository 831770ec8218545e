package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/pinball/internal/game"
)

// FlipperData is the payload of a "flipper" message.
type FlipperData struct {
	Side   string `json:"side"`
	Active bool   `json:"active"`
}

// Authenticator resolves an access token to a player ID.
type Authenticator func(token string) (int, error)

// GameHub is the single hub for all games.
var GameHub *Hub

var clientSeq uint64

func init() {
	GameHub = NewHub()
	go GameHub.Run()
}

func nextClientID() string {
	return fmt.Sprintf("c%d", atomic.AddUint64(&clientSeq, 1))
}

// HandleWebSocket upgrades a connection onto the game named by the :token
// path parameter. A valid access_token for the owning player grants flipper
// control; without one the client only watches.
func HandleWebSocket(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		gameToken := c.Param("token")
		if gameToken == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "game token required"})
			return
		}
		if game.Manager == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "game manager not ready"})
			return
		}

		g, err := game.Manager.GetGameByToken(gameToken)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
			return
		}

		playerID := 0
		if at := c.Query("access_token"); at != "" && auth != nil {
			id, err := auth(at)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
				return
			}
			playerID = id
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			conn:      conn,
			id:        nextClientID(),
			playerID:  playerID,
			isPlayer:  playerID != 0 && playerID == g.Player.ID,
			gameID:    g.ID,
			gameToken: gameToken,
			send:      make(chan []byte, sendBuffer),
		}

		GameHub.register <- client

		go client.writePump()
		go client.readPump()
	}
}

// Run serializes client registration for the hub.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
			log.Printf("[WS] Client %s connected to game %s (player=%v room_size=%d)", client.id, client.gameID, client.isPlayer, h.RoomSize(client.gameID))
			sendInitialState(client)

		case client := <-h.unregister:
			if h.remove(client) {
				log.Printf("[WS] Client %s disconnected from game %s", client.id, client.gameID)
			}
		}
	}
}

// sendInitialState gives a new client the static level and the live state.
func sendInitialState(client *Client) {
	if game.Manager == nil {
		return
	}
	g, err := game.Manager.GetGameByToken(client.gameToken)
	if err != nil {
		client.sendError("Game not found")
		return
	}

	client.sendJSON(map[string]interface{}{
		"type":      "level",
		"level":     g.LevelDescriptor(),
		"is_player": client.isPlayer,
	})
	client.sendJSON(gameStateMessage(g))
}

func gameStateMessage(g *game.GameState) map[string]interface{} {
	return map[string]interface{}{
		"type": "game_state",
		"game": g.View(true),
	}
}

// readPump reads client messages until the connection drops.
func (c *Client) readPump() {
	defer func() {
		GameHub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for %s: %v", c.id, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			c.sendError("Invalid message")
			continue
		}

		c.handleMessage(msg)
	}
}

// handleMessage processes one client message.
func (c *Client) handleMessage(msg WSMessage) {
	g, err := game.Manager.GetGameByToken(c.gameToken)
	if err != nil {
		c.sendError("Game not found")
		return
	}

	switch msg.Type {
	case "flipper":
		if !c.isPlayer {
			c.sendError("Spectators cannot control flippers")
			return
		}
		side, active, err := decodeFlipper(msg.Data)
		if err != nil {
			c.sendError(err.Error())
			return
		}
		if err := game.Manager.SetFlipper(c.gameToken, side, active); err != nil {
			if errors.Is(err, game.ErrGameNotInProgress) {
				c.sendError("Game is not in progress")
				return
			}
			c.sendError(err.Error())
		}

	case "get_state":
		c.sendJSON(gameStateMessage(g))

	case "concede":
		if !c.isPlayer {
			c.sendError("Spectators cannot end the game")
			return
		}
		if err := game.Manager.AbortGame(c.gameToken, game.EndAborted); err != nil {
			c.sendError("Game is not in progress")
		}

	default:
		c.sendError("Unknown message type")
	}
}

// decodeFlipper parses and validates a flipper payload.
func decodeFlipper(data json.RawMessage) (game.FlipperSide, bool, error) {
	var fd FlipperData
	if err := json.Unmarshal(data, &fd); err != nil {
		return "", false, fmt.Errorf("invalid flipper data")
	}
	switch side := game.FlipperSide(fd.Side); side {
	case game.SideLeft, game.SideRight:
		return side, fd.Active, nil
	default:
		return "", false, game.ErrInvalidSide
	}
}
