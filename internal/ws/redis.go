package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

var rdbClient *redis.Client

// SetRedisClient wires the Redis client used for cross-instance events.
func SetRedisClient(r *redis.Client) {
	rdbClient = r
}

// StartEventSubscriber subscribes to idle_events and game_events and relays
// each event to the room of the game it names.
func StartEventSubscriber(ctx context.Context) {
	if rdbClient == nil {
		log.Println("[WS] Redis client not set; event subscriber not started")
		return
	}

	pubsub := rdbClient.Subscribe(ctx, "idle_events", "game_events")
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Println("[WS] idle_events/game_events subscriber started")
		for msg := range ch {
			handleEvent(GameHub, []byte(msg.Payload))
		}
	}()
}

// handleEvent converts a published event into the client-facing message.
func handleEvent(h *Hub, raw []byte) {
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Printf("[WS] invalid event payload: %v", err)
		return
	}

	typeStr, _ := payload["type"].(string)
	gameID, _ := payload["game_id"].(string)
	if gameID == "" {
		log.Printf("[WS] event %s without game_id dropped", typeStr)
		return
	}

	var out map[string]interface{}
	switch typeStr {
	case "game_over":
		out = map[string]interface{}{
			"type":   "game_over",
			"score":  payload["score"],
			"status": payload["status"],
			"reason": payload["reason"],
		}
	case "player_idle":
		out = map[string]interface{}{
			"type":    "player_idle",
			"message": payload["message"],
		}
	default:
		log.Printf("[WS] unknown event type: %s", typeStr)
		return
	}

	if h.RoomSize(gameID) == 0 {
		log.Printf("[WS] no room for game %s; %s will not be broadcast", gameID, typeStr)
		return
	}
	h.BroadcastToGame(gameID, out)
}
