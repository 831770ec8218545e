package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/playmatatu/pinball/internal/config"
	"github.com/redis/go-redis/v9"
)

const idleForfeitKey = "idle_forfeit"

// idleMember formats the sorted-set member for a game: g:<gameToken>:p:<playerID>
func idleMember(token string, playerID int) string {
	return fmt.Sprintf("g:%s:p:%d", token, playerID)
}

// parseMember expects member format g:<gameToken>:p:<playerID>
func parseMember(m string) (string, string) {
	parts := strings.Split(m, ":")
	if len(parts) >= 4 && parts[0] == "g" && parts[2] == "p" {
		return parts[1], parts[3]
	}
	return "", ""
}

// touchIdle pushes the idle deadline of a game forward.
func (gm *GameManager) touchIdle(token string) {
	if gm.rdb == nil || gm.config.IdleTimeoutSeconds <= 0 {
		return
	}
	g, err := gm.GetGameByToken(token)
	if err != nil {
		return
	}

	ctx := context.Background()
	m := idleMember(token, g.Player.ID)
	now := time.Now()
	deadline := now.Add(time.Duration(gm.config.IdleTimeoutSeconds) * time.Second)

	if err := gm.rdb.ZAdd(ctx, idleForfeitKey, redis.Z{Score: float64(deadline.Unix()), Member: m}).Err(); err != nil {
		log.Printf("[IDLE] Failed to schedule idle check for %s: %v", m, err)
		return
	}
	gm.rdb.Set(ctx, "last_active:"+m, now.Unix(), time.Hour)
}

// clearIdle drops a finished game from the idle schedule.
func (gm *GameManager) clearIdle(token string) {
	if gm.rdb == nil {
		return
	}
	g, err := gm.GetGameByToken(token)
	if err != nil {
		return
	}
	ctx := context.Background()
	m := idleMember(token, g.Player.ID)
	gm.rdb.ZRem(ctx, idleForfeitKey, m)
	gm.rdb.Del(ctx, "last_active:"+m)
}

// StartIdleWorker starts a background worker that cancels games whose player
// stopped sending flipper input, using a Redis sorted set of deadlines.
func StartIdleWorker(ctx context.Context, rdb *redis.Client, cfg *config.Config) {
	if rdb == nil || cfg == nil {
		log.Println("[IDLE] Redis or config missing; idle worker not started")
		return
	}
	if cfg.IdleWorkerPollInterval <= 0 || cfg.IdleTimeoutSeconds <= 0 {
		log.Println("[IDLE] Idle timeout disabled; idle worker not started")
		return
	}

	log.Println("[IDLE] Idle worker started")
	go func() {
		ticker := time.NewTicker(time.Duration(cfg.IdleWorkerPollInterval) * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[IDLE] Idle worker stopping")
				return
			case <-ticker.C:
				processIdleForfeits(ctx, rdb, cfg, time.Now())
			}
		}
	}()
}

func processIdleForfeits(ctx context.Context, rdb *redis.Client, cfg *config.Config, now time.Time) {
	members, err := rdb.ZRangeByScore(ctx, idleForfeitKey, &redis.ZRangeBy{Min: "-inf", Max: fmt.Sprintf("%d", now.Unix())}).Result()
	if err != nil {
		log.Printf("[IDLE] Failed to fetch idle forfeits: %v", err)
		return
	}

	for _, m := range members {
		// Attempt to remove (race-safe)
		if removed, _ := rdb.ZRem(ctx, idleForfeitKey, m).Result(); removed == 0 {
			continue
		}
		last, _ := rdb.Get(ctx, "last_active:"+m).Result()
		lastTs, _ := strconv.ParseInt(last, 10, 64)
		if now.Unix()-lastTs < int64(cfg.IdleTimeoutSeconds) {
			continue
		}

		gameToken, playerID := parseMember(m)
		if gameToken == "" || Manager == nil {
			continue
		}
		g, err := Manager.GetGameByToken(gameToken)
		if err != nil {
			continue
		}
		if g.GetStatus() != StatusInProgress {
			log.Printf("[IDLE] skipping forfeit for game %s (status=%s)", gameToken, g.GetStatus())
			continue
		}

		log.Printf("[IDLE] Cancelling game %s for player %s due to inactivity", gameToken, playerID)
		if !g.Cancel(EndIdle) {
			continue
		}

		payload := map[string]interface{}{"type": "player_idle", "game_token": gameToken, "game_id": g.ID, "player": playerID, "message": "Game ended due to inactivity"}
		b, _ := json.Marshal(payload)
		if n, err := rdb.Publish(ctx, "idle_events", b).Result(); err != nil {
			log.Printf("[IDLE] publish idle event failed: game=%s err=%v", gameToken, err)
		} else {
			log.Printf("[IDLE] published idle event: game=%s subscribers=%d", gameToken, n)
		}
	}
}
