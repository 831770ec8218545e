package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/playmatatu/pinball/internal/game"
)

func newTestClient(id, gameID string) *Client {
	return &Client{id: id, gameID: gameID, send: make(chan []byte, 4)}
}

func recv(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case data := <-c.send:
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("bad json: %v", err)
		}
		return m
	default:
		t.Fatalf("client %s received nothing", c.id)
	}
	return nil
}

func TestHubBroadcastToRoom(t *testing.T) {
	h := NewHub()
	a := newTestClient("a", "game_1")
	b := newTestClient("b", "game_1")
	other := newTestClient("c", "game_2")
	h.add(a)
	h.add(b)
	h.add(other)

	h.BroadcastToGame("game_1", map[string]interface{}{"type": "snapshot"})

	if m := recv(t, a); m["type"] != "snapshot" {
		t.Errorf("a got %v", m)
	}
	if m := recv(t, b); m["type"] != "snapshot" {
		t.Errorf("b got %v", m)
	}
	select {
	case <-other.send:
		t.Error("client in another room received the broadcast")
	default:
	}
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub()
	c := &Client{id: "slow", gameID: "g", send: make(chan []byte, 1)}
	h.add(c)

	h.BroadcastToGame("g", map[string]string{"type": "one"})
	h.BroadcastToGame("g", map[string]string{"type": "two"})

	if m := recv(t, c); m["type"] != "one" {
		t.Errorf("got %v", m)
	}
	if len(c.send) != 0 {
		t.Error("second message should have been dropped")
	}
}

func TestHubRemove(t *testing.T) {
	h := NewHub()
	c := newTestClient("a", "g")
	h.add(c)

	if !h.remove(c) {
		t.Fatal("remove of registered client failed")
	}
	if h.RoomSize("g") != 0 {
		t.Error("room not emptied")
	}
	if _, ok := <-c.send; ok {
		t.Error("send channel should be closed")
	}
	if h.remove(c) {
		t.Error("second remove should report false")
	}
}

func TestDecodeFlipper(t *testing.T) {
	side, active, err := decodeFlipper(json.RawMessage(`{"side":"left","active":true}`))
	if err != nil || side != game.SideLeft || !active {
		t.Errorf("left press = %v %v %v", side, active, err)
	}

	if _, _, err := decodeFlipper(json.RawMessage(`{"side":"up","active":true}`)); !errors.Is(err, game.ErrInvalidSide) {
		t.Errorf("bad side err = %v", err)
	}
	if _, _, err := decodeFlipper(json.RawMessage(`not json`)); err == nil {
		t.Error("malformed payload accepted")
	}
}

func TestHandleEventRelaysGameOver(t *testing.T) {
	h := NewHub()
	c := newTestClient("a", "game_9")
	h.add(c)

	handleEvent(h, []byte(`{"type":"game_over","game_id":"game_9","score":1200,"status":"COMPLETED","reason":"balls_exhausted"}`))

	m := recv(t, c)
	if m["type"] != "game_over" || m["score"] != float64(1200) || m["reason"] != "balls_exhausted" {
		t.Errorf("relayed = %v", m)
	}

	handleEvent(h, []byte(`{"type":"mystery","game_id":"game_9"}`))
	if len(c.send) != 0 {
		t.Error("unknown events must not be relayed")
	}
}
