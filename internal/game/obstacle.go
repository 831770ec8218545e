package game

// ObstacleKind tags the closed set of obstacle archetypes on a table.
type ObstacleKind string

const (
	KindWall       ObstacleKind = "wall"
	KindFlipper    ObstacleKind = "flipper"
	KindBumper     ObstacleKind = "bumper"
	KindSpinner    ObstacleKind = "spinner"
	KindDropTarget ObstacleKind = "drop_target"
	KindTunnel     ObstacleKind = "tunnel"
)

// EventType names a side effect that renderers and audio layers react to.
type EventType string

const (
	EventNone        EventType = ""
	EventWallHit     EventType = "wall-hit"
	EventFlipperHit  EventType = "flipper-hit"
	EventBumperHit   EventType = "bumper-hit"
	EventSpinnerSpin EventType = "spinner-spin"
	EventTargetHit   EventType = "target-hit"
	EventTargetReset EventType = "target-reset"
	EventTunnelEnter EventType = "tunnel-enter"
	EventGridNudge   EventType = "grid-nudge"
	EventBallLost    EventType = "ball-lost"
)

// CollisionOutcome is the result of testing the ball against one obstacle.
// A zero value means no contact.
type CollisionOutcome struct {
	Hit        bool
	ScoreDelta int
	Event      EventType
	Normal     Vec2 // contact normal pointing toward the ball, zero for non-solid obstacles
}

// Obstacle is any static, kinematic or reactive collision participant. The
// ball is only borrowed for the duration of the call.
type Obstacle interface {
	Kind() ObstacleKind
	CheckCollision(b *Ball) CollisionOutcome
}

// Updater is implemented by obstacles with per-tick state (angles, cooldowns,
// animation decay). Update may report an event such as a target reset.
type Updater interface {
	Update() EventType
}

// CollisionEvent records a scored or audible contact for the tick.
type CollisionEvent struct {
	Type   EventType    `json:"type"`
	Kind   ObstacleKind `json:"kind,omitempty"`
	Index  int          `json:"index"`  // index within the obstacle's arena
	Points int          `json:"points"` // score delta, 0 when unscored
	Speed  float64      `json:"speed"`  // ball speed after response (for sound volume)
}

func noCollision() CollisionOutcome {
	return CollisionOutcome{}
}
