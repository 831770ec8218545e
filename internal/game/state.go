package game

// GameStatus represents the current state of the game
type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusCompleted  GameStatus = "COMPLETED"
	StatusCancelled  GameStatus = "CANCELLED"
)

// IsFinished reports whether the game has stopped ticking for good.
func (s GameStatus) IsFinished() bool {
	return s == StatusCompleted || s == StatusCancelled
}
