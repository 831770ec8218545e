package game

// Physics and table constants for the pinball table, tuned for a nominal
// 60 Hz tick. Distances are in table units, velocities in units per tick.

const (
	TableWidth  = 600.0
	TableHeight = 1000.0

	BallRadius     = 10.0
	Gravity        = 0.25
	Friction       = 0.995
	MinVelocity    = 0.15
	SoftStopDamp   = 0.9
	MaxBallSpeed   = 22.0
	BallLostMargin = 50.0

	BounceDamping   = 0.7 // post-reflection damping for walls and passive flippers
	BoundaryDamping = 0.6 // table edges
	SafetyMargin    = 0.5 // extra separation after a push-out

	CornerThresholdFactor = 2.0 // × ball radius, distance to a segment endpoint
	CornerSafetyMargin    = 1.5
	CornerBounceDamping   = 0.9
	CornerKick            = 0.4

	SweepSpeedFraction = 0.5 // swept tests run when speed > fraction × ball radius

	FlipperApproachRate      = 0.35
	FlipperStrength          = 6.0
	FlipperSpinTransfer      = 0.9
	FlipperRotatingThreshold = 0.01
	FlipperSweepSteps        = 10

	BumperBounceForce    = 12.0
	BumperMargin         = 1.0
	BumperPoints         = 100
	BumperAnimationDecay = 0.9

	SpinnerDecay      = 0.98
	SpinnerSpinFactor = 0.02
	SpinnerImpulse    = 1.5
	SpinnerPoints     = 10
	SpinnerMaxAngular = 1.2

	DropTargetResetTicks = 300
	DropTargetBoost      = 4.0
	DropTargetPoints     = 500

	TunnelMaxCooldown    = 60
	TunnelSpeedBoost     = 1.1
	TunnelPoints         = 250
	TunnelAnimationDecay = 0.92

	GridCellSize        = 10.0
	GridDangerThreshold = 0.3 // cells above this get an escape direction
	GridNudgeThreshold  = 0.7 // open cells above this get nudged; a flat wall scores at most 3/8
	GridEscapeRadius    = 3
	GridNudgeStrength   = 0.6

	AnimationCutoff = 0.01
)
