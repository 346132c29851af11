package simcore

import "github.com/opd-ai/survival-core/pkg/agent"

// Config enumerates every simulation tunable. It is a plain struct with
// a DefaultConfig constructor; World is always constructor-supplied and
// never reads its own configuration file.
type Config struct {
	// TickDtCap upper-clamps dt to avoid huge jumps after a stall.
	TickDtCap float64

	StaticQuadtreeMaxDepth    int
	StaticQuadtreeMaxObjects  int
	DynamicQuadtreeMaxDepth   int
	DynamicQuadtreeMaxObjects int

	// PlayerSpawn is where World.New places the player agent.
	PlayerSpawn agent.Vec2

	PlayerSpeed   float64
	FollowerSpeed float64
	PursuerSpeed  float64

	PlayerAttack   float64
	FollowerAttack float64
	PursuerAttack  float64

	PlayerMaxHP   float64
	FollowerMaxHP float64
	PursuerMaxHP  float64

	FollowDistance float64

	ActivationRadius float64
	DetectionRadius  float64
	AttackRadius     float64
	RangeBuffer      float64

	AttackCooldown float64

	CongestionRadius float64
	AvoidDuration    float64

	SeparationRadius float64
	SeparationForce  float64
	SeparationPeriod int

	DayDuration      float64
	DayPhaseFraction float64
	ZombiesPerDay    int

	MaxPursuers  int
	MaxFollowers int

	// RNGSeed is informational. World.New's explicit seed parameter is
	// authoritative; this field exists only so callers building Config
	// from a save/settings file have somewhere to round-trip the value.
	RNGSeed int64

	Epsilon float64

	SpawnSafeMargin float64
	WallStep        float64
	ChaseDetourStep float64

	PursuerDeadLinger     float64
	PursuerSpawnMinRadius float64
	PursuerSpawnMaxRadius float64
}

// DefaultConfig returns a playable baseline configuration.
func DefaultConfig() Config {
	return Config{
		TickDtCap: 1.0 / 30,

		StaticQuadtreeMaxDepth:    4,
		StaticQuadtreeMaxObjects:  5,
		DynamicQuadtreeMaxDepth:   6,
		DynamicQuadtreeMaxObjects: 8,

		PlayerSpawn: agent.Vec2{X: 0, Y: 0},

		PlayerSpeed:   60,
		FollowerSpeed: 70,
		PursuerSpeed:  50,

		PlayerAttack:   10,
		FollowerAttack: 6,
		PursuerAttack:  8,

		PlayerMaxHP:   100,
		FollowerMaxHP: 40,
		PursuerMaxHP:  30,

		FollowDistance: 40,

		ActivationRadius: 250,
		DetectionRadius:  300,
		AttackRadius:     12,
		RangeBuffer:      2,

		AttackCooldown: 1.0,

		CongestionRadius: 20,
		AvoidDuration:    0.6,

		SeparationRadius: 24,
		SeparationForce:  40,
		SeparationPeriod: 60,

		DayDuration:      600,
		DayPhaseFraction: 0.5,
		ZombiesPerDay:    3,

		MaxPursuers:  9999,
		MaxFollowers: 99,

		RNGSeed: 1,

		Epsilon: 0.05,

		SpawnSafeMargin: 16,
		WallStep:        100,
		ChaseDetourStep: 100,

		PursuerDeadLinger:     2.0,
		PursuerSpawnMinRadius: 300,
		PursuerSpawnMaxRadius: 600,
	}
}

// agentParams projects the subset of Config the pkg/agent state machines
// consume, so that package never needs to import simcore.
func agentParams(cfg Config) agent.Params {
	return agent.Params{
		Epsilon:           cfg.Epsilon,
		ActivationRadius:  cfg.ActivationRadius,
		DetectionRadius:   cfg.DetectionRadius,
		AttackRadius:      cfg.AttackRadius,
		RangeBuffer:       cfg.RangeBuffer,
		AttackCooldown:    cfg.AttackCooldown,
		FollowDistance:    cfg.FollowDistance,
		CongestionRadius:  cfg.CongestionRadius,
		AvoidDuration:     cfg.AvoidDuration,
		ChaseDetourStep:   cfg.ChaseDetourStep,
		PursuerDeadLinger: cfg.PursuerDeadLinger,
	}
}
