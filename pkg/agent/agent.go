// Package agent defines the mobile agent model and the per-kind finite
// state machines (Player, Pursuer, Follower) that drive it. Transition
// predicates are pure functions of the Sensors snapshot the scheduler
// hands them; Update functions emit a desired motion and any damage
// events but never mutate world state directly other than the agent's own
// fields, keeping component data separate from the logic that drives it.
package agent

import "math"

// Kind tags which finite state machine an Agent runs. The subtype/role
// that would otherwise need a second dynamic-typed discriminator is
// folded directly into the tag's companion fields (PursuerSubtype,
// FollowerRole) rather than using runtime type assertions.
type Kind int

const (
	KindPlayer Kind = iota
	KindPursuer
	KindFollower
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "Player"
	case KindPursuer:
		return "Pursuer"
	case KindFollower:
		return "Follower"
	default:
		return "Unknown"
	}
}

// PursuerSubtype distinguishes the randomly-chosen variants spawned in a
// day-rollover wave.
type PursuerSubtype int

const (
	PursuerNormal PursuerSubtype = iota
	PursuerFast
	PursuerTank
)

// FollowerRole distinguishes cosmetic/behavioral follower variants.
// Companion is the only role so far; the tag exists so SpawnFollower can
// carry one without a second discriminator.
type FollowerRole int

const (
	FollowerCompanion FollowerRole = iota
)

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X, Y float64
}

// Add returns v+o.
func (v Vec2) Add(o Vec2) Vec2 { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }

// Sub returns v-o.
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 { return Vec2{X: v.X * s, Y: v.Y * s} }

// Dot returns the dot product of v and o.
func (v Vec2) Dot(o Vec2) float64 { return v.X*o.X + v.Y*o.Y }

// Length returns the Euclidean length of v.
func (v Vec2) Length() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y) }

// Normalized returns v scaled to unit length, or the zero vector if v is
// (near) zero.
func (v Vec2) Normalized() Vec2 {
	l := v.Length()
	if l < 1e-9 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Perpendicular returns v rotated 90 degrees counter-clockwise.
func (v Vec2) Perpendicular() Vec2 { return Vec2{X: -v.Y, Y: v.X} }

// Distance returns the distance between two points.
func Distance(a, b Vec2) float64 { return a.Sub(b).Length() }

// Agent is the common representation for the player, every pursuer, and
// every follower. Kind-specific behavior is driven entirely by Kind plus
// the State field, which is interpreted as a PlayerState, PursuerState, or
// FollowerState depending on Kind.
type Agent struct {
	ID   uint64
	Kind Kind

	Pos    Vec2
	W, H   float64
	HP     float64
	MaxHP  float64
	Speed  float64
	Attack float64

	State     int
	StateTime float64

	HasTarget bool
	TargetID  uint64

	HasFollowAnchor bool
	FollowAnchor    Vec2

	AttackCooldownTimer float64
	DeadTimer           float64

	PursuerSubtype PursuerSubtype
	FollowerRole   FollowerRole

	AvoidTimer  float64
	AvoidOffset Vec2
}

// IsDead reports whether the agent is in its kind's terminal Dead state.
func (a *Agent) IsDead() bool {
	switch a.Kind {
	case KindPlayer:
		return PlayerState(a.State) == PlayerDead
	case KindPursuer:
		return PursuerState(a.State) == PursuerDead
	case KindFollower:
		return FollowerState(a.State) == FollowerDead
	default:
		return false
	}
}

// changeState sets State and resets StateTime if the state actually
// changed.
func (a *Agent) changeState(newState int) {
	if a.State != newState {
		a.State = newState
		a.StateTime = 0
	}
}

// ApplyDamage subtracts amount from hp, clamped to [0, MaxHP].
func (a *Agent) ApplyDamage(amount float64) {
	a.HP -= amount
	if a.HP < 0 {
		a.HP = 0
	}
	if a.HP > a.MaxHP {
		a.HP = a.MaxHP
	}
}

// MarkDeadIfDepleted transitions the agent into its kind's terminal Dead
// state if hp has reached zero and it isn't already Dead, and reports
// whether it did so. The scheduler calls this once per tick after
// committing the damage buffer so it knows to pull the agent out of the
// dynamic spatial index immediately.
func (a *Agent) MarkDeadIfDepleted() bool {
	if a.HP > 0 || a.IsDead() {
		return false
	}
	switch a.Kind {
	case KindPlayer:
		a.changeState(int(PlayerDead))
	case KindPursuer:
		a.changeState(int(PursuerDead))
	case KindFollower:
		a.changeState(int(FollowerDead))
	}
	return true
}

// Input is one tick's player input. Magnitudes above 1 per axis are
// clipped, never normalized, to preserve analog dead-zone behavior.
type Input struct {
	MoveX, MoveY float64
	Fire         bool
}

// Clipped returns the input vector with each axis clamped to [-1,1].
func (in Input) Clipped() Vec2 {
	return Vec2{X: clamp(in.MoveX, -1, 1), Y: clamp(in.MoveY, -1, 1)}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// TargetInfo is a read-only snapshot of a candidate target, built by the
// scheduler from a dynamic-quadtree query. Agent update functions never
// see the full world, only these snapshots.
type TargetInfo struct {
	ID      uint64
	Pos     Vec2
	W, H    float64
	IsAlive bool
}

// Sensors is everything a single agent's state machine is allowed to read
// this tick. The scheduler builds one per agent per tick from the dynamic
// quadtree and the agent population; transition predicates and Update
// functions are pure with respect to it.
type Sensors struct {
	// NearestEnemy is the closest live opposing agent within lookup range,
	// or nil if none was found.
	NearestEnemy *TargetInfo

	// Player-specific, read by Pursuer/Follower.
	PlayerPos    Vec2
	PlayerMoving bool
	PlayerMotion Vec2 // unit direction of the player's last nonzero motion
}

// Params bundles the tunables the state machines consume. The scheduler
// owns the canonical Config; Params is the subset passed down so this
// package never imports the scheduler.
type Params struct {
	Epsilon float64

	ActivationRadius float64
	DetectionRadius  float64
	AttackRadius     float64
	RangeBuffer      float64
	AttackCooldown   float64

	FollowDistance float64

	CongestionRadius float64
	AvoidDuration    float64

	ChaseDetourStep float64

	PursuerDeadLinger float64
}

// DamageEvent is a deferred damage application, staged by the scheduler
// into a double buffer so same-tick mutual damage (A hits B, B hits A)
// is applied consistently.
type DamageEvent struct {
	TargetID uint64
	Amount   float64
}

// UpdateResult is what a kind-specific Update function returns: the
// agent's new position for this tick (already resolved against buildings
// via the collision.Service the Update function was given) and any
// damage this tick's attack produced.
type UpdateResult struct {
	DesiredPos Vec2
	Damage     []DamageEvent
}
