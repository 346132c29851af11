package agent

import (
	"math"

	"github.com/opd-ai/survival-core/pkg/collision"
)

// FollowerState is the Follower finite state machine.
type FollowerState int

const (
	FollowerInit FollowerState = iota
	FollowerIdle
	FollowerFollow
	FollowerAttack
	FollowerAvoid
	FollowerDead
)

func (s FollowerState) String() string {
	switch s {
	case FollowerInit:
		return "Init"
	case FollowerIdle:
		return "Idle"
	case FollowerFollow:
		return "Follow"
	case FollowerAttack:
		return "Attack"
	case FollowerAvoid:
		return "Avoid"
	case FollowerDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// snapAnchorDistance is the threshold below which a follower is
// considered to have reached its anchor and aims straight at it in one
// move (still resolved through SlideTranslation) instead of advancing by
// Speed*dt.
const snapAnchorDistance = 5.0

// NewFollower creates a Follower agent, spawned via World.SpawnFollower.
// It starts in FollowerInit so its first Update establishes a follow
// anchor before taking its Idle/Follow branch.
func NewFollower(id uint64, pos Vec2, role FollowerRole, speed, attack, maxHP float64) *Agent {
	return &Agent{
		ID:           id,
		Kind:         KindFollower,
		Pos:          pos,
		W:            8,
		H:            8,
		HP:           maxHP,
		MaxHP:        maxHP,
		Speed:        speed,
		Attack:       attack,
		State:        int(FollowerInit),
		FollowerRole: role,
	}
}

// UpdateFollower evaluates the Follower transition table and behavior.
//
// Transitions:
//   - Init -> Follow when the player is already inside ActivationRadius,
//     on the follower's very first tick. Otherwise Init -> Idle, then the
//     Idle transition below is evaluated in the same call.
//   - Idle -> Follow when the player is moving or has drifted beyond
//     ActivationRadius from the follower.
//   - Follow -> Idle when the player is stationary and the anchor has
//     been reached.
//   - Follow -> Attack when a pursuer is within DetectionRadius and the
//     player is stationary.
//   - Attack -> Follow once the pursuer is lost or the player moves again.
//   - Idle/Follow -> Avoid when the player's motion bears down on the
//     follower (within 90 degrees) and is closer than CongestionRadius.
//   - Avoid -> Follow once AvoidTimer elapses.
//   - Any -> Dead when hp == 0.
func UpdateFollower(a *Agent, dt float64, s Sensors, p Params, coll *collision.Service) UpdateResult {
	if a.HP <= 0 {
		wasDead := FollowerState(a.State) == FollowerDead
		a.changeState(int(FollowerDead))
		a.StateTime += dt
		if wasDead {
			a.DeadTimer += dt
		}
		return UpdateResult{DesiredPos: a.Pos}
	}

	a.StateTime += dt
	if a.AttackCooldownTimer > 0 {
		a.AttackCooldownTimer -= dt
	}
	if a.AvoidTimer > 0 {
		a.AvoidTimer -= dt
		if a.AvoidTimer < 0 {
			a.AvoidTimer = 0
		}
	}

	anchor := followAnchor(s.PlayerPos, s.PlayerMotion, p.FollowDistance)
	a.HasFollowAnchor = true
	a.FollowAnchor = anchor

	distToAnchor := Distance(a.Pos, anchor)
	distToPlayer := Distance(a.Pos, s.PlayerPos)

	hasPursuerTarget := s.NearestEnemy != nil && s.NearestEnemy.IsAlive
	var pursuerDist float64
	if hasPursuerTarget {
		pursuerDist = Distance(a.Pos, s.NearestEnemy.Pos)
	}

	// Congestion: the player's motion vector bears down on this follower,
	// pointing toward it within 90 degrees, and the player is closer than
	// CongestionRadius.
	toFollower := a.Pos.Sub(s.PlayerPos)
	bearingDown := s.PlayerMoving && s.PlayerMotion.Normalized().Dot(toFollower.Normalized()) >= 0
	congested := bearingDown && distToPlayer < p.CongestionRadius

	switch FollowerState(a.State) {
	case FollowerInit:
		if distToPlayer <= p.ActivationRadius {
			a.changeState(int(FollowerFollow))
			break
		}
		a.changeState(int(FollowerIdle))
		fallthrough
	case FollowerIdle:
		switch {
		case congested:
			a.enterAvoid(p)
		case s.PlayerMoving || distToPlayer > p.ActivationRadius:
			a.changeState(int(FollowerFollow))
		}
	case FollowerFollow:
		switch {
		case congested:
			a.enterAvoid(p)
		case hasPursuerTarget && pursuerDist <= p.DetectionRadius && !s.PlayerMoving:
			a.HasTarget = true
			a.TargetID = s.NearestEnemy.ID
			a.changeState(int(FollowerAttack))
		case !s.PlayerMoving && distToAnchor <= p.Epsilon:
			a.changeState(int(FollowerIdle))
		}
	case FollowerAttack:
		if !hasPursuerTarget || s.NearestEnemy.ID != a.TargetID || pursuerDist > p.DetectionRadius || s.PlayerMoving {
			a.HasTarget = false
			a.changeState(int(FollowerFollow))
		}
	case FollowerAvoid:
		if a.AvoidTimer <= 0 {
			a.changeState(int(FollowerFollow))
		}
	}

	result := UpdateResult{DesiredPos: a.Pos}

	switch FollowerState(a.State) {
	case FollowerIdle, FollowerFollow:
		result.DesiredPos = followMotion(a, anchor, dt, coll)
	case FollowerAttack:
		if a.AttackCooldownTimer <= 0 {
			a.AttackCooldownTimer = p.AttackCooldown
			result.Damage = append(result.Damage, DamageEvent{TargetID: a.TargetID, Amount: a.Attack})
		}
	case FollowerAvoid:
		result.DesiredPos = avoidMotion(a, anchor, dt, p, coll)
	}

	return result
}

// enterAvoid arms the Avoid state: a perpendicular offset off the
// follow anchor, held for AvoidDuration and eased in then back out so
// the sidestep doesn't snap.
func (a *Agent) enterAvoid(p Params) {
	a.changeState(int(FollowerAvoid))
	a.AvoidTimer = p.AvoidDuration
	side := a.FollowAnchor.Sub(a.Pos).Normalized().Perpendicular()
	if side.Length() < 1e-9 {
		side = Vec2{X: 1, Y: 0}
	}
	a.AvoidOffset = side.Scale(p.CongestionRadius)
}

// followAnchor is the point a follower steers toward: FollowDistance
// behind the player along its current motion direction.
func followAnchor(playerPos, playerMotion Vec2, followDistance float64) Vec2 {
	dir := playerMotion.Normalized()
	if dir.Length() < 1e-9 {
		dir = Vec2{X: 0, Y: 1}
	}
	return playerPos.Sub(dir.Scale(followDistance))
}

// followMotion steps the follower toward its anchor, sliding along
// buildings the same way the player does. Anchors within
// snapAnchorDistance are stepped to directly to avoid jitter once close.
func followMotion(a *Agent, anchor Vec2, dt float64, coll *collision.Service) Vec2 {
	toAnchor := anchor.Sub(a.Pos)
	dist := toAnchor.Length()
	if dist < 1e-9 {
		return a.Pos
	}

	step := a.Speed * dt
	if dist <= snapAnchorDistance || step >= dist {
		nx, ny := coll.SlideTranslation(a.Pos.X, a.Pos.Y, anchor.X, anchor.Y, a.W, a.H)
		return Vec2{X: nx, Y: ny}
	}

	unit := toAnchor.Scale(1 / dist)
	desired := a.Pos.Add(unit.Scale(step))
	nx, ny := coll.SlideTranslation(a.Pos.X, a.Pos.Y, desired.X, desired.Y, a.W, a.H)
	return Vec2{X: nx, Y: ny}
}

// avoidMotion eases the follower out to anchor+offset and back, tracing
// a half-sine envelope over AvoidDuration so the sidestep has no visible
// snap at entry or exit.
func avoidMotion(a *Agent, anchor Vec2, dt float64, p Params, coll *collision.Service) Vec2 {
	progress := 1.0
	if p.AvoidDuration > 0 {
		progress = 1 - a.AvoidTimer/p.AvoidDuration
	}
	ease := math.Sin(math.Pi * clamp(progress, 0, 1))
	target := anchor.Add(a.AvoidOffset.Scale(ease))

	step := a.Speed * dt
	toTarget := target.Sub(a.Pos)
	dist := toTarget.Length()
	if dist < 1e-9 {
		return a.Pos
	}
	if step >= dist {
		nx, ny := coll.SlideTranslation(a.Pos.X, a.Pos.Y, target.X, target.Y, a.W, a.H)
		return Vec2{X: nx, Y: ny}
	}
	unit := toTarget.Scale(1 / dist)
	desired := a.Pos.Add(unit.Scale(step))
	nx, ny := coll.SlideTranslation(a.Pos.X, a.Pos.Y, desired.X, desired.Y, a.W, a.H)
	return Vec2{X: nx, Y: ny}
}
