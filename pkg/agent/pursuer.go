package agent

import "github.com/opd-ai/survival-core/pkg/collision"

// PursuerState is the Pursuer finite state machine.
type PursuerState int

const (
	PursuerIdle PursuerState = iota
	PursuerChase
	PursuerAttack
	PursuerDead
)

func (s PursuerState) String() string {
	switch s {
	case PursuerIdle:
		return "Idle"
	case PursuerChase:
		return "Chase"
	case PursuerAttack:
		return "Attack"
	case PursuerDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// speedMultiplier scales a base speed by subtype: Fast pursuers close
// distance quicker, Tank pursuers are slower. The subtype changes speed
// only; HP and attack are whatever the caller passes to NewPursuer.
func (st PursuerSubtype) speedMultiplier() float64 {
	switch st {
	case PursuerFast:
		return 1.4
	case PursuerTank:
		return 0.7
	default:
		return 1.0
	}
}

// NewPursuer creates a Pursuer agent of the given subtype.
func NewPursuer(id uint64, pos Vec2, subtype PursuerSubtype, baseSpeed, attack, maxHP float64) *Agent {
	return &Agent{
		ID:             id,
		Kind:           KindPursuer,
		Pos:            pos,
		W:              10,
		H:              10,
		HP:             maxHP,
		MaxHP:          maxHP,
		Speed:          baseSpeed * subtype.speedMultiplier(),
		Attack:         attack,
		State:          int(PursuerIdle),
		PursuerSubtype: subtype,
	}
}

// UpdatePursuer evaluates the Pursuer transition table and behavior.
//
// Transitions:
//   - Idle -> Chase when Sensors.NearestEnemy is within DetectionRadius.
//   - Chase -> Attack when within AttackRadius+RangeBuffer of the target.
//   - Attack -> Chase if the target leaves that range.
//   - Any -> Dead when hp == 0; Dead lingers PursuerDeadLinger seconds
//     (the scheduler removes the agent once DeadTimer exceeds it).
func UpdatePursuer(a *Agent, dt float64, s Sensors, p Params, coll *collision.Service) UpdateResult {
	if a.HP <= 0 {
		wasDead := PursuerState(a.State) == PursuerDead
		a.changeState(int(PursuerDead))
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

	hasTarget := s.NearestEnemy != nil && s.NearestEnemy.IsAlive
	var dist float64
	if hasTarget {
		dist = Distance(a.Pos, s.NearestEnemy.Pos)
	}

	switch PursuerState(a.State) {
	case PursuerIdle:
		if hasTarget && dist <= p.DetectionRadius {
			a.HasTarget = true
			a.TargetID = s.NearestEnemy.ID
			a.changeState(int(PursuerChase))
		}
	case PursuerChase:
		if !hasTarget || s.NearestEnemy.ID != a.TargetID {
			a.HasTarget = false
			a.changeState(int(PursuerIdle))
		} else if dist <= p.AttackRadius+p.RangeBuffer {
			a.changeState(int(PursuerAttack))
		}
	case PursuerAttack:
		if !hasTarget || s.NearestEnemy.ID != a.TargetID {
			a.HasTarget = false
			a.changeState(int(PursuerIdle))
		} else if dist > p.AttackRadius+p.RangeBuffer {
			a.changeState(int(PursuerChase))
		}
	}

	result := UpdateResult{DesiredPos: a.Pos}

	switch PursuerState(a.State) {
	case PursuerChase:
		result.DesiredPos = chaseMotion(a, s.NearestEnemy.Pos, dt, p, coll)
	case PursuerAttack:
		if a.AttackCooldownTimer <= 0 {
			a.AttackCooldownTimer = p.AttackCooldown
			result.Damage = append(result.Damage, DamageEvent{TargetID: a.TargetID, Amount: a.Attack})
		}
	}

	return result
}

// chaseMotion computes the pursuer's desired step toward target, falling
// back to the fixed 8-way detour order when the direct step collides and
// standing still when no detour both clears buildings and has a valid
// path.
func chaseMotion(a *Agent, target Vec2, dt float64, p Params, coll *collision.Service) Vec2 {
	toTarget := target.Sub(a.Pos)
	dist := toTarget.Length()
	if dist < 1e-9 {
		return a.Pos
	}
	unit := toTarget.Normalized()
	desired := a.Pos.Add(unit.Scale(a.Speed * dt))

	if !coll.RectCollidesBuildings(desired.X, desired.Y, a.W, a.H) {
		return desired
	}

	step := dist
	if step > p.ChaseDetourStep {
		step = p.ChaseDetourStep
	}
	for _, dir := range collision.Directions {
		cand := a.Pos.Add(Vec2{X: dir[0], Y: dir[1]}.Scale(step))
		if coll.RectCollidesBuildings(cand.X, cand.Y, a.W, a.H) {
			continue
		}
		if coll.PathValid(a.Pos.X, a.Pos.Y, cand.X, cand.Y, a.W, a.H) {
			return cand
		}
	}

	return a.Pos
}
