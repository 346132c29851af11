package agent

import "github.com/opd-ai/survival-core/pkg/collision"

// PlayerState is the Player finite state machine.
type PlayerState int

const (
	PlayerIdle PlayerState = iota
	PlayerMoving
	PlayerAttacking
	PlayerDead
)

func (s PlayerState) String() string {
	switch s {
	case PlayerIdle:
		return "Idle"
	case PlayerMoving:
		return "Moving"
	case PlayerAttacking:
		return "Attacking"
	case PlayerDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// NewPlayer creates a Player agent with sensible defaults.
func NewPlayer(id uint64, pos Vec2, speed, attack, maxHP float64) *Agent {
	return &Agent{
		ID:     id,
		Kind:   KindPlayer,
		Pos:    pos,
		W:      8,
		H:      8,
		HP:     maxHP,
		MaxHP:  maxHP,
		Speed:  speed,
		Attack: attack,
		State:  int(PlayerIdle),
	}
}

// UpdatePlayer evaluates the Player transition table (at most one
// transition fires) and then runs that state's behavior, returning the
// collision-resolved new position and any damage produced.
//
// Transitions:
//   - Idle -> Moving when the clipped input magnitude exceeds Epsilon.
//   - Moving -> Idle when it drops back to/below Epsilon.
//   - Attacking -> Moving/Idle when the target leaves attack range,
//     depending on whether input is still being given.
//   - Any -> Dead when hp == 0.
//
// Movement: P_desired = P + input_unit * speed * dt, then SlideTranslation.
// Attack: driven by proximity to Sensors.NearestEnemy plus a cooldown
// timer, independent of the Idle/Moving split.
func UpdatePlayer(a *Agent, dt float64, in Input, s Sensors, p Params, coll *collision.Service) UpdateResult {
	if a.HP <= 0 {
		a.changeState(int(PlayerDead))
		a.StateTime += dt
		return UpdateResult{DesiredPos: a.Pos}
	}

	a.StateTime += dt
	if a.AttackCooldownTimer > 0 {
		a.AttackCooldownTimer -= dt
	}

	clipped := in.Clipped()
	magnitude := clipped.Length()

	inAttackRange := s.NearestEnemy != nil && s.NearestEnemy.IsAlive &&
		Distance(a.Pos, s.NearestEnemy.Pos) <= p.AttackRadius+p.RangeBuffer

	switch PlayerState(a.State) {
	case PlayerIdle:
		if magnitude > p.Epsilon {
			a.changeState(int(PlayerMoving))
		}
	case PlayerMoving:
		if magnitude <= p.Epsilon {
			a.changeState(int(PlayerIdle))
		}
	case PlayerAttacking:
		if !inAttackRange {
			if magnitude > p.Epsilon {
				a.changeState(int(PlayerMoving))
			} else {
				a.changeState(int(PlayerIdle))
			}
		}
	}

	result := UpdateResult{DesiredPos: a.Pos}

	if inAttackRange {
		a.changeState(int(PlayerAttacking))
		if a.AttackCooldownTimer <= 0 {
			a.AttackCooldownTimer = p.AttackCooldown
			result.Damage = append(result.Damage, DamageEvent{TargetID: s.NearestEnemy.ID, Amount: a.Attack})
		}
		return result
	}

	if PlayerState(a.State) == PlayerMoving && magnitude > p.Epsilon {
		unit := clipped.Normalized()
		desired := a.Pos.Add(unit.Scale(a.Speed * dt))
		nx, ny := coll.SlideTranslation(a.Pos.X, a.Pos.Y, desired.X, desired.Y, a.W, a.H)
		result.DesiredPos = Vec2{X: nx, Y: ny}
	}

	return result
}
