// Package simcore holds the agent manager and scheduler, the world
// clock, and the World facade: the single boundary type external
// (render/input) code talks to, owning the map, both quadtrees, the
// agent population, the clock, and the world's PRNG.
package simcore

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/survival-core/internal/simlog"
	"github.com/opd-ai/survival-core/pkg/agent"
	"github.com/opd-ai/survival-core/pkg/collision"
	"github.com/opd-ai/survival-core/pkg/spatial"
	"github.com/opd-ai/survival-core/pkg/spawn"
	"github.com/opd-ai/survival-core/pkg/worldmap"
)

// World owns the map, the static and dynamic quadtrees, the agent
// population, the clock, and the world PRNG. It is the only type
// external code touches; every other package in this module is an
// implementation detail reached only through World's methods.
//
// Ownership discipline: only this type's own methods ever mutate agent
// positions, quadtree contents, or the clock. Every other component
// takes read-only views (Sensors, Candidate slices).
type World struct {
	logger *logrus.Entry
	warn   *simlog.RateLimited

	cfg    Config
	params agent.Params

	m       *worldmap.Map
	coll    *collision.Service
	spawner *spawn.Service

	static  *spatial.Quadtree
	dynamic *spatial.Quadtree

	clock *WorldClock
	rng   *rand.Rand

	agents map[uint64]*agent.Agent
	// order holds every agent id still in the population (Dead agents
	// included until removeExpiredDead drops them) in strictly ascending
	// order. IDs
	// are allocated monotonically and only ever removed (never
	// re-sorted), so appending on creation preserves the ordering the
	// scheduler relies on for deterministic iteration.
	order  []uint64
	nextID uint64

	player *agent.Agent

	playerLastMotion agent.Vec2
	tickCount        uint64
	pendingWaves     []int
}

// New creates a World over a compiled map. seed is the world's sole PRNG
// source; cfg.RNGSeed is not read here, it exists only for config
// round-tripping.
func New(m *worldmap.Map, seed int64, cfg Config) (*World, error) {
	if m == nil {
		return nil, &worldmap.InvalidMapError{Reason: "map is nil"}
	}

	logger := simlog.NewFromEnv()
	sysLog := simlog.SystemLogger(logger, "simcore")

	coll := collision.New(m, cfg.WallStep)
	spawner := spawn.New(m, coll, cfg.SpawnSafeMargin)

	bounds := spatial.Bounds{MinX: 0, MinY: 0, MaxX: float64(m.Width), MaxY: float64(m.Height)}
	static := spatial.New(bounds, cfg.StaticQuadtreeMaxDepth, cfg.StaticQuadtreeMaxObjects)
	for i, b := range m.Buildings {
		static.Insert(spatial.Entry{
			ID: uint64(i) + 1,
			Bounds: spatial.Bounds{
				MinX: b.Bounds.Left, MinY: b.Bounds.Top,
				MaxX: b.Bounds.Right, MaxY: b.Bounds.Bottom,
			},
		})
	}

	dynamic := spatial.New(bounds, cfg.DynamicQuadtreeMaxDepth, cfg.DynamicQuadtreeMaxObjects)

	w := &World{
		logger:  sysLog,
		warn:    simlog.NewRateLimited(sysLog),
		cfg:     cfg,
		params:  agentParams(cfg),
		m:       m,
		coll:    coll,
		spawner: spawner,
		static:  static,
		dynamic: dynamic,
		clock:   NewWorldClock(cfg),
		rng:     rand.New(rand.NewSource(seed)),
		agents:  make(map[uint64]*agent.Agent),
	}

	player := agent.NewPlayer(w.allocID(), cfg.PlayerSpawn, cfg.PlayerSpeed, cfg.PlayerAttack, cfg.PlayerMaxHP)
	w.addAgent(player)
	w.player = player
	w.playerLastMotion = agent.Vec2{X: 0, Y: 1}

	return w, nil
}

func (w *World) allocID() uint64 {
	w.nextID++
	return w.nextID
}

func (w *World) addAgent(a *agent.Agent) {
	w.agents[a.ID] = a
	w.order = append(w.order, a.ID)
	w.dynamic.Insert(w.agentEntry(a))
}

func (w *World) agentEntry(a *agent.Agent) spatial.Entry {
	return spatial.Entry{
		ID: a.ID,
		Bounds: spatial.Bounds{
			MinX: a.Pos.X - a.W/2, MinY: a.Pos.Y - a.H/2,
			MaxX: a.Pos.X + a.W/2, MaxY: a.Pos.Y + a.H/2,
		},
	}
}

// Tick advances the simulation by dt, in strict step order:
//  1. advance the clock, enqueue a pursuer wave on rollover.
//  2. resolve one queued spawn wave.
//  3. run every live agent's state machine and motion, staging damage.
//  4. commit the damage buffer and mark hp<=0 agents Dead.
//  5. incrementally update the dynamic quadtree for agents that moved.
//  6. every SeparationPeriod ticks, run emergency separation.
//  7. remove agents whose Dead timer has expired.
func (w *World) Tick(dt float64, input agent.Input) {
	if w.cfg.TickDtCap > 0 && dt > w.cfg.TickDtCap {
		dt = w.cfg.TickDtCap
	}
	w.tickCount++

	if w.clock.Advance(dt) {
		w.pendingWaves = append(w.pendingWaves, w.cfg.ZombiesPerDay)
	}

	created := w.resolveSpawnWave()

	playerPos0 := w.player.Pos
	playerMoving0 := agent.PlayerState(w.player.State) == agent.PlayerMoving
	playerMotion0 := w.playerLastMotion

	// Positions as they stood at tick start: state-machine queries read
	// these, never the in-place positions committed as the loop walks
	// lower ids, so every agent sees the same world regardless of its
	// position in the update order.
	pos0 := make(map[uint64]agent.Vec2, len(w.order))
	for _, id := range w.order {
		if a := w.agents[id]; a != nil {
			pos0[id] = a.Pos
		}
	}

	moved := make(map[uint64]bool)
	damage := make(map[uint64]float64)

	for _, id := range w.order {
		a := w.agents[id]
		if a == nil {
			continue
		}
		if a.IsDead() {
			a.DeadTimer += dt
			continue
		}

		sensors := agent.Sensors{
			PlayerPos:    playerPos0,
			PlayerMoving: playerMoving0,
			PlayerMotion: playerMotion0,
		}
		sensors.NearestEnemy = w.nearestOpposing(a, pos0)

		var in agent.Input
		if a.Kind == agent.KindPlayer {
			in = input
		}

		before := a.Pos
		var result agent.UpdateResult
		switch a.Kind {
		case agent.KindPlayer:
			result = agent.UpdatePlayer(a, dt, in, sensors, w.params, w.coll)
		case agent.KindPursuer:
			result = agent.UpdatePursuer(a, dt, sensors, w.params, w.coll)
		case agent.KindFollower:
			result = agent.UpdateFollower(a, dt, sensors, w.params, w.coll)
		}

		a.Pos = result.DesiredPos
		if a.Pos != before {
			moved[id] = true
		}
		for _, dmg := range result.Damage {
			damage[dmg.TargetID] += dmg.Amount
		}
	}

	if delta := w.player.Pos.Sub(playerPos0); delta.Length() > 1e-9 {
		w.playerLastMotion = delta.Normalized()
	}

	newlyDead := w.commitDamage(damage)

	w.updateDynamicIndex(created, moved, newlyDead)

	if w.cfg.SeparationPeriod > 0 && w.tickCount%uint64(w.cfg.SeparationPeriod) == 0 {
		w.runSeparation()
	}

	w.removeExpiredDead()

	w.checkInvariants()
}

// commitDamage applies the staged damage buffer and returns the set of
// agent ids that transitioned to Dead this tick, which are pulled out of
// the dynamic index immediately.
func (w *World) commitDamage(damage map[uint64]float64) map[uint64]bool {
	newlyDead := make(map[uint64]bool)
	for id, amount := range damage {
		a, ok := w.agents[id]
		if !ok {
			continue
		}
		a.ApplyDamage(amount)
		if a.MarkDeadIfDepleted() {
			newlyDead[id] = true
			w.dynamic.Remove(id)
		}
	}
	return newlyDead
}

// updateDynamicIndex re-indexes agents whose position changed this tick,
// choosing among three regimes by the ratio of changed to alive agents:
// clear-and-rebuild above 0.3, diff between 0.1 and 0.3, in-place
// reinsert of moved entries at or below 0.1. The diff and in-place
// regimes perform the identical patch (remove+insert each moved entry);
// they are kept as separate branches because they are distinct cost
// bands, and a future cost-profiling hook may want to distinguish them
// without touching the rebuild branch.
func (w *World) updateDynamicIndex(created map[uint64]bool, moved map[uint64]bool, newlyDead map[uint64]bool) {
	changed := len(created) + len(moved) + len(newlyDead)

	alive := 0
	for _, id := range w.order {
		if !w.agents[id].IsDead() {
			alive++
		}
	}
	if alive == 0 {
		return
	}
	rho := float64(changed) / float64(alive)

	switch {
	case rho > 0.3:
		w.dynamic.Clear()
		for _, id := range w.order {
			a := w.agents[id]
			if a.IsDead() {
				continue
			}
			w.dynamic.Insert(w.agentEntry(a))
		}
	case rho > 0.1:
		// created/newlyDead entries were already inserted/removed at the
		// moment they occurred (resolveSpawnWave, commitDamage); only
		// moved entries need re-indexing here.
		w.reinsertMoved(moved)
	default:
		w.reinsertMoved(moved)
	}
}

// reinsertMoved re-indexes moved agents in ascending id order. The sort
// matters: patching in map-iteration order would leave per-node entry
// slices ordered differently between two same-seed runs, and that order
// is observable through Query traversal (nearest-target tie-breaks,
// separation's float accumulation).
func (w *World) reinsertMoved(moved map[uint64]bool) {
	ids := make([]uint64, 0, len(moved))
	for id := range moved {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		a, ok := w.agents[id]
		if !ok || a.IsDead() {
			continue
		}
		w.dynamic.Remove(id)
		w.dynamic.Insert(w.agentEntry(a))
	}
}

// resolveSpawnWave drains one pending wave request, attempting waveCount
// spawns around the player and creating a randomly-subtyped pursuer for
// each success.
func (w *World) resolveSpawnWave() map[uint64]bool {
	created := make(map[uint64]bool)
	if len(w.pendingWaves) == 0 {
		return created
	}
	waveCount := w.pendingWaves[0]
	w.pendingWaves = w.pendingWaves[1:]

	spawned := 0
	for i := 0; i < waveCount; i++ {
		if w.countKind(agent.KindPursuer) >= w.cfg.MaxPursuers {
			break
		}

		nearby := w.candidatesInBox(w.player.Pos, w.cfg.PursuerSpawnMaxRadius+w.cfg.SpawnSafeMargin)
		p, ok := w.spawner.Find(w.rng, spawn.Point{X: w.player.Pos.X, Y: w.player.Pos.Y},
			w.cfg.PursuerSpawnMinRadius, w.cfg.PursuerSpawnMaxRadius, 10, 10, nearby)
		if !ok {
			w.warn.Warn("spawn_exhausted", "pursuer wave spawn exhausted", logrus.Fields{
				"wave_requested": waveCount,
				"spawned":        spawned,
			})
			continue
		}

		subtype := agent.PursuerSubtype(w.rng.Intn(3))
		pu := agent.NewPursuer(w.allocID(), agent.Vec2{X: p.X, Y: p.Y}, subtype,
			w.cfg.PursuerSpeed, w.cfg.PursuerAttack, w.cfg.PursuerMaxHP)
		w.addAgent(pu)
		created[pu.ID] = true
		spawned++
	}
	return created
}

func (w *World) countKind(k agent.Kind) int {
	count := 0
	for _, id := range w.order {
		if a := w.agents[id]; a != nil && a.Kind == k && !a.IsDead() {
			count++
		}
	}
	return count
}

// runSeparation applies emergency separation: each live pursuer is
// pushed away from nearby pursuers by a capped, building-aware one-shot
// translation, breaking deadlocks where crowds gridlock.
func (w *World) runSeparation() {
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil || a.Kind != agent.KindPursuer || a.IsDead() {
			continue
		}

		repulsion := agent.Vec2{}
		for _, e := range w.dynamic.Query(spatial.Bounds{
			MinX: a.Pos.X - w.cfg.SeparationRadius, MinY: a.Pos.Y - w.cfg.SeparationRadius,
			MaxX: a.Pos.X + w.cfg.SeparationRadius, MaxY: a.Pos.Y + w.cfg.SeparationRadius,
		}) {
			if e.ID == id {
				continue
			}
			other, ok := w.agents[e.ID]
			if !ok || other.Kind != agent.KindPursuer || other.IsDead() {
				continue
			}
			d := agent.Distance(a.Pos, other.Pos)
			if d >= w.cfg.SeparationRadius {
				continue
			}
			var away agent.Vec2
			if d < 1e-6 {
				// Exactly coincident: there is no well-defined "away"
				// direction, so fall back to a deterministic per-pair
				// jitter direction rather than contributing nothing.
				away = idJitterDirection(a.ID, other.ID)
			} else {
				away = a.Pos.Sub(other.Pos).Normalized()
			}
			strength := (w.cfg.SeparationRadius - d) / w.cfg.SeparationRadius
			repulsion = repulsion.Add(away.Scale(strength))
		}

		if repulsion.Length() < 1e-9 {
			continue
		}
		if repulsion.Length() > w.cfg.SeparationForce {
			repulsion = repulsion.Normalized().Scale(w.cfg.SeparationForce)
		}

		desired := a.Pos.Add(repulsion)
		nx, ny := w.coll.SlideTranslation(a.Pos.X, a.Pos.Y, desired.X, desired.Y, a.W, a.H)
		newPos := agent.Vec2{X: nx, Y: ny}
		if newPos != a.Pos {
			w.dynamic.Remove(id)
			a.Pos = newPos
			w.dynamic.Insert(w.agentEntry(a))
		}
	}
}

// idJitterDirection returns a deterministic unit vector for a pair of
// agent ids, used only when two agents occupy the exact same point and
// "away from the other" is undefined. Deterministic in id, not
// wall-clock time, so the same seed and inputs still replay identically.
func idJitterDirection(a, b uint64) agent.Vec2 {
	h := a*2654435761 ^ b*40503503
	angle := float64(h%3600) / 3600.0 * 2 * math.Pi
	return agent.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
}

// removeExpiredDead drops agents whose Dead-state linger has elapsed.
// Only Pursuer specifies a linger duration; Player and Follower Dead is
// terminal and not auto-removed.
func (w *World) removeExpiredDead() {
	kept := w.order[:0:0]
	for _, id := range w.order {
		a := w.agents[id]
		if a.IsDead() && a.DeadTimer >= w.deadLingerFor(a.Kind) {
			delete(w.agents, id)
			continue
		}
		kept = append(kept, id)
	}
	w.order = kept
}

func (w *World) deadLingerFor(k agent.Kind) float64 {
	if k == agent.KindPursuer {
		return w.cfg.PursuerDeadLinger
	}
	return math.Inf(1)
}

// checkInvariants logs (rate-limited, never panics) agents found inside
// a building or with hp outside [0, max_hp] after a tick; the simulation
// continues regardless.
func (w *World) checkInvariants() {
	for _, id := range w.order {
		a := w.agents[id]
		if a == nil {
			continue
		}
		if !a.IsDead() && w.coll.RectCollidesBuildings(a.Pos.X, a.Pos.Y, a.W, a.H) {
			w.warn.Warn("agent_in_building", "agent overlaps a building after tick", logrus.Fields{"agent_id": id})
		}
		if a.HP < 0 || a.HP > a.MaxHP {
			w.warn.Warn("hp_out_of_range", "agent hp out of [0,max_hp]", logrus.Fields{"agent_id": id, "hp": a.HP})
		}
	}
}

// nearestOpposing finds the closest live agent of the opposing camp
// inside the square of half-side DetectionRadius around a; it applies no
// circular distance cut-off, so a target in a corner of that square can
// lie beyond DetectionRadius. Peer positions come from pos0, the tick-start
// snapshot, so agents updated earlier in the same tick are seen where
// they stood when the tick began, not where they already moved to.
func (w *World) nearestOpposing(a *agent.Agent, pos0 map[uint64]agent.Vec2) *agent.TargetInfo {
	radius := w.cfg.DetectionRadius
	box := spatial.Bounds{
		MinX: a.Pos.X - radius, MinY: a.Pos.Y - radius,
		MaxX: a.Pos.X + radius, MaxY: a.Pos.Y + radius,
	}

	var best *agent.TargetInfo
	bestDist := math.MaxFloat64
	for _, e := range w.dynamic.Query(box) {
		if e.ID == a.ID {
			continue
		}
		other, ok := w.agents[e.ID]
		if !ok || other.IsDead() || !isOpposing(a.Kind, other.Kind) {
			continue
		}
		p, ok := pos0[e.ID]
		if !ok {
			p = other.Pos
		}
		d := agent.Distance(a.Pos, p)
		if d < bestDist {
			bestDist = d
			best = &agent.TargetInfo{ID: other.ID, Pos: p, W: other.W, H: other.H, IsAlive: true}
		}
	}
	return best
}

func isOpposing(a, b agent.Kind) bool {
	if a == agent.KindPursuer {
		return b == agent.KindPlayer || b == agent.KindFollower
	}
	return b == agent.KindPursuer
}

func (w *World) candidatesInBox(center agent.Vec2, radius float64) []collision.Candidate {
	box := spatial.Bounds{
		MinX: center.X - radius, MinY: center.Y - radius,
		MaxX: center.X + radius, MaxY: center.Y + radius,
	}
	entries := w.dynamic.Query(box)
	out := make([]collision.Candidate, 0, len(entries))
	for _, e := range entries {
		a, ok := w.agents[e.ID]
		if !ok {
			continue
		}
		out = append(out, collision.Candidate{ID: a.ID, CenterX: a.Pos.X, CenterY: a.Pos.Y, W: a.W, H: a.H})
	}
	return out
}

// SpawnFollower creates a Follower outside the tick flow, inserting it
// into the dynamic index immediately. Returns 0 (never a valid id) when
// the follower population cap is already reached.
func (w *World) SpawnFollower(role agent.FollowerRole, pos agent.Vec2) uint64 {
	if w.countKind(agent.KindFollower) >= w.cfg.MaxFollowers {
		return 0
	}
	f := agent.NewFollower(w.allocID(), pos, role, w.cfg.FollowerSpeed, w.cfg.FollowerAttack, w.cfg.FollowerMaxHP)
	w.addAgent(f)
	return f.ID
}

// Damage applies amount of damage to agent id outside the tick flow.
// Reports false if id is unknown; an unknown id is a programmer error on
// the caller's part, not a panic.
func (w *World) Damage(id uint64, amount float64) bool {
	a, ok := w.agents[id]
	if !ok {
		return false
	}
	a.ApplyDamage(amount)
	if a.MarkDeadIfDepleted() {
		w.dynamic.Remove(id)
	}
	return true
}

// AgentView is one agent's externally-visible state.
type AgentView struct {
	ID    uint64
	Kind  agent.Kind
	X, Y  float64
	HP    float64
	MaxHP float64
	State int
	W, H  float64
}

// WarningCounts tallies runtime predicate failures observed so far:
// every occurrence is counted even when the rate-limited log line for it
// was suppressed.
type WarningCounts struct {
	AgentInBuilding uint64
	HPOutOfRange    uint64
	SpawnExhausted  uint64
}

// WorldView is the read-only snapshot returned by World.Snapshot.
type WorldView struct {
	Day       int
	TimeInDay float64
	IsDay     bool
	Agents    []AgentView
	Buildings []worldmap.Building
	TickCount uint64
	Warnings  WarningCounts
}

// Snapshot returns a read-only view of the current world state.
func (w *World) Snapshot() WorldView {
	view := WorldView{
		Day:       w.clock.Day,
		TimeInDay: w.clock.TimeInDay,
		IsDay:     w.clock.IsDay(),
		Buildings: w.m.Buildings,
		TickCount: w.tickCount,
		Warnings: WarningCounts{
			AgentInBuilding: w.warn.Count("agent_in_building"),
			HPOutOfRange:    w.warn.Count("hp_out_of_range"),
			SpawnExhausted:  w.warn.Count("spawn_exhausted"),
		},
	}
	view.Agents = make([]AgentView, 0, len(w.order))
	for _, id := range w.order {
		a := w.agents[id]
		view.Agents = append(view.Agents, AgentView{
			ID: a.ID, Kind: a.Kind, X: a.Pos.X, Y: a.Pos.Y,
			HP: a.HP, MaxHP: a.MaxHP, State: a.State, W: a.W, H: a.H,
		})
	}
	return view
}
