package sim

import (
	"math/rand"
	"time"

	"arenasrv/internal/replication"
	"arenasrv/internal/world"
)

// defaultProfile is the CharacterProfile every spawned entity receives.
// §3 notes per-entity storage is required even though every current entity
// type shares the same tuning.
func defaultProfile(maxSpeed float64) world.CharacterProfile {
	return world.CharacterProfile{MaxSpeed: maxSpeed, Acceleration: 14.0, Friction: 10.0}
}

// Engine owns the world store and runs the ordered tick phases (b) through
// (g) of §4.3; phase (a) (draining each session's inbound command buffer)
// and the liveness half of phase (h) (heartbeat timeouts) happen in
// internal/session, which owns the session objects Engine has no business
// reaching into.
type Engine struct {
	store      *world.Store
	registry   *replication.Registry
	snapshot   *replication.Snapshot
	dispatcher *replication.Dispatcher
	bounds     Bounds
	maxSpeed   float64

	wander *NPCWander
	npcIDs []world.EntityID
	rng    *rand.Rand
}

// NewEngine constructs an engine with the default networked-component
// registry (§4.2) wired in.
func NewEngine(bounds Bounds, maxSpeed float64, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	registry := replication.DefaultRegistry()
	snapshot := replication.NewSnapshot()
	return &Engine{
		store:      world.NewStore(),
		registry:   registry,
		snapshot:   snapshot,
		dispatcher: replication.NewDispatcher(registry, snapshot),
		bounds:     bounds,
		maxSpeed:   maxSpeed,
		wander:     NewNPCWander(rng),
		rng:        rng,
	}
}

// Store exposes the world store for read access by callers that need to
// report state (diagnostics, tests) without mutating it.
func (e *Engine) Store() *world.Store { return e.store }

// Dispatcher exposes the replication dispatcher so internal/session can
// drop a disconnecting session's snapshot history.
func (e *Engine) Dispatcher() *replication.Dispatcher { return e.dispatcher }

// SpawnPlayer installs a player entity per §3's Spawn rule: a uniformly
// random position in world bounds, zeroed velocities, and a network id
// equal to the player id (§3 invariant 2). The caller owns the session
// bookkeeping; this only touches the world.
func (e *Engine) SpawnPlayer(playerID uint32) world.EntityID {
	entity := e.store.Spawn()
	e.store.SetPosition(entity, world.Position{X: e.rng.Float64() * e.bounds.X, Y: e.rng.Float64() * e.bounds.Y})
	e.store.SetVelocity(entity, world.Velocity{})
	e.store.SetDesiredVelocity(entity, world.DesiredVelocity{})
	e.store.SetCharacterProfile(entity, defaultProfile(e.maxSpeed))
	e.store.SetNetworkedObject(entity, world.NetworkedObject{NetworkID: playerID, Kind: world.KindPlayer})
	e.store.SetOwner(entity, world.Owner{PlayerID: playerID})
	return entity
}

// SpawnNPCs installs count wandering NPC entities (SPEC_FULL.md §3's
// expansion), each allocated a network id from the non-player range.
func (e *Engine) SpawnNPCs(count int, allocator *world.NetworkIDAllocator) {
	for i := 0; i < count; i++ {
		entity := e.store.Spawn()
		e.store.SetPosition(entity, world.Position{X: e.rng.Float64() * e.bounds.X, Y: e.rng.Float64() * e.bounds.Y})
		e.store.SetVelocity(entity, world.Velocity{})
		e.store.SetDesiredVelocity(entity, world.DesiredVelocity{})
		e.store.SetCharacterProfile(entity, defaultProfile(e.maxSpeed))
		e.store.SetNetworkedObject(entity, world.NetworkedObject{NetworkID: allocator.Next(), Kind: world.KindNPC})
		e.npcIDs = append(e.npcIDs, entity)
	}
}

// DespawnPlayer removes a player entity, notifying the dispatcher so it
// broadcasts a removal notice and purges snapshot history (§3's Despawn
// rule, §4.7). It reports the network id the removal notice should carry.
func (e *Engine) DespawnPlayer(entity world.EntityID) (networkID uint32, ok bool) {
	obj, ok := e.store.NetworkedObject(entity)
	if !ok {
		return 0, false
	}
	e.store.Despawn(entity)
	e.dispatcher.NotifyDespawn(entity, obj.NetworkID)
	return obj.NetworkID, true
}

// Tick runs phases (b) through (g) for one fixed timestep: input-ingest for
// every session's folded command, NPC wander intent, physics, and
// replication dispatch. Phase (h)'s despawn bookkeeping happens through
// DespawnPlayer, called by the caller before or after Tick as liveness
// dictates; ClearChangeLog always runs last here since the dispatcher has,
// by construction, already consumed this tick's change log.
func (e *Engine) Tick(sessions []*replication.SessionView, commands map[replication.SessionID][]Command, now time.Time, dt float64) map[replication.SessionID][]replication.Outbound {
	for _, session := range sessions {
		cmd, ok := FoldLastWins(commands[session.ID])
		if !ok {
			continue
		}
		profile, ok := e.store.CharacterProfile(session.ControlledEntity)
		if !ok {
			continue
		}
		ApplyInput(e.store, session.ControlledEntity, cmd, profile)
	}

	e.wander.Step(e.store, e.npcIDs, now)

	e.store.IterCharacterProfile(func(id world.EntityID, profile world.CharacterProfile) bool {
		StepPhysics(e.store, id, profile, e.bounds, dt)
		return true
	})

	out := e.dispatcher.Dispatch(e.store, sessions, now)
	e.store.ClearChangeLog()
	return out
}
