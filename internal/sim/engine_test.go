package sim

import (
	"math"
	"testing"
	"time"

	"arenasrv/internal/replication"
	"arenasrv/internal/world"
)

func newTestEngine() *Engine {
	return NewEngine(Bounds{X: 1000, Y: 1000}, 100, nil)
}

func TestSpawnPlayerAssignsMatchingNetworkID(t *testing.T) {
	engine := newTestEngine()
	entity := engine.SpawnPlayer(7)
	obj, ok := engine.Store().NetworkedObject(entity)
	if !ok || obj.NetworkID != 7 {
		t.Fatalf("expected network id 7 to match player id, got %+v ok=%v", obj, ok)
	}
	pos, ok := engine.Store().Position(entity)
	if !ok {
		t.Fatal("expected spawned player to have a position")
	}
	if pos.X < 0 || pos.X > 1000 || pos.Y < 0 || pos.Y > 1000 {
		t.Fatalf("expected spawn position within bounds, got %+v", pos)
	}
}

func TestDespawnPlayerNotifiesDispatcher(t *testing.T) {
	engine := newTestEngine()
	entity := engine.SpawnPlayer(3)
	networkID, ok := engine.DespawnPlayer(entity)
	if !ok || networkID != 3 {
		t.Fatalf("expected despawn to report network id 3, got %v ok=%v", networkID, ok)
	}
	if engine.Store().IsAlive(entity) {
		t.Fatal("expected entity to be removed from the store")
	}
}

func TestTickAppliesFoldedCommandAndDispatches(t *testing.T) {
	engine := newTestEngine()
	entity := engine.SpawnPlayer(1)
	session := &replication.SessionView{ID: 1, PlayerID: 1, ControlledEntity: entity, NeedsFullSync: true}

	commands := map[replication.SessionID][]Command{
		1: {{Type: CommandMove, Move: MoveCommand{DX: 1, DY: 0}}},
	}
	out := engine.Tick([]*replication.SessionView{session}, commands, time.Unix(0, 0), Dt)
	msgs, ok := out[1]
	if !ok || len(msgs) == 0 {
		t.Fatalf("expected a full sync on first tick, got %+v", out)
	}
	if msgs[0].Type != replication.TypeFullSync {
		t.Fatalf("expected first message to be a full sync, got %s", msgs[0].Type)
	}
	velocity, _ := engine.Store().Velocity(entity)
	if velocity.X <= 0 {
		t.Fatalf("expected a Move command to start accelerating the entity, got %+v", velocity)
	}
}

func TestTickRunsNPCWander(t *testing.T) {
	engine := newTestEngine()
	engine.SpawnNPCs(1, world.NewNetworkIDAllocator())
	engine.Tick(nil, nil, time.Unix(0, 0), Dt)
	if len(engine.npcIDs) != 1 {
		t.Fatalf("expected exactly one npc to be tracked, got %d", len(engine.npcIDs))
	}
	velocity, ok := engine.Store().Velocity(engine.npcIDs[0])
	if !ok {
		t.Fatal("expected npc to have a velocity component")
	}
	if math.Hypot(velocity.X, velocity.Y) == 0 {
		t.Fatalf("expected wander to give the npc nonzero velocity after a tick, got %+v", velocity)
	}
}
