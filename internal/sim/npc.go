package sim

import (
	"math"
	"math/rand"
	"time"

	"arenasrv/internal/world"
)

// npcWanderInterval is how often an idle NPC picks a new wander direction
// (SPEC_FULL.md §3's wandering-NPC expansion).
const npcWanderInterval = 2 * time.Second

type npcWanderState struct {
	nextChangeAt time.Time
}

// NPCWander drives non-player entities through the same DesiredVelocity
// pipeline players use: periodically it assigns a new random heading at
// full speed, and StepPhysics does the rest. No separate movement code
// path exists for NPCs.
type NPCWander struct {
	rng   *rand.Rand
	state map[world.EntityID]*npcWanderState
}

func NewNPCWander(rng *rand.Rand) *NPCWander {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &NPCWander{rng: rng, state: make(map[world.EntityID]*npcWanderState)}
}

// Step assigns fresh DesiredVelocity to any entity in ids whose wander
// timer has elapsed.
func (w *NPCWander) Step(store *world.Store, ids []world.EntityID, now time.Time) {
	for _, id := range ids {
		profile, ok := store.CharacterProfile(id)
		if !ok {
			continue
		}
		st := w.state[id]
		if st == nil {
			st = &npcWanderState{}
			w.state[id] = st
		}
		if !st.nextChangeAt.IsZero() && now.Before(st.nextChangeAt) {
			continue
		}
		angle := w.rng.Float64() * 2 * math.Pi
		store.SetDesiredVelocity(id, world.DesiredVelocity{
			X: math.Cos(angle) * profile.MaxSpeed,
			Y: math.Sin(angle) * profile.MaxSpeed,
		})
		st.nextChangeAt = now.Add(npcWanderInterval)
	}
}

// Forget drops wander state for a despawned entity.
func (w *NPCWander) Forget(id world.EntityID) {
	delete(w.state, id)
}
