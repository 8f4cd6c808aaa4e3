package sim

import (
	"math"

	"arenasrv/internal/world"
)

// Constants from §4.4. vMin is the velocity-magnitude threshold below which
// an entity is considered stopped; speedCapFactor (ε in §3's invariant 3)
// makes the soft speed cap permissive relative to the Euclidean norm by
// design, not a physics-accurate clamp, and must be reproduced exactly.
const (
	vMin           = 0.5
	speedCapFactor = 1.4
)

// Bounds is the rectangular world extent entities are reflected against.
type Bounds struct {
	X, Y float64
}

// ApplyInput folds one command into DesiredVelocity (§4.4's input-ingest
// phase). A Stop, or a Move whose vector has zero magnitude, zeroes
// DesiredVelocity; any other Move normalizes its direction and scales it by
// the entity's max speed.
func ApplyInput(store *world.Store, entity world.EntityID, cmd Command, profile world.CharacterProfile) {
	if cmd.Type != CommandMove {
		store.SetDesiredVelocity(entity, world.DesiredVelocity{})
		return
	}
	dx, dy := cmd.Move.DX, cmd.Move.DY
	magnitude := math.Hypot(dx, dy)
	if magnitude == 0 {
		store.SetDesiredVelocity(entity, world.DesiredVelocity{})
		return
	}
	store.SetDesiredVelocity(entity, world.DesiredVelocity{
		X: dx / magnitude * profile.MaxSpeed,
		Y: dy / magnitude * profile.MaxSpeed,
	})
}

// StepPhysics advances one entity's Velocity and Position by one tick:
// acceleration or friction, the soft speed cap, integration, and boundary
// reflection, in the order §4.4 specifies.
func StepPhysics(store *world.Store, entity world.EntityID, profile world.CharacterProfile, bounds Bounds, dt float64) {
	desired, _ := store.DesiredVelocity(entity)
	velocity, _ := store.Velocity(entity)

	if desiredMagnitude := math.Hypot(desired.X, desired.Y); desiredMagnitude > vMin {
		factor := clamp(profile.Acceleration*dt, 0, 1)
		velocity.X += (desired.X - velocity.X) * factor
		velocity.Y += (desired.Y - velocity.Y) * factor
	} else {
		decay := math.Max(0, 1-profile.Friction*dt)
		velocity.X *= decay
		velocity.Y *= decay
		if math.Abs(velocity.X) < vMin {
			velocity.X = 0
		}
		if math.Abs(velocity.Y) < vMin {
			velocity.Y = 0
		}
	}

	if manhattan := math.Abs(velocity.X) + math.Abs(velocity.Y); manhattan > profile.MaxSpeed*speedCapFactor && manhattan > 0 {
		scale := (profile.MaxSpeed * speedCapFactor) / manhattan
		velocity.X *= scale
		velocity.Y *= scale
	}

	position, _ := store.Position(entity)
	position.X += velocity.X * dt
	position.Y += velocity.Y * dt

	if position.X < 0 {
		position.X = 0
		velocity.X = -velocity.X
	} else if position.X > bounds.X {
		position.X = bounds.X
		velocity.X = -velocity.X
	}
	if position.Y < 0 {
		position.Y = 0
		velocity.Y = -velocity.Y
	} else if position.Y > bounds.Y {
		position.Y = bounds.Y
		velocity.Y = -velocity.Y
	}

	store.SetVelocity(entity, velocity)
	store.SetPosition(entity, position)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
