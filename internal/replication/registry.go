// Package replication implements the replication snapshot, the explicit
// networked-component registry, and the per-tick dispatcher (§4.2, §4.7,
// design note §9). Adding a new networked view is one Register call plus a
// projection function; neither Snapshot nor Dispatcher branch on component
// kind.
package replication

import "arenasrv/internal/world"

// View bundles everything the dispatcher needs for one networked component:
// a projection from world state into named numeric fields, the
// significance threshold for each field, and a renderer from fields to the
// wire value for that shortcode.
type View struct {
	// Shortcode is the wire-level key for this view (§6.3), e.g. "p", "v".
	Shortcode string
	// Thresholds maps internal field names (e.g. "x", "y") to the
	// significance threshold used by Snapshot.Diff.
	Thresholds map[string]float64
	// Project reads the source component off an entity and renders it as
	// named fields. ok is false if the entity has no such component.
	Project func(store *world.Store, id world.EntityID) (fields map[string]float64, ok bool)
	// Encode renders a complete field set into the wire-ready value placed
	// under Shortcode in an entity entry's "c" object.
	Encode func(fields map[string]float64) any
}

// Registry is the startup-populated table of networked views the
// dispatcher iterates generically.
type Registry struct {
	views []View
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a networked view. Order of registration determines the
// order views are considered within an entity entry, but has no other
// significance.
func (r *Registry) Register(v View) {
	r.views = append(r.views, v)
}

// Views returns every registered view, in registration order.
func (r *Registry) Views() []View {
	return r.views
}

// DefaultRegistry builds the initial networked-component catalogue from
// §3: NetworkedPosition ("p") and NetworkedVelocity ("v"), both with a 0.01
// default significance threshold per field and an identity projection from
// their source component.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(View{
		Shortcode:  "p",
		Thresholds: map[string]float64{"x": 0.01, "y": 0.01},
		Project: func(store *world.Store, id world.EntityID) (map[string]float64, bool) {
			pos, ok := store.Position(id)
			if !ok {
				return nil, false
			}
			return map[string]float64{"x": pos.X, "y": pos.Y}, true
		},
		Encode: func(fields map[string]float64) any {
			return [2]float64{fields["x"], fields["y"]}
		},
	})
	registry.Register(View{
		Shortcode:  "v",
		Thresholds: map[string]float64{"x": 0.01, "y": 0.01},
		Project: func(store *world.Store, id world.EntityID) (map[string]float64, bool) {
			vel, ok := store.Velocity(id)
			if !ok {
				return nil, false
			}
			return map[string]float64{"x": vel.X, "y": vel.Y}, true
		},
		Encode: func(fields map[string]float64) any {
			return [2]float64{fields["x"], fields["y"]}
		},
	})
	return registry
}
