package replication

import "arenasrv/internal/world"

// SessionID identifies a session's replication state. It is the same
// value as the session's player_id (§3 invariant 2 ties the two together
// for player entities), re-exported here so internal/session does not need
// to invent a second identifier.
type SessionID uint32

type fieldValues map[string]float64

// Snapshot holds last_sent[session][shortcode][entity] -> fields, the
// state behind diff/commit (§4.2). It is the central invariant of the
// replication pipeline: last_sent always equals "what the client has been
// told", never "what the server last observed".
type Snapshot struct {
	data map[SessionID]map[string]map[world.EntityID]fieldValues
}

func NewSnapshot() *Snapshot {
	return &Snapshot{data: make(map[SessionID]map[string]map[world.EntityID]fieldValues)}
}

// Diff reports whether current is significant enough to send to session:
// true if no prior entry exists for (session, shortcode, entity), or if any
// field's absolute change from the stored value exceeds that field's
// threshold. It does not mutate state; call Commit once the caller has
// actually sent current.
func (s *Snapshot) Diff(session SessionID, shortcode string, id world.EntityID, current fieldValues, thresholds map[string]float64) bool {
	entities := s.entities(session, shortcode)
	last, ok := entities[id]
	if !ok {
		return true
	}
	for field, value := range current {
		threshold := thresholds[field]
		prev, seen := last[field]
		if !seen || absFloat(value-prev) > threshold {
			return true
		}
	}
	return false
}

// Commit overwrites last_sent for every field present in current. Call
// this only for fields actually transmitted to the client; fields that
// were not sent must not appear in current, or their threshold will never
// re-trigger correctly.
func (s *Snapshot) Commit(session SessionID, shortcode string, id world.EntityID, current fieldValues) {
	if len(current) == 0 {
		return
	}
	entities := s.entitiesForWrite(session, shortcode)
	last := entities[id]
	if last == nil {
		last = make(fieldValues, len(current))
		entities[id] = last
	}
	for field, value := range current {
		last[field] = value
	}
}

// Purge removes every recorded value for an entity, across every session
// and every view, on despawn (§4.2).
func (s *Snapshot) Purge(id world.EntityID) {
	for _, shortcodes := range s.data {
		for _, entities := range shortcodes {
			delete(entities, id)
		}
	}
}

// DropSession removes all state for a session, on disconnect.
func (s *Snapshot) DropSession(session SessionID) {
	delete(s.data, session)
}

func (s *Snapshot) entities(session SessionID, shortcode string) map[world.EntityID]fieldValues {
	shortcodes := s.data[session]
	if shortcodes == nil {
		return nil
	}
	return shortcodes[shortcode]
}

func (s *Snapshot) entitiesForWrite(session SessionID, shortcode string) map[world.EntityID]fieldValues {
	shortcodes := s.data[session]
	if shortcodes == nil {
		shortcodes = make(map[string]map[world.EntityID]fieldValues)
		s.data[session] = shortcodes
	}
	entities := shortcodes[shortcode]
	if entities == nil {
		entities = make(map[world.EntityID]fieldValues)
		shortcodes[shortcode] = entities
	}
	return entities
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
