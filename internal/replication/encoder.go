// Package replication diffs per-session views of the world into delta
// messages. Each session owns a Cursor of value-copied entity records; the
// encoder compares the current interest set against the cursor and advances
// the cursor to exactly what was emitted, so consecutive deltas always
// compose into the session's current view.
package replication

import (
	"sort"

	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/world"
)

// Cursor is the last view acknowledged-as-sent for one session. A nil or
// empty cursor makes the next Encode degenerate into a full spawn list.
type Cursor map[ecs.EntityID]world.EntityRecord

// Delta is the result of one Encode: entities that entered view, entities
// whose replicated fields changed, and entities that left view (by despawn,
// distance, or record unavailability).
type Delta struct {
	Spawned   []world.EntityRecord
	Updated   []world.EntityRecord
	Despawned []ecs.EntityID
}

// Empty reports whether the delta carries no changes at all.
func (d *Delta) Empty() bool {
	return len(d.Spawned) == 0 && len(d.Updated) == 0 && len(d.Despawned) == 0
}

// Encode diffs the interest set against the cursor and mutates the cursor in
// place to the emitted view. An entity whose Record cannot be fully built is
// treated as out of view this tick; it re-enters as a spawn once its record
// settles.
func Encode(cur Cursor, s *world.State, interest []ecs.EntityID) Delta {
	var d Delta
	seen := make(map[ecs.EntityID]struct{}, len(interest))

	for _, id := range interest {
		rec, ok := s.Record(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		old, known := cur[id]
		switch {
		case !known:
			d.Spawned = append(d.Spawned, rec)
			cur[id] = rec
		case rec != old:
			d.Updated = append(d.Updated, rec)
			cur[id] = rec
		}
	}

	for id := range cur {
		if _, ok := seen[id]; !ok {
			d.Despawned = append(d.Despawned, id)
			delete(cur, id)
		}
	}

	// Map iteration order is random; sort for a deterministic wire stream.
	sort.Slice(d.Spawned, func(i, j int) bool { return d.Spawned[i].ID < d.Spawned[j].ID })
	sort.Slice(d.Updated, func(i, j int) bool { return d.Updated[i].ID < d.Updated[j].ID })
	sort.Slice(d.Despawned, func(i, j int) bool { return d.Despawned[i] < d.Despawned[j] })
	return d
}

// Snapshot builds the full current view without reference to any prior
// cursor, and resets the cursor to it. Used for the initial join message and
// for recovery after output loss.
func Snapshot(cur Cursor, s *world.State, interest []ecs.EntityID) []world.EntityRecord {
	for id := range cur {
		delete(cur, id)
	}
	out := make([]world.EntityRecord, 0, len(interest))
	for _, id := range interest {
		rec, ok := s.Record(id)
		if !ok {
			continue
		}
		cur[id] = rec
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
