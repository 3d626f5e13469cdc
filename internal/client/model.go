// Package client is the client-side mirror of the replicated world: a model
// that folds snapshots and deltas into a local entity table, and a predictor
// that replays unacknowledged inputs on top of authoritative corrections.
// The bot command uses it end to end; headless tests use it to verify the
// server's replication stream composes.
package client

import (
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/net/packet"
)

// Model is the client's view of the world, built purely from server
// messages. Single-goroutine access.
type Model struct {
	MapID          string
	MapName        string
	PlayerEntityID uint64
	LastDeltaSeq   uint32

	entities map[uint64]packet.EntityData
	chunks   map[gamemap.Coord]*gamemap.Chunk
	walkable map[uint16]bool
	blocking map[uint16]bool
}

func NewModel() *Model {
	return &Model{
		entities: make(map[uint64]packet.EntityData),
		chunks:   make(map[gamemap.Coord]*gamemap.Chunk),
		walkable: make(map[uint16]bool),
		blocking: make(map[uint16]bool),
	}
}

// ApplySnapshot replaces the entire view with the snapshot contents.
func (m *Model) ApplySnapshot(s packet.SnapshotMsg) {
	m.MapID = s.MapID
	m.MapName = s.MapName
	m.PlayerEntityID = s.PlayerEntityID
	m.LastDeltaSeq = 0

	m.entities = make(map[uint64]packet.EntityData, len(s.Entities))
	for _, e := range s.Entities {
		m.entities[e.ID] = e
	}
	m.chunks = make(map[gamemap.Coord]*gamemap.Chunk, len(s.Chunks))
	for _, ch := range s.Chunks {
		m.chunks[ch.Coord] = ch
	}
	m.walkable = make(map[uint16]bool, len(s.TerrainIndex))
	for _, t := range s.TerrainIndex {
		m.walkable[t.ID] = t.Walkable
	}
	m.blocking = make(map[uint16]bool, len(s.FeatureIndex))
	for _, f := range s.FeatureIndex {
		m.blocking[f.ID] = f.BlocksMovement
	}
}

// ApplyDelta folds one delta into the view and returns false when the
// sequence is not the expected successor, meaning the view can no longer be
// trusted and the client should wait for a fresh snapshot.
func (m *Model) ApplyDelta(d packet.DeltaMsg) bool {
	if d.Sequence != m.LastDeltaSeq+1 {
		return false
	}
	m.LastDeltaSeq = d.Sequence
	for _, e := range d.Spawned {
		m.entities[e.ID] = e
	}
	for _, e := range d.Updated {
		m.entities[e.ID] = e
	}
	for _, id := range d.Despawned {
		delete(m.entities, id)
	}
	return true
}

// ApplyChunksLoaded adds streamed-in chunks to the local terrain.
func (m *Model) ApplyChunksLoaded(chunks []*gamemap.Chunk) {
	for _, ch := range chunks {
		m.chunks[ch.Coord] = ch
	}
}

// ApplyChunksUnloaded retires chunks that left the window.
func (m *Model) ApplyChunksUnloaded(coords []gamemap.Coord) {
	for _, c := range coords {
		delete(m.chunks, c)
	}
}

// Entity returns the replicated record for id.
func (m *Model) Entity(id uint64) (packet.EntityData, bool) {
	e, ok := m.entities[id]
	return e, ok
}

// Player returns the record of the client's own entity.
func (m *Model) Player() (packet.EntityData, bool) {
	return m.Entity(m.PlayerEntityID)
}

// EntityCount returns the number of entities currently in view.
func (m *Model) EntityCount() int { return len(m.entities) }

// ChunkCount returns the number of chunks currently loaded.
func (m *Model) ChunkCount() int { return len(m.chunks) }

// TerrainIndexLen reports how many terrain types the snapshot carried.
func (m *Model) TerrainIndexLen() int { return len(m.walkable) }

// WalkableAt implements sim.Walkable over the streamed chunks. Positions on
// chunks the client has not loaded are treated as walkable; the server is
// authoritative and corrects optimistic predictions.
func (m *Model) WalkableAt(x, y float64) bool {
	tx := int32(x) / gamemap.TileSize
	ty := int32(y) / gamemap.TileSize
	if x < 0 || y < 0 {
		return false
	}
	c := gamemap.TileToChunk(tx, ty)
	ch, ok := m.chunks[c]
	if !ok {
		return true
	}
	lx := int(tx - c.CX*gamemap.ChunkSize)
	ly := int(ty - c.CY*gamemap.ChunkSize)
	if !m.walkable[ch.TileAt(lx, ly)] {
		return false
	}
	for _, f := range ch.Features {
		if int(f.TileX) == lx && int(f.TileY) == ly && m.blocking[f.FeatureID] {
			return false
		}
	}
	return true
}
