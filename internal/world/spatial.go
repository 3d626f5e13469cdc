package world

import (
	"math"

	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/sim"
)

// SpatialIndex implements a cell-bucketed spatial hash over entity positions.
// Cell size is chosen so that a 3x3 neighbourhood of cells fully covers the
// vision radius. Accessed only from the game loop goroutine — no locks.

// cellSize in pixels. Vision radius is 20 tiles * 32 px = 640 px, so one cell
// per radius keeps the candidate scan at 3x3 cells.
const cellSize = 640

type cellKey struct {
	cx int32
	cy int32
}

func toCellCoord(v float64) int32 {
	return int32(math.Floor(v / cellSize))
}

// SpatialIndex tracks which entities are in which cells, and remembers each
// entity's last indexed position so re-bucketing only happens on cell change.
type SpatialIndex struct {
	cells map[cellKey]map[ecs.EntityID]struct{}
	last  map[ecs.EntityID]sim.Vec2

	// reusable query buffer (game loop single-threaded, no lock)
	queryBuf []ecs.EntityID
}

func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		cells: make(map[cellKey]map[ecs.EntityID]struct{}),
		last:  make(map[ecs.EntityID]sim.Vec2),
	}
}

func keyOf(x, y float64) cellKey {
	return cellKey{cx: toCellCoord(x), cy: toCellCoord(y)}
}

// Upsert places or moves an entity in the index. Re-bucketing only happens
// when the entity crossed a cell boundary since the last Upsert.
func (g *SpatialIndex) Upsert(id ecs.EntityID, x, y float64) {
	newK := keyOf(x, y)
	if old, ok := g.last[id]; ok {
		oldK := keyOf(old.X, old.Y)
		if oldK == newK {
			g.last[id] = sim.Vec2{X: x, Y: y}
			return
		}
		g.removeFromCell(oldK, id)
	}
	cell := g.cells[newK]
	if cell == nil {
		cell = make(map[ecs.EntityID]struct{})
		g.cells[newK] = cell
	}
	cell[id] = struct{}{}
	g.last[id] = sim.Vec2{X: x, Y: y}
}

// Remove takes an entity out of the index. Removing an absent entity is a no-op.
func (g *SpatialIndex) Remove(id ecs.EntityID) {
	old, ok := g.last[id]
	if !ok {
		return
	}
	g.removeFromCell(keyOf(old.X, old.Y), id)
	delete(g.last, id)
}

func (g *SpatialIndex) removeFromCell(k cellKey, id ecs.EntityID) {
	cell := g.cells[k]
	if cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Contains reports whether the entity is currently indexed.
func (g *SpatialIndex) Contains(id ecs.EntityID) bool {
	_, ok := g.last[id]
	return ok
}

// Len returns the number of indexed entities.
func (g *SpatialIndex) Len() int {
	return len(g.last)
}

// QueryRadius returns all entities within Euclidean distance r of (x, y),
// including any entity exactly at distance r. The coarse pass scans the cell
// neighbourhood covering r; the fine pass filters by exact distance.
// The returned slice is reused between calls — copy it if it must outlive
// the next query.
func (g *SpatialIndex) QueryRadius(x, y, r float64) []ecs.EntityID {
	g.queryBuf = g.queryBuf[:0]
	span := int32(r)/cellSize + 1
	cx := toCellCoord(x)
	cy := toCellCoord(y)
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			k := cellKey{cx: cx + dx, cy: cy + dy}
			for id := range g.cells[k] {
				p := g.last[id]
				if sim.Dist(sim.Vec2{X: x, Y: y}, p) <= r {
					g.queryBuf = append(g.queryBuf, id)
				}
			}
		}
	}
	return g.queryBuf
}

// QueryChunk returns all indexed entities whose position falls inside the
// given terrain chunk. Used by terrain-scoped queries (item sweeps, debug).
func (g *SpatialIndex) QueryChunk(c gamemap.Coord) []ecs.EntityID {
	var out []ecs.EntityID
	for id, p := range g.last {
		if gamemap.WorldToChunk(p.X, p.Y) == c {
			out = append(out, id)
		}
	}
	return out
}

// PositionOf returns the last indexed position of an entity.
func (g *SpatialIndex) PositionOf(id ecs.EntityID) (sim.Vec2, bool) {
	p, ok := g.last[id]
	return p, ok
}
