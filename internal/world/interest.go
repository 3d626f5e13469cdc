package world

import (
	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/gamemap"
)

// VisionRadius converts a radius in tiles to the pixel radius used by
// entity interest queries.
func VisionRadius(tiles int) float64 {
	return float64(tiles) * gamemap.TileSize
}

// Interest is the per-observer visible set for one tick: the entities within
// vision radius and the terrain chunk window around the observer. The two
// axes are independent — an entity inside the radius is of interest even when
// it stands on a chunk outside the observer's window, and a loaded chunk may
// contain no entities of interest.
type Interest struct {
	Entities []ecs.EntityID
	Chunks   map[gamemap.Coord]struct{}
}

// ComputeInterest builds the interest set for an observer at (x, y).
// The observer itself is always part of its own entity set when indexed.
// The entity slice aliases the spatial index's reusable query buffer.
func ComputeInterest(s *State, x, y, radius float64) Interest {
	return Interest{
		Entities: s.Spatial.QueryRadius(x, y, radius),
		Chunks:   s.Terrain.Window(x, y),
	}
}
