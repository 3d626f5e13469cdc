// Package gamemap holds terrain chunking: fixed 32×32-tile chunks, the unit
// of spatial data loading and streaming. Terrain generation itself sits
// behind the Producer interface; chunks are immutable once produced and
// cached for the server's lifetime.
package gamemap

const (
	TileSize  = 32 // pixels per tile
	ChunkSize = 32 // tiles per chunk side

	// ChunkPixels is the pixel span of one chunk side.
	ChunkPixels = TileSize * ChunkSize

	// LoadRadius of 1 yields the 3×3 chunk window around a player.
	LoadRadius = 1
)

// Coord identifies a chunk by its integer grid position.
type Coord struct {
	CX int32
	CY int32
}

// Feature is a placed map object within a chunk, addressed by local tile.
type Feature struct {
	TileX     uint8
	TileY     uint8
	FeatureID uint16
}

// Chunk owns a fixed tile-index array and a sparse list of placed features.
// Immutable after production.
type Chunk struct {
	Coord    Coord
	Tiles    []uint16 // ChunkSize*ChunkSize entries, row-major
	Features []Feature
}

// TileAt returns the tile ID at the local tile position.
func (c *Chunk) TileAt(lx, ly int) uint16 {
	return c.Tiles[ly*ChunkSize+lx]
}

// WorldToChunk maps a pixel position to the containing chunk coordinate.
func WorldToChunk(x, y float64) Coord {
	tx := floorDiv(int32(floor(x)), TileSize)
	ty := floorDiv(int32(floor(y)), TileSize)
	return TileToChunk(tx, ty)
}

// TileToChunk maps a tile coordinate to the containing chunk coordinate.
func TileToChunk(tx, ty int32) Coord {
	return Coord{CX: floorDiv(tx, ChunkSize), CY: floorDiv(ty, ChunkSize)}
}

// Window returns the (2r+1)² chunk block centered on c, clipped to the map
// bounds [0,widthChunks)×[0,heightChunks).
func Window(c Coord, r int32, widthChunks, heightChunks int32) map[Coord]struct{} {
	out := make(map[Coord]struct{}, (2*r+1)*(2*r+1))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			cx, cy := c.CX+dx, c.CY+dy
			if cx < 0 || cy < 0 || cx >= widthChunks || cy >= heightChunks {
				continue
			}
			out[Coord{cx, cy}] = struct{}{}
		}
	}
	return out
}

// WindowDiff computes which chunks must be loaded and unloaded when a
// session's window moves from have to want.
func WindowDiff(have, want map[Coord]struct{}) (load, unload []Coord) {
	for c := range want {
		if _, ok := have[c]; !ok {
			load = append(load, c)
		}
	}
	for c := range have {
		if _, ok := want[c]; !ok {
			unload = append(unload, c)
		}
	}
	return load, unload
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func floor(v float64) float64 {
	f := float64(int64(v))
	if v < 0 && f != v {
		f--
	}
	return f
}
