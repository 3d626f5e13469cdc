package gamemap

// Terrain is the chunk cache for one map. Chunks are produced on first
// request and never regenerated for a given seed+coordinate pair; the cache
// lives for the server's lifetime. Game-loop goroutine only.
type Terrain struct {
	producer Producer
	chunks   map[Coord]*Chunk

	widthChunks  int32
	heightChunks int32
	walkable     map[uint16]bool
	blocking     map[uint16]bool // feature IDs that block movement
	blockedTiles map[[2]int32]bool
}

func NewTerrain(p Producer, widthTiles, heightTiles int, walkable, blockingFeatures map[uint16]bool) *Terrain {
	return &Terrain{
		producer:     p,
		chunks:       make(map[Coord]*Chunk, 64),
		widthChunks:  int32((widthTiles + ChunkSize - 1) / ChunkSize),
		heightChunks: int32((heightTiles + ChunkSize - 1) / ChunkSize),
		walkable:     walkable,
		blocking:     blockingFeatures,
		blockedTiles: make(map[[2]int32]bool, 256),
	}
}

func (t *Terrain) WidthChunks() int32  { return t.widthChunks }
func (t *Terrain) HeightChunks() int32 { return t.heightChunks }

// MaxX, MaxY are the pixel extents of the map.
func (t *Terrain) MaxX() float64 { return float64(t.widthChunks)*ChunkPixels - 1 }
func (t *Terrain) MaxY() float64 { return float64(t.heightChunks)*ChunkPixels - 1 }

// Chunk returns the chunk at c, producing it on first access. Out-of-bounds
// coordinates return nil.
func (t *Terrain) Chunk(c Coord) *Chunk {
	if c.CX < 0 || c.CY < 0 || c.CX >= t.widthChunks || c.CY >= t.heightChunks {
		return nil
	}
	if ch, ok := t.chunks[c]; ok {
		return ch
	}
	ch := t.producer.Produce(c)
	t.chunks[c] = ch
	for _, f := range ch.Features {
		if t.blocking[f.FeatureID] {
			tx := c.CX*ChunkSize + int32(f.TileX)
			ty := c.CY*ChunkSize + int32(f.TileY)
			t.blockedTiles[[2]int32{tx, ty}] = true
		}
	}
	return ch
}

// Window returns the clipped 3×3 chunk coordinate set around a pixel position.
func (t *Terrain) Window(x, y float64) map[Coord]struct{} {
	return Window(WorldToChunk(x, y), LoadRadius, t.widthChunks, t.heightChunks)
}

// WalkableAt implements sim.Walkable over the tile grid and blocking features.
func (t *Terrain) WalkableAt(x, y float64) bool {
	tx := floorDiv(int32(floor(x)), TileSize)
	ty := floorDiv(int32(floor(y)), TileSize)
	c := TileToChunk(tx, ty)
	ch := t.Chunk(c)
	if ch == nil {
		return false
	}
	lx := tx - c.CX*ChunkSize
	ly := ty - c.CY*ChunkSize
	if !t.walkable[ch.TileAt(int(lx), int(ly))] {
		return false
	}
	return !t.blockedTiles[[2]int32{tx, ty}]
}
