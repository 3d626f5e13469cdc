package gamemap

// Producer emits tile/feature data for a chunk. Terrain generation proper
// (noise, biome rules) lives outside this core; the simulation only depends
// on this boundary.
type Producer interface {
	Produce(c Coord) *Chunk
}

// SeededProducer is a deterministic stand-in terrain source: banded terrain
// with hash-scattered features. The same seed and coordinate always produce
// identical chunk data, which is all the replication layer requires.
type SeededProducer struct {
	Seed       uint32
	TerrainIDs []uint16 // candidate tile IDs, banded by hashed elevation
	FeatureIDs []uint16 // candidate feature IDs, sparsely scattered
}

func NewSeededProducer(seed uint32, terrainIDs, featureIDs []uint16) *SeededProducer {
	if len(terrainIDs) == 0 {
		terrainIDs = []uint16{0}
	}
	return &SeededProducer{Seed: seed, TerrainIDs: terrainIDs, FeatureIDs: featureIDs}
}

func (p *SeededProducer) Produce(c Coord) *Chunk {
	ch := &Chunk{
		Coord: c,
		Tiles: make([]uint16, ChunkSize*ChunkSize),
	}
	for ly := int32(0); ly < ChunkSize; ly++ {
		for lx := int32(0); lx < ChunkSize; lx++ {
			tx := c.CX*ChunkSize + lx
			ty := c.CY*ChunkSize + ly
			h := tileHash(p.Seed, tx, ty)
			// Coarse bands keep neighbouring tiles correlated so the result
			// looks like terrain rather than static.
			band := tileHash(p.Seed, tx>>3, ty>>3)
			ch.Tiles[ly*ChunkSize+lx] = p.TerrainIDs[int(band%uint32(len(p.TerrainIDs)))]

			if len(p.FeatureIDs) > 0 && h%67 == 0 {
				ch.Features = append(ch.Features, Feature{
					TileX:     uint8(lx),
					TileY:     uint8(ly),
					FeatureID: p.FeatureIDs[int(h/67)%len(p.FeatureIDs)],
				})
			}
		}
	}
	return ch
}

// tileHash is a 32-bit avalanche over (seed, x, y).
func tileHash(seed uint32, x, y int32) uint32 {
	h := seed
	h ^= uint32(x) * 0x85ebca6b
	h = (h << 13) | (h >> 19)
	h ^= uint32(y) * 0xc2b2ae35
	h ^= h >> 16
	h *= 0x7feb352d
	h ^= h >> 15
	return h
}
