package gamemap

import (
	"reflect"
	"testing"
)

func TestTileToChunkFloorsNegatives(t *testing.T) {
	cases := []struct {
		tx, ty int32
		want   Coord
	}{
		{0, 0, Coord{0, 0}},
		{31, 31, Coord{0, 0}},
		{32, 0, Coord{1, 0}},
		{-1, -1, Coord{-1, -1}},
		{-32, -33, Coord{-1, -2}},
	}
	for _, c := range cases {
		if got := TileToChunk(c.tx, c.ty); got != c.want {
			t.Fatalf("TileToChunk(%d,%d) = %+v, want %+v", c.tx, c.ty, got, c.want)
		}
	}
}

func TestWorldToChunkNegativePixels(t *testing.T) {
	if got := WorldToChunk(0, 0); got != (Coord{0, 0}) {
		t.Fatalf("origin mapped to %+v", got)
	}
	if got := WorldToChunk(-0.5, 10); got != (Coord{-1, 0}) {
		t.Fatalf("negative pixel mapped to %+v, want {-1,0}", got)
	}
	if got := WorldToChunk(float64(ChunkPixels), 0); got != (Coord{1, 0}) {
		t.Fatalf("chunk boundary mapped to %+v, want {1,0}", got)
	}
}

func TestWindowClipsToMapBounds(t *testing.T) {
	if got := len(Window(Coord{2, 2}, 1, 8, 8)); got != 9 {
		t.Fatalf("interior window size = %d, want 9", got)
	}
	if got := len(Window(Coord{0, 0}, 1, 8, 8)); got != 4 {
		t.Fatalf("corner window size = %d, want 4", got)
	}
	if got := len(Window(Coord{7, 3}, 1, 8, 8)); got != 6 {
		t.Fatalf("edge window size = %d, want 6", got)
	}
}

func TestWindowDiff(t *testing.T) {
	have := Window(Coord{1, 1}, 1, 16, 16)
	want := Window(Coord{2, 1}, 1, 16, 16)

	load, unload := WindowDiff(have, want)
	if len(load) != 3 || len(unload) != 3 {
		t.Fatalf("one-column shift: load=%d unload=%d, want 3/3", len(load), len(unload))
	}
	for _, c := range load {
		if _, ok := have[c]; ok {
			t.Fatalf("loaded chunk %+v was already held", c)
		}
		if _, ok := want[c]; !ok {
			t.Fatalf("loaded chunk %+v not in target window", c)
		}
	}

	load, unload = WindowDiff(have, have)
	if len(load) != 0 || len(unload) != 0 {
		t.Fatalf("identical windows should diff to nothing, got %d/%d", len(load), len(unload))
	}
}

func TestSeededProducerDeterministic(t *testing.T) {
	a := NewSeededProducer(42, []uint16{0, 1, 10}, []uint16{100})
	b := NewSeededProducer(42, []uint16{0, 1, 10}, []uint16{100})

	ca := a.Produce(Coord{3, -2})
	cb := b.Produce(Coord{3, -2})
	if !reflect.DeepEqual(ca, cb) {
		t.Fatalf("same seed and coord produced different chunks")
	}

	allowed := map[uint16]bool{0: true, 1: true, 10: true}
	for _, id := range ca.Tiles {
		if !allowed[id] {
			t.Fatalf("produced tile id %d outside candidate set", id)
		}
	}
}

type countingProducer struct {
	calls int
}

func (p *countingProducer) Produce(c Coord) *Chunk {
	p.calls++
	return &Chunk{Coord: c, Tiles: make([]uint16, ChunkSize*ChunkSize)}
}

func TestTerrainCachesChunks(t *testing.T) {
	p := &countingProducer{}
	terrain := NewTerrain(p, 64, 64, map[uint16]bool{0: true}, nil)

	first := terrain.Chunk(Coord{0, 0})
	second := terrain.Chunk(Coord{0, 0})
	if first != second {
		t.Fatalf("expected cached chunk pointer")
	}
	if p.calls != 1 {
		t.Fatalf("producer called %d times, want 1", p.calls)
	}

	if terrain.Chunk(Coord{-1, 0}) != nil {
		t.Fatalf("expected nil for negative coord")
	}
	if terrain.Chunk(Coord{2, 0}) != nil {
		t.Fatalf("expected nil past map width")
	}
}

type featureProducer struct{}

func (featureProducer) Produce(c Coord) *Chunk {
	ch := &Chunk{Coord: c, Tiles: make([]uint16, ChunkSize*ChunkSize)}
	if c == (Coord{0, 0}) {
		ch.Features = append(ch.Features, Feature{TileX: 1, TileY: 1, FeatureID: 100})
	}
	return ch
}

func TestWalkableAtBlockingFeature(t *testing.T) {
	terrain := NewTerrain(featureProducer{}, 64, 64,
		map[uint16]bool{0: true}, map[uint16]bool{100: true})

	// Tile (1,1) carries the blocking feature.
	blockedX := float64(1*TileSize) + TileSize/2
	blockedY := float64(1*TileSize) + TileSize/2
	if terrain.WalkableAt(blockedX, blockedY) {
		t.Fatalf("expected feature tile to block movement")
	}
	if !terrain.WalkableAt(blockedX+TileSize, blockedY) {
		t.Fatalf("expected neighbouring tile to stay walkable")
	}
	if terrain.WalkableAt(-1, -1) {
		t.Fatalf("expected out-of-bounds to be unwalkable")
	}
}
