package world

import (
	"testing"

	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/gamemap"
)

func containsID(ids []ecs.EntityID, want ecs.EntityID) bool {
	for _, id := range ids {
		if id == want {
			return true
		}
	}
	return false
}

func TestQueryRadiusBoundaryInclusive(t *testing.T) {
	idx := NewSpatialIndex()
	onEdge := ecs.MakeEntityID(1, 0)
	outside := ecs.MakeEntityID(2, 0)

	idx.Upsert(onEdge, 640, 0)
	idx.Upsert(outside, 640.1, 0)

	got := idx.QueryRadius(0, 0, 640)
	if !containsID(got, onEdge) {
		t.Fatalf("entity exactly at radius should be included")
	}
	if containsID(got, outside) {
		t.Fatalf("entity past radius should be excluded")
	}
}

func TestQueryRadiusCrossesCellBoundaries(t *testing.T) {
	idx := NewSpatialIndex()
	neighbour := ecs.MakeEntityID(3, 0)
	// Just across a cell boundary from the query point.
	idx.Upsert(neighbour, 645, 5)

	if got := idx.QueryRadius(635, 5, 20); !containsID(got, neighbour) {
		t.Fatalf("query should cover the neighbouring cell")
	}
}

func TestUpsertRebuckets(t *testing.T) {
	idx := NewSpatialIndex()
	id := ecs.MakeEntityID(1, 0)

	idx.Upsert(id, 10, 10)
	if !containsID(idx.QueryRadius(10, 10, 50), id) {
		t.Fatalf("entity missing at initial position")
	}

	idx.Upsert(id, 5000, 5000)
	if containsID(idx.QueryRadius(10, 10, 50), id) {
		t.Fatalf("entity still found at old position after move")
	}
	if !containsID(idx.QueryRadius(5000, 5000, 50), id) {
		t.Fatalf("entity missing at new position")
	}
	if idx.Len() != 1 {
		t.Fatalf("index size = %d, want 1", idx.Len())
	}

	pos, ok := idx.PositionOf(id)
	if !ok || pos.X != 5000 || pos.Y != 5000 {
		t.Fatalf("PositionOf = %+v ok=%v", pos, ok)
	}
}

func TestRemoveIdempotent(t *testing.T) {
	idx := NewSpatialIndex()
	id := ecs.MakeEntityID(1, 0)

	idx.Upsert(id, 100, 100)
	idx.Remove(id)
	idx.Remove(id)

	if idx.Contains(id) {
		t.Fatalf("entity still present after remove")
	}
	if idx.Len() != 0 {
		t.Fatalf("index size = %d, want 0", idx.Len())
	}
	if got := idx.QueryRadius(100, 100, 50); len(got) != 0 {
		t.Fatalf("removed entity still queryable: %v", got)
	}
}

func TestQueryChunk(t *testing.T) {
	idx := NewSpatialIndex()
	inChunk := ecs.MakeEntityID(1, 0)
	elsewhere := ecs.MakeEntityID(2, 0)

	idx.Upsert(inChunk, 100, 100)
	idx.Upsert(elsewhere, 5000, 5000)

	got := idx.QueryChunk(gamemap.Coord{CX: 0, CY: 0})
	if !containsID(got, inChunk) || containsID(got, elsewhere) {
		t.Fatalf("chunk query returned %v", got)
	}
}
