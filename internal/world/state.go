package world

import (
	"math/rand"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/component"
	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/core/event"
	"github.com/emberwold/server/internal/data"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/sim"
)

// EntityRecord is a value snapshot of one entity's replicated fields. Records
// are copied out of component stores so replication cursors never alias live
// simulation state.
type EntityRecord struct {
	ID       ecs.EntityID
	Name     string
	X, Y     float64
	DX, DY   float64
	HPCur    int32
	HPMax    int32
	Stats    [6]byte
	SpriteID uint16
}

// State owns the authoritative entity world: the ECS, component stores,
// spatial index and terrain. Single-goroutine access only (game loop).
type State struct {
	ECS     *ecs.World
	Comps   *component.Set
	Spatial *SpatialIndex
	Terrain *gamemap.Terrain
	Bus     *event.Bus

	rng *rand.Rand
	log *zap.Logger
}

func NewState(terrain *gamemap.Terrain, bus *event.Bus, seed int64, log *zap.Logger) *State {
	w := ecs.NewWorld()
	return &State{
		ECS:     w,
		Comps:   component.NewSet(w.Registry()),
		Spatial: NewSpatialIndex(),
		Terrain: terrain,
		Bus:     bus,
		rng:     rand.New(rand.NewSource(seed)),
		log:     log,
	}
}

// SpawnPlayer creates a player entity from a finished character sheet and
// indexes it at the chosen spawn point.
func (s *State) SpawnPlayer(sheet CharacterSheet, sessionID uint64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	pos := s.NextSpawnPoint()

	s.Comps.Pos.Set(id, &component.Position{Vec2: pos})
	s.Comps.Vel.Set(id, &component.Velocity{})
	s.Comps.Health.Set(id, &component.Health{Current: sheet.MaxHP, Max: sheet.MaxHP})
	s.Comps.Stats.Set(id, &sheet.Stats)
	s.Comps.Named.Set(id, &component.Named{Name: sheet.Name})
	s.Comps.Sprite.Set(id, &component.Sprite{ID: sheet.SpriteID})
	s.Comps.Actor.Set(id, &component.Actor{Speed: sheet.Speed})
	s.Comps.Cooldowns.Set(id, &component.Cooldowns{})
	s.Comps.Inventory.Set(id, &component.Inventory{Slots: sheet.StarterItems})
	s.Comps.PlayerTag.Set(id, &component.PlayerTag{SessionID: sessionID})

	s.Spatial.Upsert(id, pos.X, pos.Y)
	return id
}

// SpawnNpc creates an NPC entity from its template at a tile position.
func (s *State) SpawnNpc(tpl *data.NpcTemplate, tileX, tileY int32) ecs.EntityID {
	id := s.ECS.CreateEntity()
	pos := sim.Vec2{
		X: float64(tileX)*gamemap.TileSize + gamemap.TileSize/2,
		Y: float64(tileY)*gamemap.TileSize + gamemap.TileSize/2,
	}

	s.Comps.Pos.Set(id, &component.Position{Vec2: pos})
	s.Comps.Vel.Set(id, &component.Velocity{})
	s.Comps.Health.Set(id, &component.Health{Current: tpl.MaxHP, Max: tpl.MaxHP})
	s.Comps.Stats.Set(id, &component.Stats{
		Str: tpl.Str, Dex: tpl.Dex, Con: tpl.Con,
		Int: tpl.Int, Wis: tpl.Wis, Cha: tpl.Cha,
	})
	s.Comps.Named.Set(id, &component.Named{Name: tpl.Name})
	s.Comps.Sprite.Set(id, &component.Sprite{ID: tpl.SpriteID})
	s.Comps.Actor.Set(id, &component.Actor{Speed: tpl.Speed})
	s.Comps.Brain.Set(id, &component.Brain{HomeX: pos.X, HomeY: pos.Y})

	s.Spatial.Upsert(id, pos.X, pos.Y)
	return id
}

// SpawnGroundItem drops an item stack on the ground at a world position.
func (s *State) SpawnGroundItem(stack component.ItemStack, x, y float64) ecs.EntityID {
	id := s.ECS.CreateEntity()
	s.Comps.Pos.Set(id, &component.Position{Vec2: sim.Vec2{X: x, Y: y}})
	s.Comps.Named.Set(id, &component.Named{Name: stack.Name})
	s.Comps.Sprite.Set(id, &component.Sprite{ID: stack.Sprite})
	s.Comps.ItemStack.Set(id, &stack)
	s.Spatial.Upsert(id, x, y)
	return id
}

// Despawn removes an entity from the spatial index, emits EntityDespawned,
// and queues the entity for destruction at end of tick. Component data stays
// readable until FlushDestroyQueue so same-tick systems still see it.
func (s *State) Despawn(id ecs.EntityID) {
	if !s.ECS.Alive(id) {
		return
	}
	s.Spatial.Remove(id)
	event.Emit(s.Bus, event.EntityDespawned{EntityID: id})
	s.ECS.MarkForDestruction(id)
}

// Record copies an entity's replicated fields into a value snapshot.
// Returns false when the entity is missing a required component; the entity
// is skipped this tick and picked up again once its components settle.
func (s *State) Record(id ecs.EntityID) (EntityRecord, bool) {
	pos, ok := s.Comps.Pos.Get(id)
	if !ok {
		return EntityRecord{}, false
	}
	rec := EntityRecord{
		ID: id,
		X:  pos.X,
		Y:  pos.Y,
	}
	if v, ok := s.Comps.Vel.Get(id); ok {
		rec.DX = v.DX
		rec.DY = v.DY
	}
	if h, ok := s.Comps.Health.Get(id); ok {
		rec.HPCur = h.Current
		rec.HPMax = h.Max
	}
	if st, ok := s.Comps.Stats.Get(id); ok {
		rec.Stats = [6]byte{st.Str, st.Dex, st.Con, st.Int, st.Wis, st.Cha}
	}
	if n, ok := s.Comps.Named.Get(id); ok {
		rec.Name = n.Name
	}
	if sp, ok := s.Comps.Sprite.Get(id); ok {
		rec.SpriteID = sp.ID
	}
	return rec, true
}

// NextSpawnPoint picks a walkable position near the map centre. Falls back
// to the exact centre if no walkable tile is found after a bounded search.
func (s *State) NextSpawnPoint() sim.Vec2 {
	cx := s.Terrain.MaxX() / 2
	cy := s.Terrain.MaxY() / 2
	for attempt := 0; attempt < 64; attempt++ {
		spread := float64(attempt+1) * gamemap.TileSize
		x := cx + (s.rng.Float64()*2-1)*spread
		y := cy + (s.rng.Float64()*2-1)*spread
		if x < 0 || y < 0 || x >= s.Terrain.MaxX() || y >= s.Terrain.MaxY() {
			continue
		}
		if s.Terrain.WalkableAt(x, y) {
			return sim.Vec2{X: x, Y: y}
		}
	}
	return sim.Vec2{X: cx, Y: cy}
}

// RandomWalkableTile returns a uniformly chosen walkable tile, used by spawn
// lists with random placement. Bounded retries; returns ok=false on a map
// with no walkable tile in the sample.
func (s *State) RandomWalkableTile() (int32, int32, bool) {
	maxTX := int32(s.Terrain.MaxX() / gamemap.TileSize)
	maxTY := int32(s.Terrain.MaxY() / gamemap.TileSize)
	for attempt := 0; attempt < 128; attempt++ {
		tx := s.rng.Int31n(maxTX)
		ty := s.rng.Int31n(maxTY)
		x := float64(tx)*gamemap.TileSize + gamemap.TileSize/2
		y := float64(ty)*gamemap.TileSize + gamemap.TileSize/2
		if s.Terrain.WalkableAt(x, y) {
			return tx, ty, true
		}
	}
	return 0, 0, false
}

// Rng exposes the world RNG for systems that need deterministic-per-seed
// randomness (NPC wander timers).
func (s *State) Rng() *rand.Rand {
	return s.rng
}
