package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/config"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/data"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/replication"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/world"
)

// ReplicationSystem builds the per-session view each tick: a full snapshot
// for sessions flagged NeedsSnapshot, a delta against the session cursor for
// everyone else. Phase 3 (PostUpdate), after session lifecycle so expired
// entities despawn in the same tick they are removed.
type ReplicationSystem struct {
	worldState *world.State
	players    *session.Registry
	table      *data.TerrainTable
	cfg        *config.Config
	log        *zap.Logger

	radius float64
}

func NewReplicationSystem(worldState *world.State, players *session.Registry, table *data.TerrainTable, cfg *config.Config, log *zap.Logger) *ReplicationSystem {
	return &ReplicationSystem{
		worldState: worldState,
		players:    players,
		table:      table,
		cfg:        cfg,
		log:        log,
		radius:     world.VisionRadius(cfg.Game.VisionRadiusTiles),
	}
}

func (s *ReplicationSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ReplicationSystem) Update(_ time.Duration) {
	s.players.Connected(func(p *session.Player) {
		if p.Phase != session.PhaseActive || p.Net == nil {
			return
		}
		// A connected player always has a body: death respawns in place the
		// same tick and grace expiry only despawns disconnected players. If
		// that ever changes this skip must become a hold-then-clear of the
		// session's view.
		pos, ok := s.worldState.Comps.Pos.Get(p.Entity)
		if !ok {
			return
		}
		interest := world.ComputeInterest(s.worldState, pos.X, pos.Y, s.radius)
		if p.NeedsSnapshot {
			s.sendSnapshot(p, interest)
			return
		}
		s.sendDelta(p, interest)
	})
}

func (s *ReplicationSystem) sendSnapshot(p *session.Player, interest world.Interest) {
	w := packet.NewWriter(packet.S_OPCODE_SNAPSHOT)
	w.WriteS(s.cfg.Map.ID)
	w.WriteS(s.cfg.Map.Name)
	w.WriteQ(uint64(p.Entity))
	packet.WriteTerrainIndex(w, s.table.Terrain)
	packet.WriteFeatureIndex(w, s.table.Features)

	w.WriteH(uint16(len(interest.Chunks)))
	for c := range interest.Chunks {
		packet.WriteChunk(w, s.worldState.Terrain.Chunk(c))
	}

	records := replication.Snapshot(p.Cursor, s.worldState, interest.Entities)
	w.WriteH(uint16(len(records)))
	for i := range records {
		ed := toEntityData(records[i])
		ed.WriteTo(w)
	}

	p.Net.Send(w.Bytes())
	p.ChunkWindow = interest.Chunks
	p.NeedsSnapshot = false
	p.DeltaSeq = 0

	s.log.Debug("傳送世界快照",
		zap.String("name", p.Name),
		zap.Int("chunks", len(interest.Chunks)),
		zap.Int("entities", len(records)),
	)
}

func (s *ReplicationSystem) sendDelta(p *session.Player, interest world.Interest) {
	d := replication.Encode(p.Cursor, s.worldState, interest.Entities)
	if d.Empty() {
		return
	}

	p.DeltaSeq++
	w := packet.NewWriter(packet.S_OPCODE_DELTA)
	w.WriteDU(p.DeltaSeq)
	w.WriteDU(p.Move.Sequence)
	w.WriteQ(p.Move.Timestamp)

	w.WriteH(uint16(len(d.Spawned)))
	for i := range d.Spawned {
		ed := toEntityData(d.Spawned[i])
		ed.WriteTo(w)
	}
	w.WriteH(uint16(len(d.Updated)))
	for i := range d.Updated {
		ed := toEntityData(d.Updated[i])
		ed.WriteTo(w)
	}
	w.WriteH(uint16(len(d.Despawned)))
	for _, id := range d.Despawned {
		w.WriteQ(uint64(id))
	}

	p.Net.Send(w.Bytes())
}

func toEntityData(rec world.EntityRecord) packet.EntityData {
	return packet.EntityData{
		ID:       uint64(rec.ID),
		Name:     rec.Name,
		X:        float32(rec.X),
		Y:        float32(rec.Y),
		DX:       float32(rec.DX),
		DY:       float32(rec.DY),
		HPCur:    rec.HPCur,
		HPMax:    rec.HPMax,
		Stats:    rec.Stats,
		SpriteID: rec.SpriteID,
	}
}
