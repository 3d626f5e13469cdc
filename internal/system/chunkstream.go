package system

import (
	"sort"
	"time"

	"go.uber.org/zap"

	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/world"
)

// ChunkStreamSystem keeps each session's loaded chunk window in step with its
// position: chunks entering the 3×3 window are sent, chunks leaving it are
// retired. Phase 3 (PostUpdate), after replication; sessions still waiting on
// their snapshot are skipped because the snapshot carries the whole window.
type ChunkStreamSystem struct {
	worldState *world.State
	players    *session.Registry
	log        *zap.Logger
}

func NewChunkStreamSystem(worldState *world.State, players *session.Registry, log *zap.Logger) *ChunkStreamSystem {
	return &ChunkStreamSystem{worldState: worldState, players: players, log: log}
}

func (s *ChunkStreamSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *ChunkStreamSystem) Update(_ time.Duration) {
	s.players.Connected(func(p *session.Player) {
		if p.Phase != session.PhaseActive || p.Net == nil || p.NeedsSnapshot {
			return
		}
		pos, ok := s.worldState.Comps.Pos.Get(p.Entity)
		if !ok {
			return
		}
		want := s.worldState.Terrain.Window(pos.X, pos.Y)
		load, unload := gamemap.WindowDiff(p.ChunkWindow, want)
		if len(load) == 0 && len(unload) == 0 {
			return
		}
		sortCoords(load)
		sortCoords(unload)

		if len(load) > 0 {
			w := packet.NewWriter(packet.S_OPCODE_CHUNKS_LOADED)
			w.WriteH(uint16(len(load)))
			for _, c := range load {
				packet.WriteChunk(w, s.worldState.Terrain.Chunk(c))
			}
			p.Net.Send(w.Bytes())
		}
		if len(unload) > 0 {
			w := packet.NewWriter(packet.S_OPCODE_CHUNKS_UNLOADED)
			w.WriteH(uint16(len(unload)))
			for _, c := range unload {
				w.WriteD(c.CX)
				w.WriteD(c.CY)
			}
			p.Net.Send(w.Bytes())
		}
		p.ChunkWindow = want

		s.log.Debug("串流區塊",
			zap.String("name", p.Name),
			zap.Int("load", len(load)),
			zap.Int("unload", len(unload)),
		)
	})
}

func sortCoords(cs []gamemap.Coord) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].CY != cs[j].CY {
			return cs[i].CY < cs[j].CY
		}
		return cs[i].CX < cs[j].CX
	})
}
