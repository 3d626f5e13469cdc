package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/core/event"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/world"
)

// SessionLifecycleSystem removes players whose disconnect grace window has
// expired: their inventory drops where they stood and the entity despawns.
// Phase 3 (PostUpdate), registered before replication so the despawn reaches
// observers in the same tick.
type SessionLifecycleSystem struct {
	worldState *world.State
	players    *session.Registry
	log        *zap.Logger
}

func NewSessionLifecycleSystem(worldState *world.State, players *session.Registry, log *zap.Logger) *SessionLifecycleSystem {
	return &SessionLifecycleSystem{worldState: worldState, players: players, log: log}
}

func (s *SessionLifecycleSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *SessionLifecycleSystem) Update(_ time.Duration) {
	for _, p := range s.players.TickExpired() {
		s.removePlayer(p)
	}
}

func (s *SessionLifecycleSystem) removePlayer(p *session.Player) {
	comps := s.worldState.Comps

	var finalX, finalY float64
	if pos, ok := comps.Pos.Get(p.Entity); ok {
		finalX, finalY = pos.X, pos.Y

		if inv, ok := comps.Inventory.Get(p.Entity); ok {
			for _, stack := range inv.Slots {
				s.worldState.SpawnGroundItem(stack, finalX, finalY)
			}
		}
	}

	s.worldState.Despawn(p.Entity)

	event.Emit(s.worldState.Bus, event.SessionRemoved{
		EntityID: p.Entity,
		Name:     p.Name,
		X:        finalX,
		Y:        finalY,
	})

	s.log.Info("寬限期結束，移除角色",
		zap.String("name", p.Name),
	)
}
