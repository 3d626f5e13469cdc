package system

import (
	"time"

	"github.com/emberwold/server/internal/component"
	"github.com/emberwold/server/internal/core/ecs"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/sim"
	"github.com/emberwold/server/internal/world"
)

// MovementSystem turns admitted movement intents into velocities and
// integrates every actor's position against the terrain. Phase 2 (Update).
type MovementSystem struct {
	worldState *world.State
	players    *session.Registry
}

func NewMovementSystem(worldState *world.State, players *session.Registry) *MovementSystem {
	return &MovementSystem{worldState: worldState, players: players}
}

func (s *MovementSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *MovementSystem) Update(dt time.Duration) {
	comps := s.worldState.Comps

	// Player intents → velocity. A malformed vector zeroes the velocity so a
	// bad packet stops the player instead of preserving stale motion.
	s.players.Connected(func(p *session.Player) {
		if p.Phase != session.PhaseActive || !p.HasMove {
			return
		}
		vel, ok := comps.Vel.Get(p.Entity)
		actor, ok2 := comps.Actor.Get(p.Entity)
		if !ok || !ok2 {
			return
		}
		move := sim.ClampMove(p.Move.X, p.Move.Y)
		vel.DX = move.X * actor.Speed
		vel.DY = move.Y * actor.Speed
	})

	// Integrate all actors.
	seconds := dt.Seconds()
	terrain := s.worldState.Terrain
	ecs.Each3(comps.Actor, comps.Pos, comps.Vel, func(id ecs.EntityID, actor *component.Actor, pos *component.Position, vel *component.Velocity) {
		if vel.DX == 0 && vel.DY == 0 {
			return
		}
		var move sim.Vec2
		if actor.Speed > 0 {
			move = sim.Vec2{X: vel.DX / actor.Speed, Y: vel.DY / actor.Speed}
		}
		next := sim.Step(pos.Vec2, move, actor.Speed, seconds, terrain.MaxX(), terrain.MaxY(), terrain)
		if next == pos.Vec2 {
			return
		}
		pos.Vec2 = next
		s.worldState.Spatial.Upsert(id, next.X, next.Y)
	})
}
