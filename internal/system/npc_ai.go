package system

import (
	"time"

	"github.com/emberwold/server/internal/component"
	"github.com/emberwold/server/internal/core/ecs"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/scripting"
	"github.com/emberwold/server/internal/sim"
	"github.com/emberwold/server/internal/world"
)

// NpcAISystem drives NPC wandering. Decision timing lives in the Brain
// component; the decision itself is scripted in Lua. Phase 2 (Update),
// registered before MovementSystem so velocities set here integrate this tick.
type NpcAISystem struct {
	worldState *world.State
	engine     *scripting.Engine
	tickRate   int
}

func NewNpcAISystem(worldState *world.State, engine *scripting.Engine, tickRate int) *NpcAISystem {
	return &NpcAISystem{worldState: worldState, engine: engine, tickRate: tickRate}
}

func (s *NpcAISystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *NpcAISystem) Update(_ time.Duration) {
	comps := s.worldState.Comps
	rng := s.worldState.Rng()

	ecs.Each3(comps.Brain, comps.Pos, comps.Vel, func(id ecs.EntityID, brain *component.Brain, pos *component.Position, vel *component.Velocity) {
		actor, ok := comps.Actor.Get(id)
		if !ok {
			return
		}

		if brain.MoveFor > 0 {
			brain.MoveFor--
			if brain.MoveFor == 0 {
				vel.DX = 0
				vel.DY = 0
			}
			return
		}

		if brain.ThinkIn > 0 {
			brain.ThinkIn--
			return
		}

		home := sim.Vec2{X: brain.HomeX, Y: brain.HomeY}
		cmd := s.engine.WanderStep(scripting.WanderContext{
			HomeDist: sim.Dist(pos.Vec2, home),
			Roll:     rng.Float64(),
			TickRate: s.tickRate,
		})

		move := sim.ClampMove(cmd.MoveX, cmd.MoveY)
		// Leash: far from home, override the scripted direction with the way back.
		if toHome := home.Sub(pos.Vec2); toHome.Len() > 160 && (move.X != 0 || move.Y != 0) {
			move = sim.ClampMove(toHome.X/toHome.Len(), toHome.Y/toHome.Len())
		}
		vel.DX = move.X * actor.Speed
		vel.DY = move.Y * actor.Speed
		brain.MoveFor = cmd.MoveTicks
		brain.ThinkIn = cmd.IdleTicks
		if brain.MoveFor == 0 {
			vel.DX = 0
			vel.DY = 0
		}
	})
}
