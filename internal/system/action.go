package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/component"
	"github.com/emberwold/server/internal/config"
	"github.com/emberwold/server/internal/core/ecs"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/scripting"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/sim"
	"github.com/emberwold/server/internal/world"
)

// ActionSystem drains each player's action queue and applies the commands
// that pass validation. Invalid commands (cooldown not elapsed, target out of
// range) are dropped silently — the client's own prediction already refused
// to show them. Phase 2 (Update).
type ActionSystem struct {
	worldState *world.State
	players    *session.Registry
	engine     *scripting.Engine
	cfg        *config.Config
	now        func() time.Time
	log        *zap.Logger
}

func NewActionSystem(worldState *world.State, players *session.Registry, engine *scripting.Engine, cfg *config.Config, log *zap.Logger) *ActionSystem {
	return &ActionSystem{
		worldState: worldState,
		players:    players,
		engine:     engine,
		cfg:        cfg,
		now:        time.Now,
		log:        log,
	}
}

// SetClock replaces the cooldown clock for tests.
func (s *ActionSystem) SetClock(now func() time.Time) { s.now = now }

func (s *ActionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *ActionSystem) Update(_ time.Duration) {
	s.players.Connected(func(p *session.Player) {
		if p.Phase != session.PhaseActive {
			return
		}
		for _, a := range p.Actions {
			switch a.Kind {
			case packet.ActionAttack:
				s.applyAttack(p, a)
			case packet.ActionInteract:
				s.applyInteract(p, a)
			}
		}
		p.Actions = p.Actions[:0]
	})
}

func (s *ActionSystem) applyAttack(p *session.Player, a session.ActionIntent) {
	comps := s.worldState.Comps
	cd, ok := comps.Cooldowns.Get(p.Entity)
	pos, ok2 := comps.Pos.Get(p.Entity)
	st, ok3 := comps.Stats.Get(p.Entity)
	if !ok || !ok2 || !ok3 {
		return
	}

	now := s.now()
	if now.Before(cd.AttackUntil) {
		return
	}

	target, found := s.findTarget(p.Entity, pos.Vec2, sim.Vec2{X: a.TargetX, Y: a.TargetY})
	if !found {
		return
	}

	// Cooldown advances only on an admitted attack.
	cd.AttackUntil = now.Add(s.cfg.Game.AttackCooldown)

	hp, ok := comps.Health.Get(target)
	if !ok {
		return
	}
	tStats, _ := comps.Stats.Get(target)
	var tCon int
	if tStats != nil {
		tCon = int(tStats.Con)
	}

	result := s.engine.CalcAttack(scripting.AttackContext{
		AttackerStr: int(st.Str),
		AttackerDex: int(st.Dex),
		TargetCon:   tCon,
	})
	hp.Current -= result.Damage
	if hp.Current <= 0 {
		hp.Current = 0
		s.onDeath(target)
	}
}

// findTarget picks the damageable entity nearest the aim point, provided it
// is within attack range of the attacker. Both checks are server-side; the
// aim point itself is never trusted as a position.
func (s *ActionSystem) findTarget(attacker ecs.EntityID, from, aim sim.Vec2) (ecs.EntityID, bool) {
	comps := s.worldState.Comps
	candidates := s.worldState.Spatial.QueryRadius(from.X, from.Y, s.cfg.Game.AttackRange)

	var best ecs.EntityID
	found := false
	bestDist := -1.0
	for _, id := range candidates {
		if id == attacker || !comps.Health.Has(id) {
			continue
		}
		cp, ok := comps.Pos.Get(id)
		if !ok {
			continue
		}
		d := sim.Dist(cp.Vec2, aim)
		if bestDist < 0 || d < bestDist {
			best = id
			found = true
			bestDist = d
		}
	}
	return best, found
}

func (s *ActionSystem) applyInteract(p *session.Player, a session.ActionIntent) {
	comps := s.worldState.Comps
	cd, ok := comps.Cooldowns.Get(p.Entity)
	pos, ok2 := comps.Pos.Get(p.Entity)
	inv, ok3 := comps.Inventory.Get(p.Entity)
	if !ok || !ok2 || !ok3 {
		return
	}

	now := s.now()
	if now.Before(cd.InteractUntil) {
		return
	}

	// Pick up the nearest ground item within reach.
	candidates := s.worldState.Spatial.QueryRadius(pos.X, pos.Y, s.cfg.Game.AttackRange)
	var best ecs.EntityID
	found := false
	bestDist := -1.0
	for _, id := range candidates {
		if !comps.ItemStack.Has(id) {
			continue
		}
		cp, ok := comps.Pos.Get(id)
		if !ok {
			continue
		}
		d := sim.Dist(cp.Vec2, pos.Vec2)
		if bestDist < 0 || d < bestDist {
			best = id
			found = true
			bestDist = d
		}
	}
	if !found {
		return
	}

	cd.InteractUntil = now.Add(s.cfg.Game.AttackCooldown)
	stack, _ := comps.ItemStack.Get(best)
	inv.Slots = append(inv.Slots, *stack)
	s.worldState.Despawn(best)

	s.log.Debug("拾取物品",
		zap.String("player", p.Name),
		zap.String("item", stack.Name),
	)
}

// onDeath despawns the dead entity. NPCs leave their loot on the ground;
// players respawn fresh at a spawn point and keep their inventory.
func (s *ActionSystem) onDeath(id ecs.EntityID) {
	comps := s.worldState.Comps

	if tag, ok := comps.PlayerTag.Get(id); ok {
		s.respawnPlayer(id, tag.SessionID)
		return
	}

	if pos, ok := comps.Pos.Get(id); ok {
		if named, ok := comps.Named.Get(id); ok {
			s.worldState.SpawnGroundItem(component.ItemStack{
				ItemID: 900,
				Name:   named.Name + " Remains",
				Sprite: 520,
				Count:  1,
			}, pos.X, pos.Y)
		}
	}
	s.worldState.Despawn(id)
}

func (s *ActionSystem) respawnPlayer(id ecs.EntityID, _ uint64) {
	comps := s.worldState.Comps
	hp, ok := comps.Health.Get(id)
	pos, ok2 := comps.Pos.Get(id)
	if !ok || !ok2 {
		return
	}
	hp.Current = hp.Max
	next := s.worldState.NextSpawnPoint()
	pos.Vec2 = next
	s.worldState.Spatial.Upsert(id, next.X, next.Y)
}
