// Package component defines the entity components of the Emberwold world and
// bundles their stores for registration with the ECS registry.
package component

import (
	"time"

	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/sim"
)

// Position is the authoritative pixel position of an entity.
type Position struct {
	sim.Vec2
}

// Velocity in pixels per second.
type Velocity struct {
	DX float64
	DY float64
}

type Health struct {
	Current int32
	Max     int32
}

// Stats are the six ability scores, transmitted as 6 bytes on the wire.
type Stats struct {
	Str uint8
	Dex uint8
	Con uint8
	Int uint8
	Wis uint8
	Cha uint8
}

type Named struct {
	Name string
}

type Sprite struct {
	ID uint16
}

// Actor marks an entity that moves under its own power.
type Actor struct {
	Speed float64 // pixels per second
}

// Cooldowns gate action commands. A command arriving before its deadline is
// dropped without advancing the deadline.
type Cooldowns struct {
	AttackUntil   time.Time
	InteractUntil time.Time
}

// Brain is the wander-AI state for NPCs. HomeX/HomeY anchor the wander area;
// ThinkIn counts down ticks until the next scripted decision.
type Brain struct {
	HomeX   float64
	HomeY   float64
	ThinkIn int
	MoveFor int // ticks remaining on the current wander step
}

type ItemStack struct {
	ItemID uint16
	Name   string
	Sprite uint16
	Count  int32
}

type Inventory struct {
	Slots []ItemStack
}

// PlayerTag links an entity back to the owning session record.
type PlayerTag struct {
	SessionID uint64
}

// Set bundles every component store. All stores are registered with the ECS
// registry so destroying an entity clears it everywhere.
type Set struct {
	Pos       *ecs.Store[Position]
	Vel       *ecs.Store[Velocity]
	Health    *ecs.Store[Health]
	Stats     *ecs.Store[Stats]
	Named     *ecs.Store[Named]
	Sprite    *ecs.Store[Sprite]
	Actor     *ecs.Store[Actor]
	Cooldowns *ecs.Store[Cooldowns]
	Brain     *ecs.Store[Brain]
	ItemStack *ecs.Store[ItemStack]
	Inventory *ecs.Store[Inventory]
	PlayerTag *ecs.Store[PlayerTag]
}

func NewSet(reg *ecs.Registry) *Set {
	s := &Set{
		Pos:       ecs.NewStore[Position](),
		Vel:       ecs.NewStore[Velocity](),
		Health:    ecs.NewStore[Health](),
		Stats:     ecs.NewStore[Stats](),
		Named:     ecs.NewStore[Named](),
		Sprite:    ecs.NewStore[Sprite](),
		Actor:     ecs.NewStore[Actor](),
		Cooldowns: ecs.NewStore[Cooldowns](),
		Brain:     ecs.NewStore[Brain](),
		ItemStack: ecs.NewStore[ItemStack](),
		Inventory: ecs.NewStore[Inventory](),
		PlayerTag: ecs.NewStore[PlayerTag](),
	}
	reg.Register(s.Pos)
	reg.Register(s.Vel)
	reg.Register(s.Health)
	reg.Register(s.Stats)
	reg.Register(s.Named)
	reg.Register(s.Sprite)
	reg.Register(s.Actor)
	reg.Register(s.Cooldowns)
	reg.Register(s.Brain)
	reg.Register(s.ItemStack)
	reg.Register(s.Inventory)
	reg.Register(s.PlayerTag)
	return s
}
