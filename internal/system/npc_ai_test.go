package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/scripting"
)

func TestNpcWanderDecision(t *testing.T) {
	f := newFixture(t)
	engine, err := scripting.NewEngine("../../scripts", zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(engine.Close)
	sys := NewNpcAISystem(f.world, engine, 60)

	deer := f.world.SpawnNpc(deerTemplate(20), 64, 64)
	sys.Update(time.Second / 60)

	// Seed 1's first roll is above the idle threshold, so the deer walks.
	vel, _ := f.world.Comps.Vel.Get(deer)
	brain, _ := f.world.Comps.Brain.Get(deer)
	if vel.DX == 0 && vel.DY == 0 {
		t.Fatalf("deer did not move: vel = %+v", vel)
	}
	if brain.MoveFor != 30 {
		t.Fatalf("move ticks = %d, want half a second", brain.MoveFor)
	}
	if brain.ThinkIn <= 0 {
		t.Fatalf("no think delay scheduled: %d", brain.ThinkIn)
	}
}

func TestNpcWanderStepCountsDown(t *testing.T) {
	f := newFixture(t)
	engine, err := scripting.NewEngine("../../scripts", zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(engine.Close)
	sys := NewNpcAISystem(f.world, engine, 60)

	deer := f.world.SpawnNpc(deerTemplate(20), 64, 64)
	sys.Update(time.Second / 60)

	brain, _ := f.world.Comps.Brain.Get(deer)
	steps := brain.MoveFor
	for i := 0; i < steps; i++ {
		sys.Update(time.Second / 60)
	}

	vel, _ := f.world.Comps.Vel.Get(deer)
	if vel.DX != 0 || vel.DY != 0 {
		t.Fatalf("velocity not zeroed after wander step: %+v", vel)
	}
	if brain.MoveFor != 0 {
		t.Fatalf("move ticks = %d after countdown", brain.MoveFor)
	}
	if brain.ThinkIn <= 0 {
		t.Fatalf("think delay = %d, want pending idle", brain.ThinkIn)
	}
}

func TestNpcFallbackIdles(t *testing.T) {
	f := newFixture(t)
	sys := NewNpcAISystem(f.world, f.engine, 60)

	deer := f.world.SpawnNpc(deerTemplate(20), 64, 64)
	sys.Update(time.Second / 60)

	vel, _ := f.world.Comps.Vel.Get(deer)
	brain, _ := f.world.Comps.Brain.Get(deer)
	if vel.DX != 0 || vel.DY != 0 {
		t.Fatalf("fallback engine moved the deer: %+v", vel)
	}
	if brain.ThinkIn != 60 {
		t.Fatalf("fallback idle = %d ticks, want one second", brain.ThinkIn)
	}
}
