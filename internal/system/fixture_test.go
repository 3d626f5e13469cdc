package system

import (
	"testing"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/config"
	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/core/event"
	"github.com/emberwold/server/internal/data"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/scripting"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/sim"
	"github.com/emberwold/server/internal/world"
)

// fixture wires a 128×128 all-walkable world, an empty-script engine (every
// formula on its Go fallback) and a registry, so systems run exactly as they
// do in the game loop but with deterministic inputs.
type fixture struct {
	cfg     *config.Config
	world   *world.State
	players *session.Registry
	bus     *event.Bus
	engine  *scripting.Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Defaults()
	producer := gamemap.NewSeededProducer(1, []uint16{0}, nil)
	terrain := gamemap.NewTerrain(producer, 128, 128, map[uint16]bool{0: true}, nil)
	bus := event.NewBus()
	ws := world.NewState(terrain, bus, 1, zap.NewNop())
	engine, err := scripting.NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(engine.Close)
	return &fixture{
		cfg:     cfg,
		world:   ws,
		players: session.NewRegistry(cfg.Game.DisconnectGrace, cfg.Game.ActionQueueDepth, zap.NewNop()),
		bus:     bus,
		engine:  engine,
	}
}

func (f *fixture) join(sess *net.Session, name, key string) *session.Player {
	ent := f.world.SpawnPlayer(world.BuildSheet(name, 0, 0, f.cfg.Game.MoveSpeed), sess.ID)
	return f.players.Join(sess, name, key, ent)
}

// place moves a player's entity to an exact position, index included.
func (f *fixture) place(p *session.Player, x, y float64) {
	pos, ok := f.world.Comps.Pos.Get(p.Entity)
	if !ok {
		panic("player without position")
	}
	pos.Vec2 = sim.Vec2{X: x, Y: y}
	f.world.Spatial.Upsert(p.Entity, x, y)
}

func containsID(ids []ecs.EntityID, id ecs.EntityID) bool {
	for _, got := range ids {
		if got == id {
			return true
		}
	}
	return false
}

func deerTemplate(maxHP int32) *data.NpcTemplate {
	return &data.NpcTemplate{
		ID: 1, Name: "Vale Deer", SpriteID: 200, MaxHP: maxHP, Speed: 120,
		Str: 4, Dex: 12, Con: 8, Int: 2, Wis: 8, Cha: 4,
	}
}
