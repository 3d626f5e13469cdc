// Package scripting bridges game formulas and NPC behavior into Lua so they
// can be tuned without recompiling the server.
package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for game logic execution.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"ai", "combat"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// WanderContext holds pre-packed data for one NPC wander decision.
type WanderContext struct {
	HomeDist float64 // distance from home anchor, pixels
	Roll     float64 // [0,1) random from the world RNG, keeps lua deterministic per seed
	TickRate int     // ticks per second
}

// WanderCommand is the decision returned by the Lua wander AI.
type WanderCommand struct {
	MoveX, MoveY float64 // unit-ish direction, {0,0} = stand still
	MoveTicks    int     // how long to hold this direction
	IdleTicks    int     // how long to wait before the next decision
}

// WanderStep calls the Lua npc_wander function. On any script failure the NPC
// simply idles for a second.
func (e *Engine) WanderStep(ctx WanderContext) WanderCommand {
	idle := WanderCommand{IdleTicks: ctx.TickRate}

	fn := e.vm.GetGlobal("npc_wander")
	if fn == lua.LNil {
		e.log.Error("lua function npc_wander not found")
		return idle
	}

	t := e.vm.NewTable()
	t.RawSetString("home_dist", lua.LNumber(ctx.HomeDist))
	t.RawSetString("roll", lua.LNumber(ctx.Roll))
	t.RawSetString("tick_rate", lua.LNumber(ctx.TickRate))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua npc_wander error", zap.Error(err))
		return idle
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua npc_wander returned non-table")
		return idle
	}

	return WanderCommand{
		MoveX:     lFloat(rt, "move_x"),
		MoveY:     lFloat(rt, "move_y"),
		MoveTicks: lInt(rt, "move_ticks"),
		IdleTicks: lInt(rt, "idle_ticks"),
	}
}

// AttackContext holds pre-packed data for a melee attack calculation.
type AttackContext struct {
	AttackerStr int
	AttackerDex int
	TargetCon   int
}

// AttackResult is returned by the Lua attack function.
type AttackResult struct {
	Damage int32
}

// CalcAttack calls the Lua calc_attack function.
func (e *Engine) CalcAttack(ctx AttackContext) AttackResult {
	fn := e.vm.GetGlobal("calc_attack")
	if fn == lua.LNil {
		e.log.Error("lua function calc_attack not found")
		return AttackResult{Damage: 1}
	}

	t := e.vm.NewTable()
	t.RawSetString("attacker_str", lua.LNumber(ctx.AttackerStr))
	t.RawSetString("attacker_dex", lua.LNumber(ctx.AttackerDex))
	t.RawSetString("target_con", lua.LNumber(ctx.TargetCon))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_attack error", zap.Error(err))
		return AttackResult{Damage: 1}
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua calc_attack returned non-table")
		return AttackResult{Damage: 1}
	}

	dmg := int32(lua.LVAsNumber(rt.RawGetString("damage")))
	if dmg < 1 {
		dmg = 1
	}
	return AttackResult{Damage: dmg}
}

// --- Lua helpers ---

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lFloat(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
