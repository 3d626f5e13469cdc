package scripting

import (
	"testing"

	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine("../../scripts", zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	t.Cleanup(e.Close)
	return e
}

func TestCalcAttackFormula(t *testing.T) {
	e := newTestEngine(t)

	cases := []struct {
		str, dex, con int
		want          int32
	}{
		{12, 8, 10, 8},
		{15, 10, 14, 8},
		{30, 16, 6, 15},
		{1, 1, 30, 1}, // floor of 1 even when soak exceeds the attack
	}
	for _, tc := range cases {
		got := e.CalcAttack(AttackContext{
			AttackerStr: tc.str, AttackerDex: tc.dex, TargetCon: tc.con,
		})
		if got.Damage != tc.want {
			t.Fatalf("CalcAttack(str=%d dex=%d con=%d) = %d, want %d",
				tc.str, tc.dex, tc.con, got.Damage, tc.want)
		}
	}
}

func TestWanderLowRollIdles(t *testing.T) {
	e := newTestEngine(t)

	cmd := e.WanderStep(WanderContext{HomeDist: 0, Roll: 0.2, TickRate: 60})
	if cmd.MoveX != 0 || cmd.MoveY != 0 || cmd.MoveTicks != 0 {
		t.Fatalf("low roll moved: %+v", cmd)
	}
	if cmd.IdleTicks != 120 {
		t.Fatalf("idle ticks = %d, want 120", cmd.IdleTicks)
	}
}

func TestWanderHighRollWalks(t *testing.T) {
	e := newTestEngine(t)

	cmd := e.WanderStep(WanderContext{HomeDist: 0, Roll: 0.5, TickRate: 60})
	if cmd.MoveX != 0.7071 || cmd.MoveY != 0.7071 {
		t.Fatalf("direction = (%v,%v)", cmd.MoveX, cmd.MoveY)
	}
	if cmd.MoveTicks != 30 {
		t.Fatalf("move ticks = %d, want 30", cmd.MoveTicks)
	}
	if cmd.IdleTicks != 120 {
		t.Fatalf("idle ticks = %d, want 120", cmd.IdleTicks)
	}
}

func TestWanderLeashLengthensStep(t *testing.T) {
	e := newTestEngine(t)

	cmd := e.WanderStep(WanderContext{HomeDist: 200, Roll: 0.5, TickRate: 60})
	if cmd.MoveTicks != 60 {
		t.Fatalf("leashed move ticks = %d, want 60", cmd.MoveTicks)
	}
}

func TestMissingScriptsFallBack(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewEngine on empty dir: %v", err)
	}
	defer e.Close()

	cmd := e.WanderStep(WanderContext{Roll: 0.9, TickRate: 60})
	if cmd.MoveTicks != 0 || cmd.IdleTicks != 60 {
		t.Fatalf("fallback wander = %+v", cmd)
	}
	atk := e.CalcAttack(AttackContext{AttackerStr: 30})
	if atk.Damage != 1 {
		t.Fatalf("fallback damage = %d, want 1", atk.Damage)
	}
}
