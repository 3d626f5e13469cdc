package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/data"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/session"
)

func testTerrainTable() *data.TerrainTable {
	return &data.TerrainTable{
		Terrain:  []data.TerrainType{{ID: 0, Name: "grass", Walkable: true}},
		Features: []data.FeatureType{{ID: 100, Name: "oak", BlocksMovement: true}},
	}
}

func newReplication(f *fixture) *ReplicationSystem {
	return NewReplicationSystem(f.world, f.players, testTerrainTable(), f.cfg, zap.NewNop())
}

// nextFrame flushes the session and pops one wire frame, or fails.
func nextFrame(t *testing.T, sess *net.Session) *packet.Reader {
	t.Helper()
	sess.FlushOutput()
	select {
	case frame := <-sess.OutQueue:
		return packet.NewReader(frame)
	default:
		t.Fatalf("no frame queued")
		return nil
	}
}

func noFrame(t *testing.T, sess *net.Session) {
	t.Helper()
	sess.FlushOutput()
	select {
	case frame := <-sess.OutQueue:
		t.Fatalf("unexpected frame 0x%02X", frame[0])
	default:
	}
}

func TestFirstTickSendsSnapshot(t *testing.T) {
	f := newFixture(t)
	sys := newReplication(f)
	sess := &net.Session{ID: 1, OutQueue: make(chan []byte, 16)}
	p := f.join(sess, "Ash", "ash")
	f.place(p, 1536, 1536)
	deer := f.world.SpawnNpc(deerTemplate(20), 49, 48)

	sys.Update(time.Second / 60)

	r := nextFrame(t, sess)
	if r.Opcode() != packet.S_OPCODE_SNAPSHOT {
		t.Fatalf("opcode = 0x%02X, want snapshot", r.Opcode())
	}
	snap := packet.ReadSnapshot(r)
	if r.Truncated() {
		t.Fatalf("snapshot frame truncated")
	}
	if snap.MapID != f.cfg.Map.ID || snap.PlayerEntityID != uint64(p.Entity) {
		t.Fatalf("snapshot header = %q / entity %d", snap.MapID, snap.PlayerEntityID)
	}
	if len(snap.Chunks) != 9 {
		t.Fatalf("snapshot chunks = %d, want full 3×3 window", len(snap.Chunks))
	}
	if len(snap.Entities) != 2 {
		t.Fatalf("snapshot entities = %d, want player and deer", len(snap.Entities))
	}
	seen := map[uint64]bool{}
	for _, e := range snap.Entities {
		seen[e.ID] = true
	}
	if !seen[uint64(p.Entity)] || !seen[uint64(deer)] {
		t.Fatalf("snapshot missing entities: %v", seen)
	}

	if p.NeedsSnapshot || p.DeltaSeq != 0 || len(p.ChunkWindow) != 9 {
		t.Fatalf("session after snapshot: needs=%v seq=%d window=%d",
			p.NeedsSnapshot, p.DeltaSeq, len(p.ChunkWindow))
	}
}

func TestQuiescentTickSendsNothing(t *testing.T) {
	f := newFixture(t)
	sys := newReplication(f)
	sess := &net.Session{ID: 1, OutQueue: make(chan []byte, 16)}
	p := f.join(sess, "Ash", "ash")
	f.place(p, 1536, 1536)

	sys.Update(time.Second / 60)
	nextFrame(t, sess) // snapshot

	sys.Update(time.Second / 60)
	noFrame(t, sess)
	if p.DeltaSeq != 0 {
		t.Fatalf("empty tick bumped sequence to %d", p.DeltaSeq)
	}
}

func TestMovementProducesNumberedDelta(t *testing.T) {
	f := newFixture(t)
	sys := newReplication(f)
	sess := &net.Session{ID: 1, OutQueue: make(chan []byte, 16)}
	p := f.join(sess, "Ash", "ash")
	f.place(p, 1536, 1536)

	sys.Update(time.Second / 60)
	nextFrame(t, sess) // snapshot

	p.Move = session.MoveIntent{Sequence: 7, Timestamp: 123456, X: 1}
	f.place(p, 1540, 1536)
	sys.Update(time.Second / 60)

	r := nextFrame(t, sess)
	if r.Opcode() != packet.S_OPCODE_DELTA {
		t.Fatalf("opcode = 0x%02X, want delta", r.Opcode())
	}
	d := packet.ReadDelta(r)
	if r.Truncated() {
		t.Fatalf("delta frame truncated")
	}
	if d.Sequence != 1 || d.AckSequence != 7 || d.AckTimestamp != 123456 {
		t.Fatalf("delta header = %+v", d)
	}
	if len(d.Spawned) != 0 || len(d.Despawned) != 0 || len(d.Updated) != 1 {
		t.Fatalf("delta lists = %d/%d/%d", len(d.Spawned), len(d.Updated), len(d.Despawned))
	}
	if d.Updated[0].ID != uint64(p.Entity) || d.Updated[0].X != 1540 {
		t.Fatalf("updated record = %+v", d.Updated[0])
	}
}

func TestDespawnReachesObserver(t *testing.T) {
	f := newFixture(t)
	sys := newReplication(f)
	sess := &net.Session{ID: 1, OutQueue: make(chan []byte, 16)}
	p := f.join(sess, "Ash", "ash")
	f.place(p, 1536, 1536)
	deer := f.world.SpawnNpc(deerTemplate(20), 49, 48)

	sys.Update(time.Second / 60)
	nextFrame(t, sess)

	f.world.Despawn(deer)
	sys.Update(time.Second / 60)

	d := packet.ReadDelta(nextFrame(t, sess))
	if len(d.Despawned) != 1 || d.Despawned[0] != uint64(deer) {
		t.Fatalf("despawn list = %v", d.Despawned)
	}
}

func TestRebindRestartsFromSnapshot(t *testing.T) {
	f := newFixture(t)
	sys := newReplication(f)
	sess := &net.Session{ID: 1, OutQueue: make(chan []byte, 16)}
	p := f.join(sess, "Ash", "ash")
	f.place(p, 1536, 1536)

	sys.Update(time.Second / 60)
	nextFrame(t, sess)

	f.players.Disconnect(1)
	sess2 := &net.Session{ID: 2, OutQueue: make(chan []byte, 16)}
	f.players.Rebind(sess2, p)

	sys.Update(time.Second / 60)
	r := nextFrame(t, sess2)
	if r.Opcode() != packet.S_OPCODE_SNAPSHOT {
		t.Fatalf("rebind got 0x%02X, want fresh snapshot", r.Opcode())
	}
}

func TestChunkStreamFollowsWindow(t *testing.T) {
	f := newFixture(t)
	repl := newReplication(f)
	stream := NewChunkStreamSystem(f.world, f.players, zap.NewNop())
	sess := &net.Session{ID: 1, OutQueue: make(chan []byte, 16)}
	p := f.join(sess, "Ash", "ash")
	f.place(p, 1536, 1536) // chunk (1,1), interior window

	repl.Update(time.Second / 60)
	nextFrame(t, sess)

	stream.Update(time.Second / 60)
	noFrame(t, sess) // window unchanged

	f.place(p, 2560, 1536) // chunk (2,1): one column east
	stream.Update(time.Second / 60)

	r := nextFrame(t, sess)
	if r.Opcode() != packet.S_OPCODE_CHUNKS_LOADED {
		t.Fatalf("first frame = 0x%02X, want loads", r.Opcode())
	}
	n := int(r.ReadH())
	loaded := make([]gamemap.Coord, 0, n)
	for i := 0; i < n; i++ {
		loaded = append(loaded, packet.ReadChunk(r).Coord)
	}
	if len(loaded) != 3 {
		t.Fatalf("loaded %d chunks, want eastern column of 3", len(loaded))
	}
	for _, c := range loaded {
		if c.CX != 3 {
			t.Fatalf("loaded unexpected chunk %+v", c)
		}
	}

	r = nextFrame(t, sess)
	if r.Opcode() != packet.S_OPCODE_CHUNKS_UNLOADED {
		t.Fatalf("second frame = 0x%02X, want unloads", r.Opcode())
	}
	n = int(r.ReadH())
	if n != 3 {
		t.Fatalf("unloaded %d chunks, want western column of 3", n)
	}
	for i := 0; i < n; i++ {
		if cx := r.ReadD(); cx != 0 {
			t.Fatalf("unloaded CX = %d, want 0", cx)
		}
		r.ReadD() // CY
	}

	if len(p.ChunkWindow) != 9 {
		t.Fatalf("window size = %d after stream", len(p.ChunkWindow))
	}
}

func TestDroppedFlushForcesSnapshotResend(t *testing.T) {
	f := newFixture(t)
	rep := newReplication(f)
	store := net.NewSessionStore()
	out := NewOutputSystem(store, f.players, zap.NewNop())
	tick := time.Second / 60

	// Unbuffered queue with no reader: every flush drops.
	sess := &net.Session{ID: 4, OutQueue: make(chan []byte)}
	store.Add(sess)
	p := f.join(sess, "Moss", "moss")
	f.place(p, 1536, 1536)

	rep.Update(tick)
	out.Update(tick)
	if !p.NeedsSnapshot {
		t.Fatalf("dropped flush must schedule a fresh snapshot")
	}

	// The consumer catches up. Even with the world unchanged — a delta would
	// be empty and the cursor already sits past the lost frame — the next
	// tick re-sends a full snapshot so the client can restart its sequence.
	sess.OutQueue = make(chan []byte, 16)
	rep.Update(tick)
	r := nextFrame(t, sess)
	if r.Opcode() != packet.S_OPCODE_SNAPSHOT {
		t.Fatalf("opcode = 0x%02X, want snapshot after drop", r.Opcode())
	}
	if p.NeedsSnapshot || p.DeltaSeq != 0 {
		t.Fatalf("post-resend state = %v/%d", p.NeedsSnapshot, p.DeltaSeq)
	}
}
