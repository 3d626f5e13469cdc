package system

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/core/event"
	"github.com/emberwold/server/internal/net"
)

func TestEventBusDeliversOncePerTick(t *testing.T) {
	bus := event.NewBus()
	sys := NewEventSystem(bus)

	var got []string
	event.Subscribe(bus, func(e event.PlayerJoined) {
		got = append(got, e.Name)
	})

	event.Emit(bus, event.PlayerJoined{Name: "Ash"})
	if len(got) != 0 {
		t.Fatalf("event delivered before the tick boundary")
	}

	sys.Update(time.Second / 60)
	if len(got) != 1 || got[0] != "Ash" {
		t.Fatalf("delivered = %v", got)
	}

	sys.Update(time.Second / 60)
	if len(got) != 1 {
		t.Fatalf("event redelivered: %v", got)
	}
}

func TestJournalCollectsLifecycleEvents(t *testing.T) {
	bus := event.NewBus()
	events := NewEventSystem(bus)
	journal := NewJournalSystem(bus, nil)

	event.Emit(bus, event.PlayerJoined{Name: "Ash"})
	event.Emit(bus, event.PlayerJoined{Name: "Bryn", Rejoin: true})
	event.Emit(bus, event.PlayerDisconnected{Name: "Cole", SessionID: 3})
	event.Emit(bus, event.SessionRemoved{Name: "Dale", X: 100, Y: 200})
	event.Emit(bus, event.ClientKicked{SessionID: 9, Reason: "flood"})
	events.Update(time.Second / 60)

	if len(journal.pending) != 5 {
		t.Fatalf("journal rows = %d, want 5", len(journal.pending))
	}
	kinds := map[string]int{}
	for _, e := range journal.pending {
		kinds[e.Event]++
	}
	if kinds["join"] != 1 || kinds["rejoin"] != 1 || kinds["disconnect"] != 1 ||
		kinds["removed"] != 1 || kinds["kicked"] != 1 {
		t.Fatalf("journal kinds = %v", kinds)
	}
	if len(journal.archive) != 1 || journal.archive[0].CharName != "Dale" ||
		journal.archive[0].X != 100 {
		t.Fatalf("archive = %+v", journal.archive)
	}

	// A nil writer drains the buffers without touching a database.
	journal.Update(time.Second / 60)
	if len(journal.pending) != 0 || len(journal.archive) != 0 {
		t.Fatalf("buffers not drained: %d/%d", len(journal.pending), len(journal.archive))
	}
}

func TestOutputFlushesEverySession(t *testing.T) {
	f := newFixture(t)
	store := net.NewSessionStore()
	sys := NewOutputSystem(store, f.players, zap.NewNop())

	a := &net.Session{ID: 1, OutQueue: make(chan []byte, 4)}
	b := &net.Session{ID: 2, OutQueue: make(chan []byte, 4)}
	store.Add(a)
	store.Add(b)

	a.Send([]byte{0x01})
	a.Send([]byte{0x02})
	b.Send([]byte{0x03})
	sys.Update(time.Second / 60)

	if len(a.OutQueue) != 2 || len(b.OutQueue) != 1 {
		t.Fatalf("queued = %d/%d, want 2/1", len(a.OutQueue), len(b.OutQueue))
	}
}
