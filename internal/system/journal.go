package system

import (
	"time"

	"github.com/emberwold/server/internal/core/event"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/persist"
)

// JournalSystem turns session lifecycle events into telemetry rows and hands
// them to the background persistence writer. Phase 5 (Persist). With the
// database disabled the system swallows events; gameplay never depends on it.
type JournalSystem struct {
	writer  *persist.Writer // nil when the database is disabled
	pending []persist.JournalEntry
	archive []persist.ArchiveEntry
}

func NewJournalSystem(bus *event.Bus, writer *persist.Writer) *JournalSystem {
	s := &JournalSystem{writer: writer}

	event.Subscribe(bus, func(e event.PlayerJoined) {
		ev := "join"
		if e.Rejoin {
			ev = "rejoin"
		}
		s.pending = append(s.pending, persist.JournalEntry{Event: ev, CharName: e.Name})
	})
	event.Subscribe(bus, func(e event.PlayerDisconnected) {
		s.pending = append(s.pending, persist.JournalEntry{
			Event:     "disconnect",
			CharName:  e.Name,
			SessionID: e.SessionID,
		})
	})
	event.Subscribe(bus, func(e event.SessionRemoved) {
		s.pending = append(s.pending, persist.JournalEntry{Event: "removed", CharName: e.Name})
		s.archive = append(s.archive, persist.ArchiveEntry{CharName: e.Name, X: e.X, Y: e.Y})
	})
	event.Subscribe(bus, func(e event.ClientKicked) {
		s.pending = append(s.pending, persist.JournalEntry{
			Event:     "kicked",
			SessionID: e.SessionID,
			Detail:    e.Reason,
		})
	})

	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) Update(_ time.Duration) {
	if s.writer != nil {
		for _, e := range s.pending {
			s.writer.Record(e)
		}
		for _, e := range s.archive {
			s.writer.RecordArchive(e)
		}
	}
	s.pending = s.pending[:0]
	s.archive = s.archive[:0]
}
