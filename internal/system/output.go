package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/session"
)

// OutputSystem flushes every session's buffered packets onto its write queue.
// Phase 4 (Output). A session whose queue is full loses the rest of this
// tick's packets; the owning player is then flagged for a fresh snapshot,
// since the replication cursor has already moved past the lost delta and the
// client's sequence gate would reject everything after the gap.
type OutputSystem struct {
	store   *net.SessionStore
	players *session.Registry
	log     *zap.Logger
}

func NewOutputSystem(store *net.SessionStore, players *session.Registry, log *zap.Logger) *OutputSystem {
	return &OutputSystem{store: store, players: players, log: log}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	s.store.ForEach(func(sess *net.Session) {
		dropped := sess.FlushOutput()
		if dropped == 0 {
			return
		}
		s.log.Warn("輸出佇列已滿，丟棄本回合封包",
			zap.Uint64("session", sess.ID),
			zap.Int("dropped", dropped),
		)
		if p := s.players.Lookup(sess.ID); p != nil {
			p.NeedsSnapshot = true
		}
	})
}
