package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/component"
	"github.com/emberwold/server/internal/core/event"
	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/world"
)

// InputSystem drains packet queues from all sessions and dispatches them
// through the packet registry. Phase 0 (Input).
type InputSystem struct {
	netServer  *net.Server
	registry   *packet.Registry
	store      *net.SessionStore
	players    *session.Registry
	worldState *world.State
	maxPerTick int
	log        *zap.Logger
}

func NewInputSystem(
	netServer *net.Server,
	registry *packet.Registry,
	store *net.SessionStore,
	players *session.Registry,
	worldState *world.State,
	maxPerTick int,
	log *zap.Logger,
) *InputSystem {
	return &InputSystem{
		netServer:  netServer,
		registry:   registry,
		store:      store,
		players:    players,
		worldState: worldState,
		maxPerTick: maxPerTick,
		log:        log,
	}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(_ time.Duration) {
	// Accept new sessions
	for {
		select {
		case sess := <-s.netServer.NewSessions():
			s.store.Add(sess)
		default:
			goto doneNew
		}
	}
doneNew:

	// Process dead sessions
	for {
		select {
		case id := <-s.netServer.DeadSessions():
			s.store.Remove(id)
		default:
			goto doneDead
		}
	}
doneDead:

	// Drain packets from each session (up to maxPerTick per session)
	for id, sess := range s.store.Raw() {
		if sess.IsClosed() {
			// Drain remaining packets before cleanup so a final input sent
			// just before the close is not lost.
			s.drainQueue(sess)
			s.handleDisconnect(sess)
			s.netServer.NotifyDead(id)
			s.store.Remove(id)
			continue
		}
		s.drainQueue(sess)
	}
}

func (s *InputSystem) drainQueue(sess *net.Session) {
	for i := 0; i < s.maxPerTick; i++ {
		select {
		case data := <-sess.InQueue:
			if err := s.registry.Dispatch(sess, sess.State(), data); err != nil {
				s.log.Debug("封包分派錯誤",
					zap.Uint64("session", sess.ID),
					zap.Error(err),
				)
			}
		default:
			return
		}
	}
}

// handleDisconnect moves the player into the grace window: the entity stays
// in the world, stops moving, and waits for either a rebind or expiry.
// A session the server ejected also journals the kick and its reason.
func (s *InputSystem) handleDisconnect(sess *net.Session) {
	if sess.KickReason != "" {
		event.Emit(s.worldState.Bus, event.ClientKicked{
			SessionID: sess.ID,
			Reason:    sess.KickReason,
		})
		s.log.Warn("會話遭強制斷線",
			zap.Uint64("session", sess.ID),
			zap.String("reason", sess.KickReason),
		)
	}

	p := s.players.Disconnect(sess.ID)
	if p == nil {
		return
	}

	if vel, ok := s.worldState.Comps.Vel.Get(p.Entity); ok {
		*vel = component.Velocity{}
	}

	event.Emit(s.worldState.Bus, event.PlayerDisconnected{
		EntityID:  p.Entity,
		Name:      p.Name,
		SessionID: sess.ID,
	})

	s.log.Info("玩家斷線，進入寬限期",
		zap.String("name", p.Name),
		zap.Uint64("session", sess.ID),
	)
}
