package handler

import (
	"go.uber.org/zap"

	"github.com/emberwold/server/internal/config"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/world"
)

// Deps holds shared dependencies injected into all packet handlers.
type Deps struct {
	Config  *config.Config
	Log     *zap.Logger
	World   *world.State
	Players *session.Registry
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	reg.Register(packet.C_OPCODE_JOIN,
		[]packet.SessionState{packet.StateConnected},
		func(sess any, r *packet.Reader) {
			HandleJoin(sess.(*net.Session), r, deps)
		},
	)

	inWorld := []packet.SessionState{packet.StateInWorld}

	reg.Register(packet.C_OPCODE_INPUT, inWorld,
		func(sess any, r *packet.Reader) {
			HandleInput(sess.(*net.Session), r, deps)
		},
	)
	reg.Register(packet.C_OPCODE_PING,
		[]packet.SessionState{packet.StateConnected, packet.StateInWorld},
		func(sess any, r *packet.Reader) {
			HandlePing(sess.(*net.Session), r, deps)
		},
	)
}
