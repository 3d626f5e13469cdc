package handler

import (
	"go.uber.org/zap"

	"github.com/emberwold/server/internal/core/event"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/session"
	"github.com/emberwold/server/internal/world"
)

func denyJoin(sess *net.Session, reason string) {
	w := packet.NewWriter(packet.S_OPCODE_JOIN_DENIED)
	w.WriteS(reason)
	sess.Send(w.Bytes())
}

// HandleJoin admits a client into the world: validates the character request,
// then either spawns a fresh entity or rebinds to a disconnected one whose
// grace window is still open.
func HandleJoin(sess *net.Session, r *packet.Reader, deps *Deps) {
	msg := packet.ReadJoin(r)
	if r.Truncated() {
		deps.Log.Debug("JOIN 封包長度不足", zap.Uint64("session", sess.ID))
		return
	}

	if err := world.ValidateName(msg.Name); err != nil {
		denyJoin(sess, err.Error())
		return
	}
	species := world.Species(msg.Species)
	class := world.Class(msg.Class)
	if !species.Valid() || !class.Valid() {
		denyJoin(sess, "invalid species or class")
		return
	}

	nameKey := world.NormalizeName(msg.Name)
	if existing := deps.Players.LookupName(nameKey); existing != nil {
		if existing.Phase == session.PhaseDisconnected {
			deps.Players.Rebind(sess, existing)
			sess.CharName = existing.Name
			sess.SetState(packet.StateInWorld)
			event.Emit(deps.World.Bus, event.PlayerJoined{
				EntityID: existing.Entity,
				Name:     existing.Name,
				Rejoin:   true,
			})
			return
		}
		denyJoin(sess, "name already in use")
		return
	}

	if deps.Players.Count() >= deps.Config.Network.MaxSessions {
		denyJoin(sess, "server full")
		return
	}

	sheet := world.BuildSheet(msg.Name, species, class, deps.Config.Game.MoveSpeed)
	entity := deps.World.SpawnPlayer(sheet, sess.ID)
	p := deps.Players.Join(sess, msg.Name, nameKey, entity)
	sess.CharName = p.Name
	sess.SetState(packet.StateInWorld)

	event.Emit(deps.World.Bus, event.PlayerJoined{
		EntityID: entity,
		Name:     p.Name,
		Rejoin:   false,
	})

	deps.Log.Info("玩家進入世界",
		zap.String("name", p.Name),
		zap.String("species", species.String()),
		zap.String("class", class.String()),
		zap.Uint64("session", sess.ID),
	)
}
