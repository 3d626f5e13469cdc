package handler

import (
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
	"github.com/emberwold/server/internal/session"
)

// HandleInput admits one input packet: the movement vector overwrites the
// session's last-write-wins slot, discrete actions append to the bounded
// queue. Stale sequence numbers are dropped so late-arriving packets never
// roll movement backwards.
func HandleInput(sess *net.Session, r *packet.Reader, deps *Deps) {
	msg := packet.ReadPlayerInput(r)
	if r.Truncated() {
		return
	}

	p := deps.Players.Lookup(sess.ID)
	if p == nil || p.Phase != session.PhaseActive {
		return
	}

	if p.HasMove && msg.Sequence <= p.Move.Sequence {
		return
	}
	p.Move = session.MoveIntent{
		X:         float64(msg.MoveX),
		Y:         float64(msg.MoveY),
		Sequence:  msg.Sequence,
		Timestamp: msg.Timestamp,
	}
	p.HasMove = true

	if msg.Action != packet.ActionNone {
		p.PushAction(session.ActionIntent{
			Kind:     msg.Action,
			TargetX:  float64(msg.TargetX),
			TargetY:  float64(msg.TargetY),
			Sequence: msg.Sequence,
		})
	}
}
