package handler

import (
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/net/packet"
)

// HandlePing echoes the client timestamp back for RTT measurement.
func HandlePing(sess *net.Session, r *packet.Reader, deps *Deps) {
	ts := r.ReadQ()
	if r.Truncated() {
		return
	}
	sess.Send(packet.WritePong(ts))
}
