package event

import "github.com/emberwold/server/internal/core/ecs"

// Session lifecycle events consumed by the journal system.

type PlayerJoined struct {
	EntityID ecs.EntityID
	Name     string
	Rejoin   bool // reconnection within the grace window
}

type PlayerDisconnected struct {
	EntityID  ecs.EntityID
	Name      string
	SessionID uint64
}

type SessionRemoved struct {
	EntityID ecs.EntityID
	Name     string
	X, Y     float64
}

type ClientKicked struct {
	SessionID uint64
	Reason    string
}

type EntityDespawned struct {
	EntityID ecs.EntityID
}
