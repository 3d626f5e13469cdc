// Package session tracks the lifecycle of player sessions independently of
// their network connections: Joining, Active, Disconnected (grace window),
// and Removed. A player who reconnects inside the grace window rebinds to
// the same entity; one who does not is removed from the world.
package session

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwold/server/internal/core/ecs"
	"github.com/emberwold/server/internal/gamemap"
	"github.com/emberwold/server/internal/net"
	"github.com/emberwold/server/internal/replication"
)

// Phase is the lifecycle phase of a player session.
type Phase uint8

const (
	PhaseJoining Phase = iota
	PhaseActive
	PhaseDisconnected
)

func (p Phase) String() string {
	switch p {
	case PhaseJoining:
		return "Joining"
	case PhaseActive:
		return "Active"
	case PhaseDisconnected:
		return "Disconnected"
	default:
		return "Unknown"
	}
}

// MoveIntent is the last-write-wins movement slot. Each admitted input packet
// overwrites it whole; the movement system consumes it every tick.
type MoveIntent struct {
	X, Y      float64
	Sequence  uint32
	Timestamp uint64 // client milliseconds, echoed back for reconciliation
}

// ActionIntent is one queued discrete command.
type ActionIntent struct {
	Kind     uint8
	TargetX  float64
	TargetY  float64
	Sequence uint32
}

// Player is the per-player server-side record. All fields are owned by the
// game loop goroutine.
type Player struct {
	Net      *net.Session // nil while Disconnected
	Name     string       // display form
	NameKey  string       // normalized form, identity for rebinding
	Entity   ecs.EntityID
	Phase    Phase
	GraceEnd time.Time // valid while Disconnected

	// Replication state
	NeedsSnapshot bool
	DeltaSeq      uint32
	Cursor        replication.Cursor
	ChunkWindow   map[gamemap.Coord]struct{}

	// Input admission state
	Move       MoveIntent
	HasMove    bool
	Actions    []ActionIntent
	maxActions int
}

// PushAction appends a discrete command, dropping it silently when the queue
// is at capacity.
func (p *Player) PushAction(a ActionIntent) bool {
	if len(p.Actions) >= p.maxActions {
		return false
	}
	p.Actions = append(p.Actions, a)
	return true
}

// Registry owns all player records, keyed both by live network session ID
// and by normalized name. Game loop goroutine only.
type Registry struct {
	byConn map[uint64]*Player // net session ID → player (connected only)
	byName map[string]*Player // NameKey → player (all phases)

	grace      time.Duration
	maxActions int
	now        func() time.Time
	log        *zap.Logger
}

func NewRegistry(grace time.Duration, maxActions int, log *zap.Logger) *Registry {
	return &Registry{
		byConn:     make(map[uint64]*Player),
		byName:     make(map[string]*Player),
		grace:      grace,
		maxActions: maxActions,
		now:        time.Now,
		log:        log,
	}
}

// SetClock replaces the registry clock, for deterministic grace-window tests.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// Lookup returns the player bound to a live network session.
func (r *Registry) Lookup(connID uint64) *Player {
	return r.byConn[connID]
}

// LookupName returns the player with the given normalized name, any phase.
func (r *Registry) LookupName(nameKey string) *Player {
	return r.byName[nameKey]
}

// Join creates a new Active player bound to conn. The caller has already
// validated the name and spawned the entity.
func (r *Registry) Join(conn *net.Session, name, nameKey string, entity ecs.EntityID) *Player {
	p := &Player{
		Net:           conn,
		Name:          name,
		NameKey:       nameKey,
		Entity:        entity,
		Phase:         PhaseActive,
		NeedsSnapshot: true,
		Cursor:        make(replication.Cursor),
		ChunkWindow:   make(map[gamemap.Coord]struct{}),
		maxActions:    r.maxActions,
	}
	r.byConn[conn.ID] = p
	r.byName[nameKey] = p
	return p
}

// Rebind reattaches a Disconnected player to a new connection inside the
// grace window. The entity is untouched; replication restarts from a fresh
// snapshot because the old connection's view is gone with it.
func (r *Registry) Rebind(conn *net.Session, p *Player) {
	p.Net = conn
	p.Phase = PhaseActive
	p.GraceEnd = time.Time{}
	p.NeedsSnapshot = true
	p.Cursor = make(replication.Cursor)
	p.ChunkWindow = make(map[gamemap.Coord]struct{})
	p.HasMove = false
	p.Actions = p.Actions[:0]
	r.byConn[conn.ID] = p
	r.log.Info("玩家重新連線", zap.String("name", p.Name), zap.Uint64("session", conn.ID))
}

// Disconnect moves a connected player into the grace window. The entity
// stays in the world, velocity is expected to be zeroed by the caller.
func (r *Registry) Disconnect(connID uint64) *Player {
	p := r.byConn[connID]
	if p == nil {
		return nil
	}
	delete(r.byConn, connID)
	p.Net = nil
	p.Phase = PhaseDisconnected
	p.GraceEnd = r.now().Add(r.grace)
	p.HasMove = false
	p.Actions = p.Actions[:0]
	return p
}

// TickExpired returns the players whose grace window has elapsed and removes
// them from the registry. A player is expired only strictly after GraceEnd.
func (r *Registry) TickExpired() []*Player {
	now := r.now()
	var expired []*Player
	for key, p := range r.byName {
		if p.Phase != PhaseDisconnected {
			continue
		}
		if now.After(p.GraceEnd) {
			expired = append(expired, p)
			delete(r.byName, key)
		}
	}
	return expired
}

// Remove drops a player outright (kick, shutdown). Safe on any phase.
func (r *Registry) Remove(p *Player) {
	if p.Net != nil {
		delete(r.byConn, p.Net.ID)
	}
	delete(r.byName, p.NameKey)
}

// Connected iterates players currently bound to a live connection.
func (r *Registry) Connected(fn func(*Player)) {
	for _, p := range r.byConn {
		fn(p)
	}
}

// All iterates every player regardless of phase.
func (r *Registry) All(fn func(*Player)) {
	for _, p := range r.byName {
		fn(p)
	}
}

// Count returns the number of players in any phase.
func (r *Registry) Count() int { return len(r.byName) }

// ConnectedCount returns the number of players with live connections.
func (r *Registry) ConnectedCount() int { return len(r.byConn) }
