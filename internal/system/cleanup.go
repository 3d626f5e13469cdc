package system

import (
	"time"

	coresys "github.com/emberwold/server/internal/core/system"
	"github.com/emberwold/server/internal/world"
)

// CleanupSystem flushes the deferred destroy queue at the end of the tick.
// Phase 6 (Cleanup). Component data of despawned entities stays readable
// until this point so replication can still emit their final despawn.
type CleanupSystem struct {
	worldState *world.State
}

func NewCleanupSystem(worldState *world.State) *CleanupSystem {
	return &CleanupSystem{worldState: worldState}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	s.worldState.ECS.FlushDestroyQueue()
}
