package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: accept/drop connections, drain message queues
	PhasePreUpdate               // 1: deliver last tick's events
	PhaseUpdate                  // 2: movement, actions, AI
	PhasePostUpdate              // 3: session lifecycle, chunk streaming, replication
	PhaseOutput                  // 4: flush per-session output buffers
	PhasePersist                 // 5: journal hand-off
	PhaseCleanup                 // 6: destroy queued entities
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
