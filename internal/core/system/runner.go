package system

import (
	"sort"
	"time"
)

// Runner drives one tick: every registered system runs once, ordered by
// phase. Registration order breaks ties within a phase, so two systems in
// the same phase run in the order main wired them.
type Runner struct {
	systems []System
	ordered bool
}

func NewRunner() *Runner {
	return &Runner{systems: make([]System, 0, 16)}
}

func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.ordered = false
}

func (r *Runner) Tick(dt time.Duration) {
	if !r.ordered {
		sort.SliceStable(r.systems, func(i, j int) bool {
			return r.systems[i].Phase() < r.systems[j].Phase()
		})
		r.ordered = true
	}
	for _, s := range r.systems {
		s.Update(dt)
	}
}
