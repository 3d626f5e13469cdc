package ecs

// Each3 visits every entity carrying all three components. The A store drives
// the loop, so callers pass their sparsest component first.
func Each3[A, B, C any](as *Store[A], bs *Store[B], cs *Store[C], fn func(EntityID, *A, *B, *C)) {
	for id, a := range as.data {
		b, ok := bs.data[id]
		if !ok {
			continue
		}
		c, ok := cs.data[id]
		if !ok {
			continue
		}
		fn(id, a, b, c)
	}
}
