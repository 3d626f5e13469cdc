package ecs

// World ties the entity pool and component registry together and defers
// entity destruction to the end of the tick.
type World struct {
	pool     *EntityPool
	registry *Registry
	doomed   []EntityID
}

func NewWorld() *World {
	return &World{
		pool:     NewEntityPool(),
		registry: NewRegistry(),
		doomed:   make([]EntityID, 0, 64),
	}
}

func (w *World) Pool() *EntityPool   { return w.pool }
func (w *World) Registry() *Registry { return w.registry }

func (w *World) CreateEntity() EntityID {
	return w.pool.Create()
}

func (w *World) Alive(id EntityID) bool {
	return w.pool.Alive(id)
}

// MarkForDestruction queues an entity for end-of-tick cleanup. The entity
// stays queryable until FlushDestroyQueue runs, so systems later in the same
// tick still see a consistent world.
func (w *World) MarkForDestruction(id EntityID) {
	w.doomed = append(w.doomed, id)
}

// FlushDestroyQueue retires every queued entity: components are removed from
// all stores and the ID generation advances, invalidating stale handles.
func (w *World) FlushDestroyQueue() {
	for _, id := range w.doomed {
		w.registry.RemoveAll(id)
		w.pool.Destroy(id)
	}
	w.doomed = w.doomed[:0]
}
