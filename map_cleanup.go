package geomap

import (
	"container/list"
	"time"

	"github.com/gekko3d/geomap/tile"
)

// cleanupQueue lists the sibling groups waiting for destruction, keyed by
// their parent, oldest first.
type cleanupQueue struct {
	order    *list.List
	byParent map[tile.ID]*list.Element
}

type cleanupEntry struct {
	parent tile.ID
	at     time.Time
}

func newCleanupQueue() *cleanupQueue {
	return &cleanupQueue{
		order:    list.New(),
		byParent: make(map[tile.ID]*list.Element),
	}
}

// mark keeps the original time of a group that is already pending.
func (q *cleanupQueue) mark(parent tile.ID, now time.Time) {
	if _, ok := q.byParent[parent]; ok {
		return
	}
	q.byParent[parent] = q.order.PushBack(&cleanupEntry{parent: parent, at: now})
}

func (q *cleanupQueue) unmark(parent tile.ID) {
	if e, ok := q.byParent[parent]; ok {
		q.order.Remove(e)
		delete(q.byParent, parent)
	}
}

func (q *cleanupQueue) marked(parent tile.ID) bool {
	_, ok := q.byParent[parent]
	return ok
}

func (q *cleanupQueue) len() int { return q.order.Len() }

// runCleanup destroys the groups older than the cleanup delay and returns the
// number of tiles destroyed. Entries are in time order, so the scan stops at
// the first one still within the delay.
func (m *Map) runCleanup(now time.Time) int {
	destroyed := 0
	for front := m.cleanup.order.Front(); front != nil; front = m.cleanup.order.Front() {
		e := front.Value.(*cleanupEntry)
		if now.Sub(e.at) <= m.opts.CleanupDelay {
			break
		}
		m.cleanup.unmark(e.parent)
		parent := m.arena.Get(e.parent)
		if parent == nil {
			continue
		}
		for _, id := range parent.Children {
			if c := m.arena.Get(id); c != nil {
				destroyed += m.destroy(c)
			}
		}
		parent.Children = nil
	}
	return destroyed
}

// destroy tears down t and its subtree: layers forget the tiles, geometries
// are released and the tiles leave the index and the arena.
func (m *Map) destroy(t *tile.Tile) int {
	n := 1
	for _, id := range t.Children {
		if c := m.arena.Get(id); c != nil {
			n += m.destroy(c)
		}
	}
	t.Children = nil

	for _, l := range m.layers {
		l.UnregisterNode(t)
	}
	m.geometries.Release(t.Geometry)
	t.Geometry = nil
	m.cleanup.unmark(t.ID)
	delete(m.retries, t.ID)
	m.index.RemoveTile(t)
	m.arena.Free(t)
	return n
}
