package cache

import (
	"container/list"
	"fmt"
)

// EvictionPolicy decides which entry leaves a full cache. Implementations are
// called with the cache lock held and need no locking of their own.
type EvictionPolicy interface {
	// Touch records an access to (or insertion of) id.
	Touch(id string)

	// Remove forgets id.
	Remove(id string)

	// Victim returns the identifier to evict next.
	Victim() (string, bool)
}

// LRU evicts the least recently used identifier.
type LRU struct {
	order *list.List
	elems map[string]*list.Element
}

var _ EvictionPolicy = (*LRU)(nil)

// NewLRU creates an empty LRU policy.
func NewLRU() *LRU {
	return &LRU{
		order: list.New(),
		elems: make(map[string]*list.Element),
	}
}

func (l *LRU) Touch(id string) {
	if e, ok := l.elems[id]; ok {
		l.order.MoveToFront(e)
		return
	}
	l.elems[id] = l.order.PushFront(id)
}

func (l *LRU) Remove(id string) {
	if e, ok := l.elems[id]; ok {
		l.order.Remove(e)
		delete(l.elems, id)
	}
}

func (l *LRU) Victim() (string, bool) {
	back := l.order.Back()
	if back == nil {
		return "", false
	}
	return back.Value.(string), true
}

// PolicyByName returns the eviction policy for a config name. An empty name
// selects LRU.
func PolicyByName(name string) (EvictionPolicy, error) {
	switch name {
	case "", "lru":
		return NewLRU(), nil
	default:
		return nil, fmt.Errorf("unsupported cache eviction policy: %s", name)
	}
}
