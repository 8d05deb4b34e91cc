package runtime

import (
	"math/rand"
	"sync"

	"github.com/actrlabs/actrgo/protocol"
)

// routeTable maps actor ids to the transport address of their node.
type routeTable struct {
	mu     sync.RWMutex
	routes map[protocol.ActrId]string
}

func newRouteTable() *routeTable {
	return &routeTable{routes: make(map[protocol.ActrId]string)}
}

func (rt *routeTable) add(id protocol.ActrId, addr string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.routes[id] = addr
}

func (rt *routeTable) remove(id protocol.ActrId) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	delete(rt.routes, id)
}

func (rt *routeTable) lookup(id protocol.ActrId) (string, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	addr, ok := rt.routes[id]
	return addr, ok
}

// discoveryRegistry tracks which live actor ids serve each actor type.
type discoveryRegistry struct {
	mu     sync.RWMutex
	byType map[protocol.ActrType][]protocol.ActrId
}

func newDiscoveryRegistry() *discoveryRegistry {
	return &discoveryRegistry{byType: make(map[protocol.ActrType][]protocol.ActrId)}
}

func (r *discoveryRegistry) register(id protocol.ActrId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byType[id.Type] {
		if existing == id {
			return
		}
	}
	r.byType[id.Type] = append(r.byType[id.Type], id)
}

func (r *discoveryRegistry) unregister(id protocol.ActrId) {
	r.mu.Lock()
	defer r.mu.Unlock()
	candidates := r.byType[id.Type]
	for i, existing := range candidates {
		if existing == id {
			r.byType[id.Type] = append(candidates[:i], candidates[i+1:]...)
			return
		}
	}
}

// candidates returns up to count live ids of type t.
func (r *discoveryRegistry) candidates(t protocol.ActrType, count int) []protocol.ActrId {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.byType[t]
	if count > len(all) {
		count = len(all)
	}
	return append([]protocol.ActrId(nil), all[:count]...)
}

// candidate picks one live id of type t at random.
func (r *discoveryRegistry) candidate(t protocol.ActrType) (protocol.ActrId, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.byType[t]
	if len(all) == 0 {
		return protocol.ActrId{}, protocol.WrapError(protocol.ClassProtocol, protocol.ErrNoCandidate, "discover %s", t)
	}
	return all[rand.Intn(len(all))], nil
}
