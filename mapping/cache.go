package mapping

import (
	"sync"

	"github.com/annokit/annokit/annotation"
)

// cacheKey identifies one cached graph: the root type within its registry
// plus the filtering and container policies the graph was built under.
type cacheKey struct {
	registry   *annotation.Registry
	typeName   string
	filter     string
	containers string
}

// cacheEntry holds either a built graph or the error its construction failed
// with. Failures are cached deliberately: construction errors are
// configuration errors and rebuilding would deterministically fail again.
type cacheEntry struct {
	graph *Graph
	err   error
}

var cache = struct {
	sync.RWMutex
	entries map[cacheKey]cacheEntry
}{entries: make(map[cacheKey]cacheEntry)}

// ForType returns the mapping graph for the named root annotation type,
// building and caching it on first use. A nil containers policy defaults to
// StandardContainers. Population races resolve by insert-if-absent: every
// racing goroutine performs the same deterministic construction and the
// losers discard their result.
func ForType(reg *annotation.Registry, typeName string, filter Filter, containers annotation.Containers) (*Graph, error) {
	if containers == nil {
		containers = annotation.StandardContainers()
	}
	return forType(reg, typeName, filter, containers, make(map[string]bool))
}

// forType is ForType with the visiting set threaded through, so the
// nested-annotation synthesizable recursion shares this cache instead of
// rebuilding nested graphs once per referencing node.
func forType(reg *annotation.Registry, typeName string, filter Filter,
	containers annotation.Containers, visiting map[string]bool) (*Graph, error) {

	key := cacheKey{registry: reg, typeName: typeName, filter: filter.Key(), containers: containers.Key()}

	cache.RLock()
	entry, ok := cache.entries[key]
	cache.RUnlock()
	if ok {
		return entry.graph, entry.err
	}

	rootType, err := reg.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	graph, err := build(reg, rootType, filter, containers, visiting)

	cache.Lock()
	defer cache.Unlock()
	if winner, ok := cache.entries[key]; ok {
		return winner.graph, winner.err
	}
	cache.entries[key] = cacheEntry{graph: graph, err: err}
	return graph, err
}

// ResetCache clears the graph cache (used for testing)
func ResetCache() {
	cache.Lock()
	defer cache.Unlock()
	cache.entries = make(map[cacheKey]cacheEntry)
}
