package vkcompute

// pipelineStore is the digest-keyed bundle collection. A plain map:
// lookups are O(1) and iteration order never matters. Entries are only
// removed by clear; the cache has no eviction.
//
// Not safe for concurrent use on its own; PipelineCache serializes
// access through its lock.
type pipelineStore struct {
	entries map[Digest]Pipeline
}

func newPipelineStore() *pipelineStore {
	return &pipelineStore{entries: make(map[Digest]Pipeline)}
}

// find returns the bundle for d, or false when absent.
func (s *pipelineStore) find(d Digest) (Pipeline, bool) {
	p, ok := s.entries[d]
	return p, ok
}

// insert records a freshly built bundle. The caller must have verified
// the digest is absent: the single-flight layer guarantees no two builds
// race on one digest, so a duplicate here would be a logic bug upstream.
func (s *pipelineStore) insert(d Digest, p Pipeline) {
	s.entries[d] = p
}

// size returns the number of stored bundles.
func (s *pipelineStore) size() int { return len(s.entries) }

// clear destroys every bundle's resources and empties the store,
// returning the number of bundles destroyed.
func (s *pipelineStore) clear(dev Device) int {
	n := len(s.entries)
	for d, p := range s.entries {
		destroyBundle(dev, p)
		delete(s.entries, d)
	}
	return n
}
