package blacklist

import (
	"sync"

	"tg-bgcheck/internal/models"
)

// SourceHit pairs a source name with its lookup result. Record is nil when
// the source has no entry for the subject.
type SourceHit struct {
	SourceName string
	Record     *models.BlacklistRecord
}

// Registry holds the current index snapshot for every source plus the
// group-blacklist id set. It is the only shared mutable state in the system:
// installs replace whole snapshots under a short write lock, reads grab the
// snapshot reference and work on immutable data, so a concurrent lookup sees
// either the fully-old or fully-new index, never a mix.
type Registry struct {
	mu       sync.RWMutex
	indexes  map[string]*Index
	groupIDs map[string]struct{}
	order    []string
}

// NewRegistry creates a registry for the given tabular sources, in their
// declared priority order. All sources start empty.
func NewRegistry(sourceNames []string) *Registry {
	r := &Registry{
		indexes:  make(map[string]*Index, len(sourceNames)),
		groupIDs: make(map[string]struct{}),
		order:    append([]string(nil), sourceNames...),
	}
	for _, name := range sourceNames {
		r.indexes[name] = BuildIndex(name, nil)
	}
	return r
}

// InstallIndex atomically replaces the named source's snapshot. Overlapping
// refreshes of the same source are not serialized: whichever install runs
// last wins, so a refresh that finished later always ends up live.
func (r *Registry) InstallIndex(name string, ix *Index) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexes[name] = ix
}

// InstallGroups atomically replaces the group-blacklist id set.
func (r *Registry) InstallGroups(ids []string) {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groupIDs = set
}

// Lookup resolves the subject against one source.
func (r *Registry) Lookup(name, id, handle string) *models.BlacklistRecord {
	r.mu.RLock()
	ix := r.indexes[name]
	r.mu.RUnlock()
	if ix == nil {
		return nil
	}
	return ix.Lookup(id, handle)
}

// LookupAll resolves the subject against every tabular source in declared
// priority order, including misses.
func (r *Registry) LookupAll(id, handle string) []SourceHit {
	r.mu.RLock()
	snapshots := make([]*Index, 0, len(r.order))
	for _, name := range r.order {
		snapshots = append(snapshots, r.indexes[name])
	}
	r.mu.RUnlock()

	hits := make([]SourceHit, 0, len(snapshots))
	for i, ix := range snapshots {
		hit := SourceHit{SourceName: r.order[i]}
		if ix != nil {
			hit.Record = ix.Lookup(id, handle)
		}
		hits = append(hits, hit)
	}
	return hits
}

// IsGroupBlacklisted reports whether the group id is on the group blacklist.
func (r *Registry) IsGroupBlacklisted(groupID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.groupIDs[groupID]
	return ok
}

// GroupCount returns the size of the group-blacklist set.
func (r *Registry) GroupCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.groupIDs)
}

// Snapshot returns the current index for one source.
func (r *Registry) Snapshot(name string) *Index {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexes[name]
}

// SourceNames returns the tabular source names in declared priority order.
func (r *Registry) SourceNames() []string {
	return append([]string(nil), r.order...)
}
