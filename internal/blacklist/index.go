package blacklist

import (
	"strings"

	"tg-bgcheck/internal/models"
)

// Index is the immutable dual-keyed snapshot of one source's records. Built
// whole on every refresh and never mutated afterwards, so readers can hold a
// reference across a concurrent refresh without seeing a partial update.
type Index struct {
	SourceName string
	byID       map[string]*models.BlacklistRecord
	byHandle   map[string]*models.BlacklistRecord
}

// BuildIndex builds both maps in one pass. Records sharing a subject id have
// already been collapsed by the parser; the same record pointer is inserted
// under both keys so the two views can never drift.
func BuildIndex(sourceName string, records []models.BlacklistRecord) *Index {
	ix := &Index{
		SourceName: sourceName,
		byID:       make(map[string]*models.BlacklistRecord, len(records)),
		byHandle:   make(map[string]*models.BlacklistRecord, len(records)),
	}
	for i := range records {
		rec := &records[i]
		ix.byID[rec.SubjectID] = rec
		if rec.SubjectHandle != "" {
			ix.byHandle[strings.ToLower(rec.SubjectHandle)] = rec
		}
	}
	return ix
}

// Lookup checks byId first and falls back to the lowercased handle, so an id
// match always wins over a coincidental handle collision.
func (ix *Index) Lookup(id, handle string) *models.BlacklistRecord {
	if rec, ok := ix.byID[id]; ok {
		return rec
	}
	if handle == "" {
		return nil
	}
	return ix.byHandle[strings.ToLower(handle)]
}

// Len returns the number of distinct subject ids in the index.
func (ix *Index) Len() int {
	return len(ix.byID)
}

// Records returns a copy of every record in the index, in no particular order.
func (ix *Index) Records() []models.BlacklistRecord {
	out := make([]models.BlacklistRecord, 0, len(ix.byID))
	for _, rec := range ix.byID {
		out = append(out, *rec)
	}
	return out
}
