// Package shared lets multiple query engines on different goroutines
// reuse the same large, read-only Dataframe instead of each building
// their own copy. A Tag identifies a dataframe before it exists; callers
// Find by tag first and only build + Insert on a miss.
package shared

import (
	"hash/maphash"
	"sync"
	"weak"

	"github.com/google/uuid"

	"tracedf/internal/dataframe"
)

// Tag identifies a dataframe, computed before the dataframe itself
// exists so concurrent callers can agree on identity without
// coordinating construction.
type Tag struct {
	hash uint64
}

// Storage is a concurrency-safe cache of weakly-held dataframes, keyed by
// Tag. A dataframe stays reachable through Storage only as long as some
// other owner also holds it; once every other reference drops, the
// garbage collector is free to reclaim it and the next Find reports a
// miss, mirroring the original's std::weak_ptr-backed map.
type Storage struct {
	mu      sync.Mutex
	seed    maphash.Seed
	entries map[uint64]weak.Pointer[dataframe.Dataframe]
}

// New returns an empty Storage.
func New() *Storage {
	return &Storage{seed: maphash.MakeSeed(), entries: make(map[uint64]weak.Pointer[dataframe.Dataframe])}
}

func (s *Storage) hash(parts ...string) uint64 {
	var h maphash.Hash
	h.SetSeed(s.seed)
	for _, p := range parts {
		h.WriteString(p)
		h.WriteByte(0) // separator: disambiguates ("ab","c") from ("a","bc")
	}
	return h.Sum64()
}

// TagForModuleTable returns the Tag for a table defined by an SQL
// module, identified by the module and table name together.
func (s *Storage) TagForModuleTable(module, table string) Tag {
	return Tag{s.hash(module, table)}
}

// TagForStaticTable returns the Tag for a statically-registered table,
// identified by name alone.
func (s *Storage) TagForStaticTable(name string) Tag {
	return Tag{s.hash(name)}
}

// UniqueTag returns a Tag no other caller can plausibly collide with,
// for a dataframe that does not need to be shared but is still
// convenient to store uniformly.
func (s *Storage) UniqueTag() Tag {
	return Tag{s.hash(uuid.NewString())}
}

// Find returns the dataframe registered under tag, or nil if none is
// registered or the one that was has since been garbage collected.
func (s *Storage) Find(tag Tag) *dataframe.Dataframe {
	s.mu.Lock()
	defer s.mu.Unlock()
	wp, ok := s.entries[tag.hash]
	if !ok {
		return nil
	}
	df := wp.Value()
	if df == nil {
		delete(s.entries, tag.hash)
	}
	return df
}

// Insert registers df under tag and returns the dataframe now owned by
// Storage for that tag: df itself, unless a concurrent Insert already
// won and its dataframe is still alive, in which case that one is
// returned instead so every caller converges on a single instance.
func (s *Storage) Insert(tag Tag, df *dataframe.Dataframe) *dataframe.Dataframe {
	s.mu.Lock()
	defer s.mu.Unlock()
	if wp, ok := s.entries[tag.hash]; ok {
		if existing := wp.Value(); existing != nil {
			return existing
		}
	}
	s.entries[tag.hash] = weak.Make(df)
	return df
}
