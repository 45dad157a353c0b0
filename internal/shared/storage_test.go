package shared

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracedf/internal/dataframe"
	"tracedf/internal/stringpool"
)

func newTestDataframe() *dataframe.Dataframe {
	return dataframe.New(stringpool.New(), nil, 0)
}

func TestFindMissesOnUnknownTag(t *testing.T) {
	s := New()
	assert.Nil(t, s.Find(s.TagForStaticTable("slice")))
}

func TestInsertThenFindReturnsSameInstance(t *testing.T) {
	s := New()
	tag := s.TagForStaticTable("thread")
	df := newTestDataframe()

	got := s.Insert(tag, df)
	assert.Same(t, df, got)
	assert.Same(t, df, s.Find(tag))
}

func TestInsertRaceKeepsWhicheverIsAlreadyLive(t *testing.T) {
	s := New()
	tag := s.TagForModuleTable("sched", "thread_state")
	first := newTestDataframe()
	second := newTestDataframe()

	got1 := s.Insert(tag, first)
	got2 := s.Insert(tag, second)

	require.Same(t, first, got1)
	assert.Same(t, first, got2, "a second Insert under the same tag must return the first still-alive dataframe, not its own argument")
}

func TestTagsAreStableAndDistinctByIdentity(t *testing.T) {
	s := New()
	assert.Equal(t, s.TagForStaticTable("thread"), s.TagForStaticTable("thread"))
	assert.NotEqual(t, s.TagForStaticTable("thread"), s.TagForStaticTable("process"))
	assert.NotEqual(t, s.TagForModuleTable("a", "bc"), s.TagForModuleTable("ab", "c"))
}

func TestUniqueTagsDoNotCollide(t *testing.T) {
	s := New()
	seen := make(map[Tag]bool)
	for range 100 {
		tag := s.UniqueTag()
		assert.False(t, seen[tag])
		seen[tag] = true
	}
}

func TestFindReportsMissAfterGarbageCollection(t *testing.T) {
	s := New()
	tag := s.TagForStaticTable("gc_probe")
	func() {
		df := newTestDataframe()
		s.Insert(tag, df)
		runtime.KeepAlive(df)
	}()

	for range 20 {
		runtime.GC()
		if s.Find(tag) == nil {
			return
		}
	}
	t.Skip("dataframe survived GC pressure within the retry budget; weak.Pointer reclamation timing is not guaranteed by the runtime")
}
