package planner

import (
	"sort"

	"tracedf/internal/config"
	"tracedf/internal/storage"
)

// preferenceScore ranks how cheap a filter is expected to be, lowest
// first: a SetIdSorted equality jump costs a handful of comparisons
// regardless of row count, a Sorted binary search costs O(log n), an
// unsorted numeric scan costs O(n), and a glob/regex match costs O(n)
// with a much larger per-row constant. Reordering filters cheapest-first
// lets every later filter run over an already-narrowed row set. Weights
// come from cfg so a workload can retune the model without recompiling.
func preferenceScore(col storage.Column, f FilterSpec, cfg config.PlannerConfig) int {
	switch f.Op {
	case FilterIsNull, FilterIsNotNull:
		return cfg.IsNullScore
	case FilterGlob, FilterRegex:
		return cfg.PatternScore
	}
	if col.Spec.Kind == storage.KindId {
		return cfg.SetIdSortedScore
	}
	switch col.Spec.Sort {
	case storage.SetIdSorted:
		if f.Op == FilterEq {
			return cfg.SetIdSortedScore
		}
		return cfg.UnsortedScore
	case storage.Sorted:
		return cfg.SortedScore
	default:
		if col.Spec.Kind == storage.KindString {
			return cfg.StringScanScore
		}
		return cfg.UnsortedScore
	}
}

// orderFilters returns a stable, preference-sorted copy of specs, paired
// with the column each refers to.
func orderFilters(columns []storage.Column, specs []FilterSpec, cfg config.PlannerConfig) []FilterSpec {
	ordered := make([]FilterSpec, len(specs))
	copy(ordered, specs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return preferenceScore(columns[ordered[i].Column], ordered[i], cfg) <
			preferenceScore(columns[ordered[j].Column], ordered[j], cfg)
	})
	return ordered
}
