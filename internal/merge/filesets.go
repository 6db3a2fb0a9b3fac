package merge

import (
	"sort"

	"github.com/keshon/bvc-subtree/internal/repo/store/file"
	"github.com/keshon/bvc-subtree/internal/repo/store/snapshot"
)

// TheirsSuffix marks the copy of the incoming side of a conflicting path.
const TheirsSuffix = ".MERGE_THEIRS"

// Filesets performs a three-way merge of entry lists and returns the merged
// entries (sorted by path) and the conflicting paths. A conflicting path
// keeps our version and gains a sibling <path>.MERGE_THEIRS with theirs.
func Filesets(base, ours, theirs []file.Entry) ([]file.Entry, []string) {
	baseMap := snapshot.ByPath(base)
	oursMap := snapshot.ByPath(ours)
	theirsMap := snapshot.ByPath(theirs)

	allPaths := map[string]bool{}
	for _, m := range []map[string]file.Entry{baseMap, oursMap, theirsMap} {
		for p := range m {
			allPaths[p] = true
		}
	}

	merged := map[string]file.Entry{}
	var conflicts []string
	for path := range allPaths {
		b := lookup(baseMap, path)
		o := lookup(oursMap, path)
		t := lookup(theirsMap, path)

		switch {
		// identical on both sides, including deleted in both
		case o.Equal(t):
			if o != nil {
				merged[path] = *o
			}
		// untouched by us: take theirs, which may be an add, modify or delete
		case b.Equal(o):
			if t != nil {
				merged[path] = *t
			}
		// untouched by them: keep ours
		case b.Equal(t):
			if o != nil {
				merged[path] = *o
			}
		default:
			if o != nil {
				merged[path] = *o
			}
			if t != nil {
				theirsCopy := *t
				theirsCopy.Path = path + TheirsSuffix
				merged[theirsCopy.Path] = theirsCopy
			}
			conflicts = append(conflicts, path)
		}
	}

	out := make([]file.Entry, 0, len(merged))
	for _, e := range merged {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	sort.Strings(conflicts)
	return out, conflicts
}

func lookup(m map[string]file.Entry, path string) *file.Entry {
	if e, ok := m[path]; ok {
		return &e
	}
	return nil
}
