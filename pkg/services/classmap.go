package services

import (
	"sort"

	"github.com/labelforge/labelforge-engine/pkg/models"
)

// ClassMap assigns each distinct annotation tag a dense zero-based index.
// Indices follow lexicographic tag order, so rebuilding the map over an
// unchanged tag vocabulary yields the identical assignment. The map is
// export-local: a new tag that sorts earlier shifts every later index.
type ClassMap struct {
	indices map[string]int
	names   []string
}

// BuildClassMap collects the distinct tags over the given annotations, sorts
// them ascending, and assigns indices 0..K-1 in that order.
func BuildClassMap(annotations []*models.Annotation) *ClassMap {
	seen := make(map[string]struct{})
	for _, a := range annotations {
		seen[a.Tag] = struct{}{}
	}

	names := make([]string, 0, len(seen))
	for tag := range seen {
		names = append(names, tag)
	}
	sort.Strings(names)

	indices := make(map[string]int, len(names))
	for i, tag := range names {
		indices[tag] = i
	}

	return &ClassMap{indices: indices, names: names}
}

// Index returns the class index for a tag.
func (m *ClassMap) Index(tag string) (int, bool) {
	idx, ok := m.indices[tag]
	return idx, ok
}

// Names returns the class names in index order. The caller must not mutate
// the returned slice.
func (m *ClassMap) Names() []string {
	return m.names
}

// Len returns the number of distinct classes.
func (m *ClassMap) Len() int {
	return len(m.names)
}
