package coupon

import (
	"sort"
	"strings"
)

// CourseSet is the set of course identifiers a restricted coupon applies to.
// The zero value is the empty set.
type CourseSet map[string]struct{}

// NewCourseSet builds a set from a slice of course IDs, dropping empties.
func NewCourseSet(ids []string) CourseSet {
	s := make(CourseSet, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

// ParseCourseSet parses a comma-delimited list of course IDs. Blank entries
// and surrounding whitespace are ignored, so "a, b,," parses to {a, b}.
func ParseCourseSet(raw string) CourseSet {
	if strings.TrimSpace(raw) == "" {
		return CourseSet{}
	}
	return NewCourseSet(strings.Split(raw, ","))
}

// Contains reports whether the set includes the given course ID.
func (s CourseSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the IDs in lexicographic order for deterministic
// serialization.
func (s CourseSet) Slice() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// String serializes the set as a comma-delimited list, sorted.
func (s CourseSet) String() string {
	return strings.Join(s.Slice(), ",")
}
