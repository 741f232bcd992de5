package policies

import (
	"strings"
)

// GroupMatcher matches artifact group ids against exact, prefix and
// wildcard patterns. When several patterns match, the one listed first
// wins.
type GroupMatcher struct {
	patterns []string
	exact    map[string]int
	prefixes []prefixPattern
	wildcard int
}

type prefixPattern struct {
	prefix     string
	groupIndex int
}

type patternKind int

const (
	patternExact patternKind = iota
	patternPrefix
	patternWildcard
	patternInvalid
)

func NewGroupMatcher(patterns []string) GroupMatcher {
	m := GroupMatcher{
		patterns: append([]string(nil), patterns...),
		exact:    map[string]int{},
		wildcard: -1,
	}
	for idx, pattern := range patterns {
		name, kind := parseNamePattern(pattern)
		switch kind {
		case patternWildcard:
			if m.wildcard < 0 {
				m.wildcard = idx
			}
		case patternExact:
			if _, ok := m.exact[name]; !ok {
				m.exact[name] = idx
			}
		case patternPrefix:
			m.prefixes = append(m.prefixes, prefixPattern{prefix: name, groupIndex: idx})
		}
	}
	return m
}

// Match returns the index of the first pattern matching groupID.
func (m GroupMatcher) Match(groupID string) (int, bool) {
	best := -1
	if idx, found := m.exact[groupID]; found {
		best = minIndex(best, idx)
	}
	for _, entry := range m.prefixes {
		if strings.HasPrefix(groupID, entry.prefix) || groupID+"." == entry.prefix {
			best = minIndex(best, entry.groupIndex)
		}
	}
	if m.wildcard >= 0 {
		best = minIndex(best, m.wildcard)
	}
	return best, best >= 0
}

func (m GroupMatcher) Matches(groupID string) bool {
	_, ok := m.Match(groupID)
	return ok
}

func (m GroupMatcher) Empty() bool {
	return len(m.exact) == 0 && len(m.prefixes) == 0 && m.wildcard < 0
}

// PatternsOverlap reports whether some group id matches both patterns.
func PatternsOverlap(a string, b string) bool {
	nameA, kindA := parseNamePattern(a)
	nameB, kindB := parseNamePattern(b)
	switch {
	case kindA == patternInvalid || kindB == patternInvalid:
		return false
	case kindA == patternWildcard || kindB == patternWildcard:
		return true
	case kindA == patternExact && kindB == patternExact:
		return nameA == nameB
	case kindA == patternExact:
		return NewGroupMatcher([]string{b}).Matches(nameA)
	case kindB == patternExact:
		return NewGroupMatcher([]string{a}).Matches(nameB)
	}
	return strings.HasPrefix(nameA, nameB) || strings.HasPrefix(nameB, nameA)
}

func parseNamePattern(value string) (string, patternKind) {
	pattern := strings.TrimSpace(value)
	if pattern == "" {
		return "", patternInvalid
	}
	if pattern == "*" {
		return "", patternWildcard
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.TrimSuffix(pattern, "*"), patternPrefix
	}
	return pattern, patternExact
}

func minIndex(current int, candidate int) int {
	if candidate < 0 {
		return current
	}
	if current < 0 || candidate < current {
		return candidate
	}
	return current
}
