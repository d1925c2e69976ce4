// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search narrows a deadline list to the records matching a set of
// keywords. It only affects what is displayed; snapshots and change
// detection always see the full list.
package search

import (
	"strings"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// Query holds the keywords of a --search flag.
type Query struct {
	Keywords []string
}

// ParseQuery splits a comma-separated keyword list, trimming blanks and
// dropping empty and repeated terms.
func ParseQuery(s string) Query {
	var q Query
	seen := make(map[string]bool)
	for _, kw := range strings.Split(s, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		q.Keywords = append(q.Keywords, kw)
	}
	return q
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	return len(q.Keywords) == 0
}

// Match reports whether any keyword occurs in the record's title, course,
// type, notes, or source, case-insensitively. An empty query matches
// everything.
func (q Query) Match(d types.Deadline) bool {
	if q.IsEmpty() {
		return true
	}
	haystack := strings.ToLower(strings.Join([]string{
		d.Title, d.Course, string(d.Type), d.Notes, d.Source,
	}, "\n"))
	for _, kw := range q.Keywords {
		if strings.Contains(haystack, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Filter returns the records matching q in their original order. The input
// is never modified.
func Filter(records []types.Deadline, q Query) []types.Deadline {
	if q.IsEmpty() {
		return records
	}
	out := make([]types.Deadline, 0, len(records))
	for _, d := range records {
		if q.Match(d) {
			out = append(out, d)
		}
	}
	return out
}

// FilterChanges narrows every list of cs to the matching records.
func FilterChanges(cs *types.ChangeSet, q Query) *types.ChangeSet {
	if cs == nil || q.IsEmpty() {
		return cs
	}
	return &types.ChangeSet{
		Added:    Filter(cs.Added, q),
		Removed:  Filter(cs.Removed, q),
		Modified: Filter(cs.Modified, q),
	}
}
