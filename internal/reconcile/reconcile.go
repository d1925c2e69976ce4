// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile compares the previous run's deadline snapshot with the
// current run's deadlines and classifies every record as added, removed, or
// modified.
package reconcile

import (
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

// index maps identity keys to records. keys preserves first-occurrence order
// so iteration is deterministic; a later record with the same key replaces
// the earlier one in place.
type index struct {
	keys    []string
	records map[string]types.Deadline
}

func buildIndex(records []types.Deadline) index {
	idx := index{records: make(map[string]types.Deadline, len(records))}
	for _, d := range records {
		k := d.Key()
		if _, ok := idx.records[k]; !ok {
			idx.keys = append(idx.keys, k)
		}
		idx.records[k] = d
	}
	return idx
}

// Reconcile returns the changes between old and new.
//
// A key present only in new is added, a key present only in old is removed,
// and a key present in both is modified when the date strings differ. Only
// the date is compared: a changed weight or note is not a modification.
// Duplicate keys within one side resolve to the last record. Neither input
// is mutated.
func Reconcile(old, new []types.Deadline) types.ChangeSet {
	oldIdx := buildIndex(old)
	newIdx := buildIndex(new)

	changes := types.NewChangeSet()

	for _, k := range newIdx.keys {
		cur := newIdx.records[k]
		prev, ok := oldIdx.records[k]
		if !ok {
			changes.Added = append(changes.Added, cur)
			continue
		}
		if prev.Date != cur.Date {
			cur.OldDate = prev.Date
			changes.Modified = append(changes.Modified, cur)
		}
	}

	for _, k := range oldIdx.keys {
		if _, ok := newIdx.records[k]; !ok {
			changes.Removed = append(changes.Removed, oldIdx.records[k])
		}
	}

	return changes
}

// Duplicates returns the identity keys that occur more than once in records,
// in first-occurrence order.
func Duplicates(records []types.Deadline) []string {
	counts := make(map[string]int, len(records))
	var order []string
	for _, d := range records {
		k := d.Key()
		if counts[k] == 0 {
			order = append(order, k)
		}
		counts[k]++
	}

	var dups []string
	for _, k := range order {
		if counts[k] > 1 {
			dups = append(dups, k)
		}
	}
	return dups
}
