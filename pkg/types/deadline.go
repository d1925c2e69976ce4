// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the records shared by the deadline-tracker pipeline:
// deadlines, change sets, Canvas resources, and configuration.
package types

import (
	"strings"
	"time"
)

// DeadlineType categorizes an academic obligation.
type DeadlineType string

const (
	TypeAssignment   DeadlineType = "assignment"
	TypeExam         DeadlineType = "exam"
	TypeQuiz         DeadlineType = "quiz"
	TypeProject      DeadlineType = "project"
	TypePresentation DeadlineType = "presentation"
	TypeOther        DeadlineType = "other"
)

// DateTBD is the unscheduled sentinel stored in Deadline.Date.
const DateTBD = "TBD"

// DateLayout is the calendar date format used in Deadline.Date.
const DateLayout = "2006-01-02"

// maxSortDate orders unscheduled deadlines after every concrete date.
var maxSortDate = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

var validDeadlineTypes = map[DeadlineType]bool{
	TypeAssignment:   true,
	TypeExam:         true,
	TypeQuiz:         true,
	TypeProject:      true,
	TypePresentation: true,
	TypeOther:        true,
}

// NormalizeType maps free-form model output onto the closed type set.
// Unknown or empty values become TypeOther.
func NormalizeType(s string) DeadlineType {
	t := DeadlineType(strings.ToLower(strings.TrimSpace(s)))
	if validDeadlineTypes[t] {
		return t
	}
	return TypeOther
}

// Deadline is one academic date obligation extracted from a course document
// or announcement. The JSON form is the snapshot format in deadlines.json.
type Deadline struct {
	// Date is YYYY-MM-DD, or DateTBD when the date is unknown.
	Date string `json:"date" yaml:"date"`

	// Title is a short description; with Course it forms the identity key.
	Title string `json:"title" yaml:"title"`

	// Type is one of the DeadlineType constants.
	Type DeadlineType `json:"type" yaml:"type"`

	// Weight is the percentage of the final grade, nil when unstated.
	Weight *float64 `json:"weight" yaml:"weight"`

	// Notes is free-text annotation from the extraction.
	Notes string `json:"notes" yaml:"notes"`

	// Course is the owning course's display name.
	Course string `json:"course" yaml:"course"`

	// IsUpdate marks announcement-sourced records that change an existing deadline.
	IsUpdate bool `json:"is_update,omitempty" yaml:"is_update,omitempty"`

	// Source records provenance, e.g. "Announcement: Assignment 2 extended".
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// AnnouncementDate is the posted_at timestamp of the source announcement.
	AnnouncementDate string `json:"announcement_date,omitempty" yaml:"announcement_date,omitempty"`

	// OldDate is set only on ChangeSet.Modified entries.
	OldDate string `json:"old_date,omitempty" yaml:"old_date,omitempty"`
}

// Key returns the identity key used to match records across runs: the
// lower-cased concatenation of course and title.
func (d Deadline) Key() string {
	return strings.ToLower(d.Course + "_" + d.Title)
}

// ParsedDate returns the calendar date and true when Date holds a valid
// YYYY-MM-DD value (a trailing time component is tolerated).
func (d Deadline) ParsedDate() (time.Time, bool) {
	s := strings.TrimSpace(d.Date)
	if s == "" || s == DateTBD {
		return time.Time{}, false
	}
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsScheduled reports whether the deadline has a concrete date.
func (d Deadline) IsScheduled() bool {
	_, ok := d.ParsedDate()
	return ok
}

// SortDate is the ordering key: the parsed date, or the maximum date for
// unscheduled records. Date itself is never rewritten.
func (d Deadline) SortDate() time.Time {
	if t, ok := d.ParsedDate(); ok {
		return t
	}
	return maxSortDate
}

// HasUpdateSignal reports whether the record should be called out as an
// update: announcement-flagged, or notes mentioning an extension or change.
func (d Deadline) HasUpdateSignal() bool {
	if d.IsUpdate {
		return true
	}
	notes := strings.ToUpper(d.Notes)
	return strings.Contains(notes, "EXTENDED") || strings.Contains(notes, "CHANGED")
}

// ChangeSet is the result of reconciling two deadline collections.
type ChangeSet struct {
	Added    []Deadline `json:"added" yaml:"added"`
	Removed  []Deadline `json:"removed" yaml:"removed"`
	Modified []Deadline `json:"modified" yaml:"modified"`
}

// NewChangeSet returns a ChangeSet whose lists marshal as [] rather than null.
func NewChangeSet() ChangeSet {
	return ChangeSet{
		Added:    []Deadline{},
		Removed:  []Deadline{},
		Modified: []Deadline{},
	}
}

// IsEmpty reports whether no change was detected.
func (c ChangeSet) IsEmpty() bool {
	return c.Total() == 0
}

// Total returns the number of changes across all three lists.
func (c ChangeSet) Total() int {
	return len(c.Added) + len(c.Removed) + len(c.Modified)
}
