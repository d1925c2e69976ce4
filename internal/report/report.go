// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders deadlines and detected changes as a Markdown
// document grouped by month.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

const (
	headerTimeLayout = "2006-01-02 15:04"
	monthLayout      = "January 2006"
	entryDateLayout  = "Mon, 02 Jan"

	tbdHeading = "Date TBD"
	noData     = "No deadlines found."
)

// Options controls environment-dependent parts of the output.
type Options struct {
	// Now stamps the report header. Zero means time.Now().
	Now time.Time
}

// Sort returns a copy of records ordered by date ascending. Unscheduled
// records sort after every concrete date; ties keep their input order.
func Sort(records []types.Deadline) []types.Deadline {
	sorted := make([]types.Deadline, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortDate().Before(sorted[j].SortDate())
	})
	return sorted
}

// Render produces the Markdown report. The change summary is emitted only
// when changes is non-nil and holds at least one change.
func Render(records []types.Deadline, changes *types.ChangeSet, opts Options) string {
	if len(records) == 0 {
		return noData
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Assignment Deadlines - Generated %s\n\n", now.Format(headerTimeLayout))

	if changes != nil && !changes.IsEmpty() {
		writeChanges(&b, *changes)
	}

	currentHeading := ""
	for _, d := range Sort(records) {
		heading, date := headingAndDate(d)
		if heading != currentHeading {
			currentHeading = heading
			fmt.Fprintf(&b, "\n## %s\n\n", heading)
		}
		writeEntry(&b, d, date)
	}

	return b.String()
}

func writeChanges(b *strings.Builder, cs types.ChangeSet) {
	b.WriteString("## ⚠️ RECENT CHANGES DETECTED\n\n")

	if len(cs.Modified) > 0 {
		b.WriteString("### 📅 Date Changes:\n")
		for _, d := range cs.Modified {
			fmt.Fprintf(b, "- **%s** - %s: ~~%s~~ → **%s**\n",
				or(d.Course, "Unknown"), or(d.Title, "Untitled"),
				or(d.OldDate, "Unknown"), or(d.Date, "Unknown"))
		}
		b.WriteString("\n")
	}

	if len(cs.Added) > 0 {
		b.WriteString("### ✨ New Deadlines:\n")
		for _, d := range cs.Added {
			fmt.Fprintf(b, "- **%s** - %s (%s)\n",
				or(d.Course, "Unknown"), or(d.Title, "Untitled"), or(d.Date, types.DateTBD))
		}
		b.WriteString("\n")
	}

	if len(cs.Removed) > 0 {
		b.WriteString("### 🗑️ Removed/Cancelled:\n")
		for _, d := range cs.Removed {
			fmt.Fprintf(b, "- **%s** - %s\n", or(d.Course, "Unknown"), or(d.Title, "Untitled"))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
}

// headingAndDate returns the group heading and the displayed date for d.
// Unscheduled and unparseable dates share the TBD heading; an unparseable
// value is shown as stored.
func headingAndDate(d types.Deadline) (heading, date string) {
	if t, ok := d.ParsedDate(); ok {
		return t.Format(monthLayout), t.Format(entryDateLayout)
	}
	return tbdHeading, or(strings.TrimSpace(d.Date), types.DateTBD)
}

func writeEntry(b *strings.Builder, d types.Deadline, date string) {
	fmt.Fprintf(b, "### %s - **%s**\n", date, or(d.Course, "Unknown Course"))
	fmt.Fprintf(b, "- **[%s]** %s%s\n",
		strings.ToUpper(or(string(d.Type), string(types.TypeOther))),
		or(d.Title, "Untitled"),
		weightSuffix(d.Weight))

	switch {
	case d.HasUpdateSignal():
		fmt.Fprintf(b, "  - 🔔 **UPDATE:** %s\n", d.Notes)
	case d.Notes != "":
		fmt.Fprintf(b, "  - _%s_\n", d.Notes)
	}

	if d.Source != "" {
		fmt.Fprintf(b, "  - _Source: %s_\n", d.Source)
	}

	b.WriteString("\n")
}

// weightSuffix formats " (N%)"; nil and zero weights are omitted.
func weightSuffix(w *float64) string {
	if w == nil || *w == 0 {
		return ""
	}
	return " (" + strconv.FormatFloat(*w, 'f', -1, 64) + "%)"
}

func or(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
