// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

var fixedNow = time.Date(2024, 9, 1, 8, 30, 0, 0, time.UTC)

func weight(v float64) *float64 { return &v }

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, "No deadlines found.", Render(nil, nil, Options{Now: fixedNow}))
}

func TestRender_Golden(t *testing.T) {
	records := []types.Deadline{
		{Date: "2024-11-20", Title: "Final Exam", Type: types.TypeExam, Weight: weight(50), Notes: "Open book", Course: "CS101"},
		{Date: "2024-09-15", Title: "Assignment 1", Type: types.TypeAssignment, Weight: weight(12.5), Notes: "", Course: "CS101"},
		{Date: "TBD", Title: "Project Demo", Type: types.TypePresentation, Course: "CS2103"},
	}

	want := "# Assignment Deadlines - Generated 2024-09-01 08:30\n\n" +
		"\n## September 2024\n\n" +
		"### Sun, 15 Sep - **CS101**\n" +
		"- **[ASSIGNMENT]** Assignment 1 (12.5%)\n" +
		"\n" +
		"\n## November 2024\n\n" +
		"### Wed, 20 Nov - **CS101**\n" +
		"- **[EXAM]** Final Exam (50%)\n" +
		"  - _Open book_\n" +
		"\n" +
		"\n## Date TBD\n\n" +
		"### TBD - **CS2103**\n" +
		"- **[PRESENTATION]** Project Demo\n" +
		"\n"

	assert.Equal(t, want, Render(records, nil, Options{Now: fixedNow}))
}

func TestRender_ChangeSummary(t *testing.T) {
	records := []types.Deadline{
		{Date: "2024-09-17", Title: "Midterm", Type: types.TypeExam, Course: "CS101"},
		{Date: "2024-12-01", Title: "Final", Type: types.TypeExam, Course: "CS101"},
	}
	changes := &types.ChangeSet{
		Modified: []types.Deadline{{Date: "2024-09-17", OldDate: "2024-09-10", Title: "Midterm", Course: "CS101"}},
		Added:    []types.Deadline{{Date: "2024-12-01", Title: "Final", Course: "CS101"}},
		Removed:  []types.Deadline{{Date: "2024-10-01", Title: "Quiz 3", Course: "CS101"}},
	}

	out := Render(records, changes, Options{Now: fixedNow})

	wantSummary := "## ⚠️ RECENT CHANGES DETECTED\n\n" +
		"### 📅 Date Changes:\n" +
		"- **CS101** - Midterm: ~~2024-09-10~~ → **2024-09-17**\n\n" +
		"### ✨ New Deadlines:\n" +
		"- **CS101** - Final (2024-12-01)\n\n" +
		"### 🗑️ Removed/Cancelled:\n" +
		"- **CS101** - Quiz 3\n\n" +
		"---\n\n"
	assert.Contains(t, out, wantSummary)

	summaryAt := strings.Index(out, "RECENT CHANGES")
	listingAt := strings.Index(out, "## September 2024")
	require.True(t, summaryAt >= 0 && listingAt >= 0)
	assert.Less(t, summaryAt, listingAt)
}

func TestRender_ChangeSummaryGating(t *testing.T) {
	records := []types.Deadline{{Date: "2024-09-17", Title: "Midterm", Course: "CS101"}}

	empty := types.NewChangeSet()
	for name, cs := range map[string]*types.ChangeSet{"nil": nil, "empty": &empty, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			out := Render(records, cs, Options{Now: fixedNow})
			assert.NotContains(t, out, "RECENT CHANGES")
			assert.NotContains(t, out, "---")
		})
	}
}

func TestRender_OnlyPresentSubsections(t *testing.T) {
	records := []types.Deadline{{Date: "2024-09-17", Title: "Midterm", Course: "CS101"}}
	cs := &types.ChangeSet{Removed: []types.Deadline{{Title: "Quiz 3", Course: "CS101"}}}

	out := Render(records, cs, Options{Now: fixedNow})
	assert.Contains(t, out, "Removed/Cancelled")
	assert.NotContains(t, out, "Date Changes")
	assert.NotContains(t, out, "New Deadlines")
}

func TestRender_SortOrderAndHeadings(t *testing.T) {
	records := []types.Deadline{
		{Date: "2024-11-20", Title: "C", Course: "X"},
		{Date: "TBD", Title: "T", Course: "X"},
		{Date: "2024-09-15", Title: "A", Course: "X"},
	}

	out := Render(records, nil, Options{Now: fixedNow})

	sep := strings.Index(out, "## September 2024")
	nov := strings.Index(out, "## November 2024")
	tbd := strings.Index(out, "## Date TBD")
	require.True(t, sep >= 0 && nov >= 0 && tbd >= 0, out)
	assert.Less(t, sep, nov)
	assert.Less(t, nov, tbd)

	a := strings.Index(out, "** A")
	c := strings.Index(out, "** C")
	tt := strings.Index(out, "** T")
	assert.Less(t, a, c)
	assert.Less(t, c, tt)
}

func TestRender_MonthGrouping(t *testing.T) {
	records := []types.Deadline{
		{Date: "2024-09-01", Title: "A", Course: "X"},
		{Date: "2024-09-30", Title: "B", Course: "X"},
		{Date: "2025-09-01", Title: "C", Course: "X"},
		{Date: "TBD", Title: "D", Course: "X"},
		{Title: "E", Course: "X"},
		{Date: "sometime in week 7", Title: "F", Course: "X"},
	}

	out := Render(records, nil, Options{Now: fixedNow})

	assert.Equal(t, 1, strings.Count(out, "## September 2024"))
	assert.Equal(t, 1, strings.Count(out, "## September 2025"))
	assert.Equal(t, 1, strings.Count(out, "## Date TBD"))
	assert.Contains(t, out, "### sometime in week 7 - **X**")
	assert.Equal(t, 2, strings.Count(out, "### TBD - **X**"))
}

func TestRender_Annotations(t *testing.T) {
	tests := []struct {
		name    string
		d       types.Deadline
		want    []string
		notWant []string
	}{
		{
			name: "announcement update",
			d: types.Deadline{Date: "2024-10-01", Title: "A2", Course: "CS101", IsUpdate: true,
				Notes: "Moved", Source: "Announcement: A2 moved"},
			want: []string{"  - 🔔 **UPDATE:** Moved\n", "  - _Source: Announcement: A2 moved_\n"},
		},
		{
			name:    "extended in notes",
			d:       types.Deadline{Date: "2024-10-01", Title: "A2", Course: "CS101", Notes: "extended to Oct 1"},
			want:    []string{"  - 🔔 **UPDATE:** extended to Oct 1\n"},
			notWant: []string{"_extended"},
		},
		{
			name:    "plain notes",
			d:       types.Deadline{Date: "2024-10-01", Title: "A2", Course: "CS101", Notes: "Submit via Canvas"},
			want:    []string{"  - _Submit via Canvas_\n"},
			notWant: []string{"UPDATE", "Source"},
		},
		{
			name:    "no notes",
			d:       types.Deadline{Date: "2024-10-01", Title: "A2", Course: "CS101"},
			notWant: []string{"  - "},
		},
		{
			name: "defaults",
			d:    types.Deadline{Date: "2024-10-01"},
			want: []string{"### Tue, 01 Oct - **Unknown Course**\n", "- **[OTHER]** Untitled\n"},
		},
		{
			name:    "zero weight omitted",
			d:       types.Deadline{Date: "2024-10-01", Title: "A2", Course: "CS101", Weight: weight(0)},
			want:    []string{"- **[OTHER]** A2\n"},
			notWant: []string{"%)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Render([]types.Deadline{tt.d}, nil, Options{Now: fixedNow})
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestRender_Deterministic(t *testing.T) {
	records := []types.Deadline{
		{Date: "2024-10-01", Title: "B", Course: "X"},
		{Date: "2024-10-01", Title: "A", Course: "X"},
		{Date: "TBD", Title: "C", Course: "Y"},
	}
	first := Render(records, nil, Options{Now: fixedNow})
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Render(records, nil, Options{Now: fixedNow}))
	}
	// Stable sort keeps input order for equal dates.
	assert.Less(t, strings.Index(first, "** B"), strings.Index(first, "** A"))
}

func TestSort_DoesNotMutateInput(t *testing.T) {
	records := []types.Deadline{{Date: "TBD"}, {Date: "2024-01-01"}}
	sorted := Sort(records)
	assert.Equal(t, "TBD", records[0].Date)
	assert.Equal(t, "2024-01-01", sorted[0].Date)
}

func TestTerminal(t *testing.T) {
	out, err := Terminal("# Title\n\n- item", 0)
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "item")
}
