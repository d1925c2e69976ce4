// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeadlineKey(t *testing.T) {
	a := Deadline{Course: "CS101", Title: "Quiz 1"}
	b := Deadline{Course: "cs101", Title: "QUIZ 1"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "cs101_quiz 1", a.Key())

	assert.Equal(t, "_", Deadline{}.Key())
}

func TestNormalizeType(t *testing.T) {
	tests := []struct {
		in   string
		want DeadlineType
	}{
		{"assignment", TypeAssignment},
		{" Exam ", TypeExam},
		{"QUIZ", TypeQuiz},
		{"presentation", TypePresentation},
		{"lab", TypeOther},
		{"", TypeOther},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeType(tt.in))
		})
	}
}

func TestSortDate(t *testing.T) {
	tests := []struct {
		name      string
		date      string
		want      time.Time
		scheduled bool
	}{
		{"iso date", "2024-09-15", time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC), true},
		{"datetime suffix", "2024-09-15T23:59:00Z", time.Date(2024, 9, 15, 0, 0, 0, 0, time.UTC), true},
		{"tbd", DateTBD, maxSortDate, false},
		{"empty", "", maxSortDate, false},
		{"garbage", "next week", maxSortDate, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Deadline{Date: tt.date}
			assert.True(t, tt.want.Equal(d.SortDate()))
			assert.Equal(t, tt.scheduled, d.IsScheduled())
		})
	}
}

func TestHasUpdateSignal(t *testing.T) {
	assert.True(t, Deadline{IsUpdate: true}.HasUpdateSignal())
	assert.True(t, Deadline{Notes: "Extended from Sep 24"}.HasUpdateSignal())
	assert.True(t, Deadline{Notes: "venue changed to LT19"}.HasUpdateSignal())
	assert.False(t, Deadline{Notes: "Submit via Canvas"}.HasUpdateSignal())
	assert.False(t, Deadline{}.HasUpdateSignal())
}

func TestChangeSetJSON(t *testing.T) {
	data, err := json.Marshal(NewChangeSet())
	require.NoError(t, err)
	assert.JSONEq(t, `{"added":[],"removed":[],"modified":[]}`, string(data))

	cs := NewChangeSet()
	assert.True(t, cs.IsEmpty())
	cs.Added = append(cs.Added, Deadline{Title: "Final"})
	assert.False(t, cs.IsEmpty())
	assert.Equal(t, 1, cs.Total())
}

func TestDeadlineJSONRoundTripKeepsNullWeight(t *testing.T) {
	in := `{"date":"2024-11-20","title":"Final Exam","type":"exam","weight":null,"notes":"Open book","course":"CS101"}`
	var d Deadline
	require.NoError(t, json.Unmarshal([]byte(in), &d))
	assert.Nil(t, d.Weight)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCredentials))
	assert.Contains(t, err.Error(), "CANVAS_API_TOKEN")

	cfg.Canvas.APIToken = "tok"
	err = cfg.Validate()
	assert.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")

	cfg.Extraction.Provider = ProviderGemini
	assert.Contains(t, cfg.Validate().Error(), "GEMINI_API_KEY")

	cfg.Extraction.APIKey = "key"
	assert.NoError(t, cfg.Validate())
}

func TestCourseDisplayName(t *testing.T) {
	assert.Equal(t, "Algorithms", Course{ID: 1, Name: "Algorithms", CourseCode: "CS3230"}.DisplayName())
	assert.Equal(t, "CS3230", Course{ID: 1, CourseCode: "CS3230"}.DisplayName())
	assert.Equal(t, "Course 42", Course{ID: 42}.DisplayName())
}
