// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package canvas

import (
	"regexp"
	"strings"
)

// introKeywords mark course files likely to carry the assessment schedule.
var introKeywords = []string{
	"intro", "introduction", "syllabus", "course outline",
	"schedule", "overview", "course info", "course information",
	"module information", "module info",

	"course schedule", "assessment", "assessments",

	"week 1", "week1", "week 0", "week0",
	"lecture 1", "lecture1", "lecture 0", "lecture0",
	"lec 1", "lec1", "lec 0", "lec0",

	"topic 0", "topic_0", "topic0",

	"ay24", "ay25", "ay26", "s1", "s2",
}

// introPatterns catch numbered first-lecture files: L0, L00a, L01, lec_1,
// topic0, week01 and so on.
var introPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[_\s\-]?l0+[a-z]?[_\s\-]`),
	regexp.MustCompile(`[_\s\-]?l0*1[a-z]?[_\s\-]`),
	regexp.MustCompile(`lec[_\s\-]?0+[_\s\-]`),
	regexp.MustCompile(`lec[_\s\-]?0*1[_\s\-]`),
	regexp.MustCompile(`topic[_\s\-]?0`),
	regexp.MustCompile(`week[_\s\-]?0*1[_\s\-]`),
}

// IsIntroDocument reports whether filename looks like an introduction,
// syllabus, or schedule document.
func IsIntroDocument(filename string) bool {
	lower := strings.ToLower(filename)

	for _, kw := range introKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	for _, re := range introPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}
