// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"text/template"
)

// documentPromptTmpl asks the model for every dated obligation in one
// course document.
var documentPromptTmpl = template.Must(template.New("document").Parse(`You are analyzing a course document for "{{.Course}}".
Extract ALL assignment deadlines, exam dates, quiz dates, project deadlines, and any other important academic dates.

Current year context: {{.Year}} (use this for year inference if not explicitly stated)

Document text:
{{.Text}}

Please extract and return ONLY a JSON array of deadline objects. Each object should have:
- "date": ISO format date (YYYY-MM-DD) - infer year from context if not stated
- "title": Brief description of the deadline
- "type": One of ["assignment", "exam", "quiz", "project", "presentation", "other"]
- "weight": Percentage weight if mentioned (or null)
- "notes": Any additional relevant information

Return ONLY the JSON array, no other text. If no deadlines found, return an empty array [].

Example format:
[
  {"date": "{{.Year}}-09-15", "title": "Assignment 1", "type": "assignment", "weight": 10, "notes": "Submit via Canvas"},
  {"date": "{{.Year}}-11-20", "title": "Final Exam", "type": "exam", "weight": 50, "notes": "Open book"}
]
`))

// announcementPromptTmpl asks the model for deadline changes announced in
// one Canvas announcement.
var announcementPromptTmpl = template.Must(template.New("announcement").Parse(`You are analyzing a Canvas announcement from "{{.Course}}" posted on {{.PostedAt}}.
Extract any deadline changes, updates, or new deadlines mentioned.

Current year context: {{.Year}}

Announcement:
{{.Text}}

Please extract and return ONLY a JSON array of deadline objects. Each object should have:
- "date": ISO format date (YYYY-MM-DD)
- "title": Brief description
- "type": One of ["assignment", "exam", "quiz", "project", "presentation", "other"]
- "weight": Percentage weight if mentioned (or null)
- "notes": Any additional info, especially if this is a CHANGE/UPDATE
- "is_update": true if this modifies an existing deadline, false if new

Return ONLY the JSON array, no other text. If no deadlines found, return [].

Example:
[
  {"date": "{{.Year}}-10-01", "title": "Assignment 2", "type": "assignment", "weight": 15,
   "notes": "EXTENDED from Sep 24 to Oct 1", "is_update": true}
]
`))

type promptData struct {
	Course   string
	Year     int
	Text     string
	PostedAt string
}

func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
