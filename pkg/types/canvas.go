// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strconv"

// User is the authenticated Canvas account.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Course is an enrolled Canvas course.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code"`
}

// DisplayName returns the course name, falling back to the course code or id.
func (c Course) DisplayName() string {
	switch {
	case c.Name != "":
		return c.Name
	case c.CourseCode != "":
		return c.CourseCode
	default:
		return "Course " + strconv.FormatInt(c.ID, 10)
	}
}

// File is a file attached to a course.
type File struct {
	ID          int64  `json:"id"`
	Filename    string `json:"filename"`
	DisplayName string `json:"display_name"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	UpdatedAt   string `json:"updated_at"`
}

// Announcement is a course announcement (a Canvas discussion topic).
// Message is HTML.
type Announcement struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	PostedAt string `json:"posted_at"`
}
