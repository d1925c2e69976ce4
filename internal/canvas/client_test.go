// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package canvas

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deadline-tracker/internal/httputil"
	"github.com/pdiddy/deadline-tracker/pkg/types"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	c := NewClient(types.CanvasConfig{
		APIURL:     ts.URL + "/api/v1/",
		APIToken:   "secret-token",
		HTTPConfig: types.HTTPConfig{UserAgent: "deadline-tracker/test"},
	}, ts.Client())
	return c, ts
}

func TestCurrentUser(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/users/self", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "deadline-tracker/test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"id": 7, "name": "Ada Student"}`)
	}))

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.User{ID: 7, Name: "Ada Student"}, u)
}

func TestCurrentUser_Unauthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors":[{"message":"Invalid access token."}]}`)
	}))

	_, err := c.CurrentUser(context.Background())
	require.Error(t, err)

	var se *httputil.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
}

func TestCourses_FollowsPagination(t *testing.T) {
	var serverURL string
	c, ts := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses", r.URL.Path)
		assert.Equal(t, "active", r.URL.Query().Get("enrollment_state"))
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses?enrollment_state=active&page=2&per_page=100>; rel="next", <%s/api/v1/courses?page=1>; rel="first"`, serverURL, serverURL))
			fmt.Fprint(w, `[{"id": 1, "name": "CS101 Programming"}]`)
		case "2":
			w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses?page=1>; rel="first"`, serverURL))
			fmt.Fprint(w, `[{"id": 2, "name": "MA1521 Calculus", "course_code": "MA1521"}]`)
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	serverURL = ts.URL

	courses, err := c.Courses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, int64(1), courses[0].ID)
	assert.Equal(t, "MA1521", courses[1].CourseCode)
}

func TestFiles(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/courses/42/files", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		fmt.Fprint(w, `[{"id": 9, "filename": "L01_Intro.pdf", "display_name": "L01 Intro", "url": "https://files/9?verifier=x", "updated_at": "2024-08-01T00:00:00Z"}]`)
	}))

	files, err := c.Files(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "L01_Intro.pdf", files[0].Filename)
	assert.Equal(t, "2024-08-01T00:00:00Z", files[0].UpdatedAt)
}

func TestFiles_ServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	files, err := c.Files(context.Background(), 42)
	assert.Error(t, err)
	assert.Nil(t, files)
}

func TestAnnouncements_RespectsLimit(t *testing.T) {
	var serverURL string
	c, ts := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/v1/courses/42/discussion_topics", r.URL.Path)
		assert.Equal(t, "true", q.Get("only_announcements"))
		assert.Equal(t, "recent_activity", q.Get("order_by"))
		assert.Equal(t, "2", q.Get("per_page"))
		w.Header().Set("Link", fmt.Sprintf(`<%s/api/v1/courses/42/discussion_topics?page=2>; rel="next"`, serverURL))
		fmt.Fprint(w, `[
			{"id": 1, "title": "Assignment 2 extended", "message": "<p>Now due Oct 1</p>", "posted_at": "2024-09-20T02:00:00Z"},
			{"id": 2, "title": "Welcome", "message": "<p>Hi</p>", "posted_at": "2024-08-10T02:00:00Z"}
		]`)
	}))
	serverURL = ts.URL

	anns, err := c.Announcements(context.Background(), 42, 2)
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "Assignment 2 extended", anns[0].Title)
	assert.Equal(t, "2024-09-20T02:00:00Z", anns[0].PostedAt)
}

func TestDownload(t *testing.T) {
	c, ts := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "file-bytes")
	}))

	dir := t.TempDir()
	dest := LocalPath(dir, "CS101/CS1010", "syllabus.txt")
	assert.Equal(t, filepath.Join(dir, "CS101_CS1010", "syllabus.txt"), dest)

	require.NoError(t, c.Download(context.Background(), ts.URL+"/files/1", dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "file-bytes", string(data))

	missing := LocalPath(dir, "CS101", "gone.pdf")
	require.Error(t, c.Download(context.Background(), ts.URL+"/missing", missing))
	_, err = os.Stat(missing)
	assert.True(t, os.IsNotExist(err), "failed download must not leave a file")
}

func TestLocalPath_Defaults(t *testing.T) {
	assert.Equal(t, filepath.Join("downloaded_materials", "CS101", "a.pdf"), LocalPath("", "CS101", "../a.pdf"))
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{``, ``},
		{`<https://x/api?page=2>; rel="next"`, `https://x/api?page=2`},
		{`<https://x/api?page=1>; rel="current", <https://x/api?page=2>; rel="next", <https://x/api?page=9>; rel="last"`, `https://x/api?page=2`},
		{`<https://x/api?page=9>; rel="last"`, ``},
		{`garbage; rel="next"`, ``},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			assert.Equal(t, tt.want, nextLink(tt.header))
		})
	}
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://x/files/1/download", redact("https://x/files/1/download?verifier=abc"))
	assert.Equal(t, "https://x/courses", redact("https://x/courses"))
}
