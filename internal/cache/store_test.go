// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cache

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/deadline-tracker/pkg/types"
)

func testStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "extractions.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestOpenCreatesSchema(t *testing.T) {
	s, path := testStore(t)

	_, err := os.Stat(path)
	require.NoError(t, err)

	var name string
	err = s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='extractions'`).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, "extractions", name)
}

func TestGetPut(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	w := 30.0
	key := Key{Kind: KindFile, CourseID: 1, SourceID: 9, Version: "2024-08-01T00:00:00Z"}
	records := []types.Deadline{{Date: "2024-10-15", Title: "Midterm", Type: types.TypeExam, Weight: &w, Course: "CS101"}}

	_, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok, "empty cache")

	require.NoError(t, s.Put(ctx, key, records))

	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, records, got)

	stale := key
	stale.Version = "2024-09-01T00:00:00Z"
	_, ok, err = s.Get(ctx, stale)
	require.NoError(t, err)
	assert.False(t, ok, "new version misses")

	other := key
	other.Kind = KindAnnouncement
	_, ok, err = s.Get(ctx, other)
	require.NoError(t, err)
	assert.False(t, ok, "kinds are separate")
}

func TestPutReplacesVersion(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	key := Key{Kind: KindFile, CourseID: 1, SourceID: 9, Version: "v1"}

	require.NoError(t, s.Put(ctx, key, []types.Deadline{{Title: "Old"}}))
	key.Version = "v2"
	require.NoError(t, s.Put(ctx, key, []types.Deadline{{Title: "New"}}))

	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "New", got[0].Title)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPutEmptyResultIsAHit(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	key := Key{Kind: KindAnnouncement, CourseID: 2, SourceID: 5, Version: "2024-09-20T02:00:00Z"}

	require.NoError(t, s.Put(ctx, key, nil))
	got, ok, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPurge(t *testing.T) {
	s, _ := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, Key{Kind: KindFile, CourseID: 1, SourceID: 1, Version: "a"}, nil))
	require.NoError(t, s.Put(ctx, Key{Kind: KindFile, CourseID: 1, SourceID: 2, Version: "a"}, nil))

	require.NoError(t, s.Purge(ctx))
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReopenKeepsEntries(t *testing.T) {
	s, path := testStore(t)
	ctx := context.Background()
	key := Key{Kind: KindFile, CourseID: 3, SourceID: 4, Version: "a"}
	require.NoError(t, s.Put(ctx, key, []types.Deadline{{Title: "Quiz 1"}}))
	require.NoError(t, s.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, ok, err := s2.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Quiz 1", got[0].Title)
}

func TestGetCorruptEntry(t *testing.T) {
	s, _ := testStore(t)
	_, err := s.db.Exec(`INSERT INTO extractions VALUES ('file', 1, 1, 'a', 'not json', 'x')`)
	require.NoError(t, err)

	_, _, err = s.Get(context.Background(), Key{Kind: KindFile, CourseID: 1, SourceID: 1, Version: "a"})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}
