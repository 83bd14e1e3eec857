package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type note struct {
	ID   string `json:"id"`
	Body string `json:"body"`
}

func (n note) RecordID() string { return n.ID }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestAppendAndFindByID(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, Append(s, "notes", note{ID: "n1", Body: "hello"}))

	got, err := FindByID[note](s, "notes", "n1")
	require.NoError(t, err)
	assert.Equal(t, "hello", got.Body)

	_, err = FindByID[note](s, "notes", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadAllIsScopedToCollection(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, Append(s, "notes", note{ID: "n1"}))
	require.NoError(t, Append(s, "notes", note{ID: "n2"}))
	require.NoError(t, Append(s, "drafts", note{ID: "d1"}))

	notes, err := ReadAll[note](s, "notes")
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	drafts, err := ReadAll[note](s, "drafts")
	require.NoError(t, err)
	assert.Len(t, drafts, 1)
}

func TestFindOneByAndFindAllBy(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, Append(s, "notes", note{ID: "n1", Body: "a"}))
	require.NoError(t, Append(s, "notes", note{ID: "n2", Body: "b"}))
	require.NoError(t, Append(s, "notes", note{ID: "n3", Body: "b"}))

	one, err := FindOneBy(s, "notes", func(n note) bool { return n.Body == "a" })
	require.NoError(t, err)
	assert.Equal(t, "n1", one.ID)

	_, err = FindOneBy(s, "notes", func(n note) bool { return n.Body == "z" })
	assert.ErrorIs(t, err, ErrNotFound)

	many, err := FindAllBy(s, "notes", func(n note) bool { return n.Body == "b" })
	require.NoError(t, err)
	assert.Len(t, many, 2)
}

func TestUpdateByID(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, Append(s, "notes", note{ID: "n1", Body: "old"}))

	updated, err := UpdateByID(s, "notes", "n1", func(n *note) { n.Body = "new" })
	require.NoError(t, err)
	assert.Equal(t, "new", updated.Body)

	got, err := FindByID[note](s, "notes", "n1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.Body)

	_, err = UpdateByID(s, "notes", "missing", func(n *note) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteByID(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, Append(s, "notes", note{ID: "n1"}))

	deleted, err := DeleteByID(s, "notes", "n1")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = DeleteByID(s, "notes", "n1")
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = FindByID[note](s, "notes", "n1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentUpdatesDoNotInterleave(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, Append(s, "notes", note{ID: "n1", Body: ""}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := UpdateByID(s, "notes", "n1", func(n *note) {
				n.Body += "x"
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := FindByID[note](s, "notes", "n1")
	require.NoError(t, err)
	assert.Len(t, got.Body, 50)
}
