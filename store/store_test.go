/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("usedItems", `{"movies":["a"]}`))

	v, ok, err := s.Get("usedItems")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"movies":["a"]}`, v)

	require.NoError(t, s.Set("usedItems", `{}`))

	v, _, err = s.Get("usedItems")
	require.NoError(t, err)
	assert.Equal(t, `{}`, v)

	require.NoError(t, s.Remove("usedItems"))
	require.NoError(t, s.Remove("usedItems"))

	_, ok, err = s.Get("usedItems")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestMemoryZeroValue(t *testing.T) {
	var m Memory
	require.NoError(t, m.Set("k", "v"))

	v, ok, err := m.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteInMemory(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}

func TestSQLiteReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "charades.db")

	s, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("bgColor", "#198754"))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path)
	require.NoError(t, err, "migrations must be re-runnable")
	t.Cleanup(func() { _ = s.Close() })

	v, ok, err := s.Get("bgColor")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "#198754", v)

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNamespace(t *testing.T) {
	m := NewMemory()

	alice := Namespace(m, "player:alice:")
	bob := Namespace(m, "player:bob:")

	require.NoError(t, alice.Set("usedItems", "a"))
	require.NoError(t, bob.Set("usedItems", "b"))

	v, _, _ := alice.Get("usedItems")
	assert.Equal(t, "a", v)

	v, _, _ = bob.Get("usedItems")
	assert.Equal(t, "b", v)

	v, _, _ = m.Get("player:bob:usedItems")
	assert.Equal(t, "b", v)

	nested := Namespace(alice, "tab:")
	require.NoError(t, nested.Set("x", "y"))
	_, ok, _ := m.Get("player:alice:tab:x")
	assert.True(t, ok)

	require.NoError(t, alice.Remove("usedItems"))
	_, ok, _ = m.Get("player:alice:usedItems")
	assert.False(t, ok)
}
