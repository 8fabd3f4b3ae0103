package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blob struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryStorage_MissingKeyIsNotAnError(t *testing.T) {
	s := NewMemoryStorage()
	v, ok, err := s.GetItem("nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, v)
}

func TestLoadJSON_RoundTrip(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, SaveJSON(s, "k", blob{Name: "a", Count: 3}))

	var out blob
	found, err := LoadJSON(s, "k", &out)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, blob{Name: "a", Count: 3}, out)
}

func TestLoadJSON_MalformedTreatedAsAbsent(t *testing.T) {
	s := NewMemoryStorage()
	require.NoError(t, s.SetItem("k", "{not json"))

	var out blob
	found, err := LoadJSON(s, "k", &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, blob{}, out)
}

func TestLevelDBStorage_PersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")

	s, err := NewLevelDBStorage(dir)
	require.NoError(t, err)
	require.NoError(t, s.SetItem("connectedWallet", "0xabc"))
	require.NoError(t, s.SetItem("gone", "x"))
	require.NoError(t, s.RemoveItem("gone"))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	s, err = NewLevelDBStorage(dir)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.GetItem("connectedWallet")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "0xabc", v)

	_, ok, err = s.GetItem("gone")
	require.NoError(t, err)
	assert.False(t, ok)
}
