package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOnFreshStoreReturnsNil(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Load()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)

	blob := []byte("fixed-width-records-go-here")
	require.NoError(t, s.Save(blob))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, blob, got)
	require.NoError(t, s.Close())

	// Reopen and confirm durability across a fresh handle.
	s2, err := Open(dir)
	require.NoError(t, err)
	defer s2.Close()

	got2, err := s2.Load()
	require.NoError(t, err)
	assert.Equal(t, blob, got2)
}

func TestSaveOverwritesPreviousBlob(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save([]byte("first")))
	require.NoError(t, s.Save([]byte("second")))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), got)
}
