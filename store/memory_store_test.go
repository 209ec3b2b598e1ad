package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	type doc struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	var missing doc
	assert.ErrorIs(t, s.Load(KeyTeams, &missing), ErrNotFound)

	require.NoError(t, s.Save(KeyTeams, doc{Name: "Heritage Team", Score: 1200}))

	var got doc
	require.NoError(t, s.Load(KeyTeams, &got))
	assert.Equal(t, "Heritage Team", got.Name)
	assert.Equal(t, 1200, got.Score)

	// Saves replace wholesale.
	require.NoError(t, s.Save(KeyTeams, doc{Name: "Canvas Elite"}))
	require.NoError(t, s.Load(KeyTeams, &got))
	assert.Equal(t, "Canvas Elite", got.Name)
	assert.Equal(t, 0, got.Score)

	assert.NoError(t, s.Close())
}

func TestMemoryStoreDecodeMismatch(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Save(KeySortConfig, map[string]string{"key": "score"}))

	var wrong []int
	assert.Error(t, s.Load(KeySortConfig, &wrong))
}
