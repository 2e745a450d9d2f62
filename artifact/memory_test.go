package artifact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryStore_SaveAppendsVersions(t *testing.T) {
	store := NewInMemoryStore()

	v1, err := store.Save("conv-1", "plan.json", []byte(`{"steps":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, v1)

	v2, err := store.Save("conv-1", "plan.json", []byte(`{"steps":["a"]}`))
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	latest, err := store.Load("conv-1", "plan.json", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, `{"steps":["a"]}`, string(latest.Data))

	first, err := store.Load("conv-1", "plan.json", 1)
	require.NoError(t, err)
	assert.Equal(t, `{"steps":[]}`, string(first.Data))
}

func TestInMemoryStore_LoadMissing(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.Load("conv-1", "nothing", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, _ = store.Save("conv-1", "plan.json", []byte("x"))
	_, err = store.Load("conv-1", "plan.json", 5)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_ListSorted(t *testing.T) {
	store := NewInMemoryStore()

	_, _ = store.Save("conv-1", "zeta.txt", []byte("z"))
	_, _ = store.Save("conv-1", "alpha.txt", []byte("a"))
	_, _ = store.Save("conv-2", "other.txt", []byte("o"))

	names, err := store.List("conv-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.txt", "zeta.txt"}, names)

	empty, err := store.List("conv-3")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestInMemoryStore_Delete(t *testing.T) {
	store := NewInMemoryStore()

	_, _ = store.Save("conv-1", "plan.json", []byte("v1"))
	_, _ = store.Save("conv-1", "plan.json", []byte("v2"))

	require.NoError(t, store.Delete("conv-1", "plan.json"))
	_, err := store.Load("conv-1", "plan.json", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Delete("conv-1", "plan.json"), ErrNotFound)
	assert.ErrorIs(t, store.Delete("conv-9", "plan.json"), ErrNotFound)
}

func TestInMemoryStore_CopiesData(t *testing.T) {
	store := NewInMemoryStore()

	data := []byte("original")
	_, err := store.Save("conv-1", "note.txt", data)
	require.NoError(t, err)

	data[0] = 'X'

	got, err := store.Load("conv-1", "note.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, "original", string(got.Data))

	got.Data[0] = 'Y'
	again, err := store.Load("conv-1", "note.txt", 0)
	require.NoError(t, err)
	assert.Equal(t, "original", string(again.Data))
}
