package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a.pdf", []byte("%PDF-1.4")))

	data, err := s.Get(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), data)

	// returned slices are copies
	data[0] = 'X'
	again, err := s.Get(ctx, "a.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), again)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Put(ctx, "a.pdf", []byte("x")))
	require.NoError(t, s.Delete(ctx, "a.pdf"))

	_, err := s.Get(ctx, "a.pdf")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting a missing object is not an error
	assert.NoError(t, s.Delete(ctx, "gone.pdf"))
}

func TestMemoryStoreMissing(t *testing.T) {
	_, err := NewMemoryStore().Get(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, ErrNotFound)
}
