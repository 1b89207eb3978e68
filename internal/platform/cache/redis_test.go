package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobs_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client.Close()

	blobs := NewBlobs(client, "docudesk:pdf", time.Hour)
	ctx := context.Background()

	_, ok, err := blobs.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, blobs.Set(ctx, "abc", []byte("%PDF-1.3")))
	got, ok, err := blobs.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("%PDF-1.3"), got)
	assert.True(t, mr.Exists("docudesk:pdf:abc"))

	mr.FastForward(2 * time.Hour)
	_, ok, err = blobs.Get(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok, "entries expire after the ttl")
}

func TestNew_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), addr)
	assert.Error(t, err)
}

func TestBlobs_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := New(context.Background(), mr.Addr())
	require.NoError(t, err)
	defer client.Close()
	mr.Close()

	_, _, err = NewBlobs(client, "p", 0).Get(context.Background(), "k")
	assert.Error(t, err)
}
