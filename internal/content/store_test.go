package content

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeRefIsStable(t *testing.T) {
	ref, err := ComputeRef([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e", ref)

	again, err := ComputeRef([]byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, ref, again)

	other, err := ComputeRef([]byte("hello world!"))
	require.NoError(t, err)
	assert.NotEqual(t, ref, other)
}

func TestParseRef(t *testing.T) {
	canonical, err := ParseRef("bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e")
	require.NoError(t, err)
	assert.Equal(t, "bafkreifzjut3te2nhyekklss27nh3k72ysco7y32koao5eei66wof36n5e", canonical)

	_, err = ParseRef("not-a-cid")
	assert.ErrorIs(t, err, ErrInvalidRef)
	_, err = ParseRef("")
	assert.ErrorIs(t, err, ErrInvalidRef)
}

func TestVerify(t *testing.T) {
	data := []byte("banner bytes")
	ref, err := ComputeRef(data)
	require.NoError(t, err)

	assert.NoError(t, Verify(ref, data))
	assert.ErrorIs(t, Verify(ref, []byte("tampered")), ErrInvalidRef)
	assert.ErrorIs(t, Verify("garbage", data), ErrInvalidRef)
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://localhost:8080/api/v1/content")

	data := []byte("creative")
	ref, err := store.Put(ctx, data)
	require.NoError(t, err)
	assert.NoError(t, Verify(ref, data))
	assert.Equal(t, "http://localhost:8080/api/v1/content/"+ref, store.URL(ref))

	data[0] = 'X'
	got, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "creative", string(got))

	missing, err := ComputeRef([]byte("never stored"))
	require.NoError(t, err)
	_, err = store.Get(ctx, missing)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidRef)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = store.Put(cancelled, data)
	assert.ErrorIs(t, err, ErrUnavailable)
}
