package store_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlink/internal/domain"
	"devlink/internal/store"
)

func TestSealedStore_EncryptsSelectedKeys(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	sealed := store.NewSealedStore(inner, "correct horse", store.KeyLocalDevice)

	secret := []byte(`{"identityPrivateKey":"c2VjcmV0"}`)
	require.NoError(t, sealed.Set(ctx, store.KeyLocalDevice, secret))
	require.NoError(t, sealed.Set(ctx, store.KeyLinkedDevices, []byte("[]")))

	raw, _, err := inner.Get(ctx, store.KeyLocalDevice)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(raw, []byte("c2VjcmV0")), "private material must not be stored in the clear")

	plain, _, err := inner.Get(ctx, store.KeyLinkedDevices)
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), plain)

	got, ok, err := sealed.Get(ctx, store.KeyLocalDevice)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, secret, got)
}

func TestSealedStore_WrongPassphrase(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	require.NoError(t, store.NewSealedStore(inner, "right", store.KeyLocalDevice).
		Set(ctx, store.KeyLocalDevice, []byte("{}")))

	_, _, err := store.NewSealedStore(inner, "wrong", store.KeyLocalDevice).Get(ctx, store.KeyLocalDevice)
	assert.ErrorIs(t, err, domain.ErrCrypto)
}

func TestSealedStore_EnvelopeBoundToKey(t *testing.T) {
	ctx := context.Background()
	inner := store.NewMemoryStore()
	sealed := store.NewSealedStore(inner, "pw", store.KeyLocalDevice, store.KeyPendingLink)

	require.NoError(t, sealed.Set(ctx, store.KeyLocalDevice, []byte("local")))
	raw, _, err := inner.Get(ctx, store.KeyLocalDevice)
	require.NoError(t, err)

	// Moving the envelope to another sealed key must fail authentication.
	require.NoError(t, inner.Set(ctx, store.KeyPendingLink, raw))
	_, _, err = sealed.Get(ctx, store.KeyPendingLink)
	assert.ErrorIs(t, err, domain.ErrCrypto)
}
