package store

import (
	"context"

	"devlink/internal/domain"
)

// SealedStore encrypts selected keys at rest with a passphrase before handing
// them to the inner store. Other keys pass through unchanged.
type SealedStore struct {
	inner      domain.KeyValueStore
	passphrase string
	sealed     map[string]bool
	params     scryptParams
}

// NewSealedStore seals the given keys of inner under passphrase.
func NewSealedStore(inner domain.KeyValueStore, passphrase string, keys ...string) *SealedStore {
	sealed := make(map[string]bool, len(keys))
	for _, k := range keys {
		sealed[k] = true
	}
	return &SealedStore{
		inner:      inner,
		passphrase: passphrase,
		sealed:     sealed,
		params:     scryptParamsDefault(),
	}
}

func (s *SealedStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, ok, err := s.inner.Get(ctx, key)
	if err != nil || !ok || !s.sealed[key] {
		return b, ok, err
	}
	pt, err := open(s.passphrase, key, b)
	if err != nil {
		return nil, false, domain.CryptoError(err, "open sealed "+key)
	}
	return pt, true, nil
}

func (s *SealedStore) Set(ctx context.Context, key string, value []byte) error {
	if !s.sealed[key] {
		return s.inner.Set(ctx, key, value)
	}
	ct, err := seal(s.passphrase, key, value, s.params)
	if err != nil {
		return domain.CryptoError(err, "seal "+key)
	}
	return s.inner.Set(ctx, key, ct)
}

func (s *SealedStore) Remove(ctx context.Context, key string) error {
	return s.inner.Remove(ctx, key)
}

// Compile-time assertion that SealedStore implements domain.KeyValueStore.
var _ domain.KeyValueStore = (*SealedStore)(nil)
