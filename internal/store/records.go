package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"devlink/internal/domain"
)

type localDeviceRecord struct {
	DeviceID           string    `json:"deviceId"`
	DisplayName        string    `json:"displayName"`
	Platform           string    `json:"platform"`
	IdentityPublicKey  string    `json:"identityPublicKey"`
	IdentityPrivateKey string    `json:"identityPrivateKey"`
	RegistrationID     uint32    `json:"registrationId"`
	CreatedAt          time.Time `json:"createdAt"`
	LastSyncedAt       time.Time `json:"lastSyncedAt"`
}

type linkedDeviceRecord struct {
	DeviceID          string    `json:"deviceId"`
	DisplayName       string    `json:"displayName"`
	Platform          string    `json:"platform"`
	IdentityPublicKey string    `json:"identityPublicKey"`
	RegistrationID    uint32    `json:"registrationId"`
	LastSeen          time.Time `json:"lastSeen"`
}

type pendingLinkRecord struct {
	LinkID         string    `json:"linkId"`
	Code           string    `json:"code"`
	Secret         string    `json:"secret"`
	ExpiresAt      time.Time `json:"expiresAt"`
	SourceDeviceID string    `json:"sourceDeviceId"`
}

// DeviceRecords (de)serializes the device subsystem's three records over a
// KeyValueStore. Store failures are classified as STORAGE_ERROR.
type DeviceRecords struct {
	kv domain.KeyValueStore
}

// NewDeviceRecords returns a codec writing through kv.
func NewDeviceRecords(kv domain.KeyValueStore) *DeviceRecords {
	return &DeviceRecords{kv: kv}
}

// LoadLocalDevice returns the persisted local identity, if any.
func (r *DeviceRecords) LoadLocalDevice(ctx context.Context) (domain.LocalDeviceIdentity, bool, error) {
	var rec localDeviceRecord
	ok, err := r.load(ctx, KeyLocalDevice, &rec)
	if err != nil || !ok {
		return domain.LocalDeviceIdentity{}, false, err
	}

	pub, err := decodeKey(rec.IdentityPublicKey)
	if err != nil {
		return domain.LocalDeviceIdentity{}, false, domain.StorageError(err, "decode identity public key")
	}
	priv, err := decodeKey(rec.IdentityPrivateKey)
	if err != nil {
		return domain.LocalDeviceIdentity{}, false, domain.StorageError(err, "decode identity private key")
	}
	return domain.LocalDeviceIdentity{
		DeviceID:    domain.DeviceID(rec.DeviceID),
		DisplayName: rec.DisplayName,
		Platform:    domain.Platform(rec.Platform),
		IdentityKeyPair: domain.KeyPair{
			Public:  domain.X25519Public(pub),
			Private: domain.X25519Private(priv),
		},
		RegistrationID: domain.RegistrationID(rec.RegistrationID),
		CreatedAt:      rec.CreatedAt,
		LastSyncedAt:   rec.LastSyncedAt,
	}, true, nil
}

// SaveLocalDevice persists the local identity including its private key.
func (r *DeviceRecords) SaveLocalDevice(ctx context.Context, d domain.LocalDeviceIdentity) error {
	rec := localDeviceRecord{
		DeviceID:           d.DeviceID.String(),
		DisplayName:        d.DisplayName,
		Platform:           d.Platform.String(),
		IdentityPublicKey:  base64.StdEncoding.EncodeToString(d.IdentityKeyPair.Public.Slice()),
		IdentityPrivateKey: base64.StdEncoding.EncodeToString(d.IdentityKeyPair.Private.Slice()),
		RegistrationID:     uint32(d.RegistrationID),
		CreatedAt:          d.CreatedAt,
		LastSyncedAt:       d.LastSyncedAt,
	}
	return r.save(ctx, KeyLocalDevice, rec)
}

// LoadLinkedDevices returns the persisted registry. IsCurrentDevice is left
// false; the registry derives it.
func (r *DeviceRecords) LoadLinkedDevices(ctx context.Context) ([]domain.LinkedDevice, error) {
	var recs []linkedDeviceRecord
	if _, err := r.load(ctx, KeyLinkedDevices, &recs); err != nil {
		return nil, err
	}
	out := make([]domain.LinkedDevice, 0, len(recs))
	for _, rec := range recs {
		pub, err := decodeKey(rec.IdentityPublicKey)
		if err != nil {
			return nil, domain.StorageError(err, "decode linked device "+rec.DeviceID)
		}
		out = append(out, domain.LinkedDevice{
			DeviceID:          domain.DeviceID(rec.DeviceID),
			DisplayName:       rec.DisplayName,
			Platform:          domain.Platform(rec.Platform),
			RegistrationID:    domain.RegistrationID(rec.RegistrationID),
			IdentityPublicKey: domain.X25519Public(pub),
			LastSeen:          rec.LastSeen,
		})
	}
	return out, nil
}

// SaveLinkedDevices replaces the persisted registry.
func (r *DeviceRecords) SaveLinkedDevices(ctx context.Context, devices []domain.LinkedDevice) error {
	recs := make([]linkedDeviceRecord, 0, len(devices))
	for _, d := range devices {
		recs = append(recs, linkedDeviceRecord{
			DeviceID:          d.DeviceID.String(),
			DisplayName:       d.DisplayName,
			Platform:          d.Platform.String(),
			IdentityPublicKey: base64.StdEncoding.EncodeToString(d.IdentityPublicKey.Slice()),
			RegistrationID:    uint32(d.RegistrationID),
			LastSeen:          d.LastSeen,
		})
	}
	return r.save(ctx, KeyLinkedDevices, recs)
}

// LoadPendingLink returns the pending link code, if any. Expiry is not
// checked here.
func (r *DeviceRecords) LoadPendingLink(ctx context.Context) (domain.PendingLinkCode, bool, error) {
	var rec pendingLinkRecord
	ok, err := r.load(ctx, KeyPendingLink, &rec)
	if err != nil || !ok {
		return domain.PendingLinkCode{}, false, err
	}
	secret, err := base64.StdEncoding.DecodeString(rec.Secret)
	if err != nil {
		return domain.PendingLinkCode{}, false, domain.StorageError(err, "decode pending link secret")
	}
	return domain.PendingLinkCode{
		LinkID:         rec.LinkID,
		Code:           rec.Code,
		Secret:         secret,
		ExpiresAt:      rec.ExpiresAt,
		SourceDeviceID: domain.DeviceID(rec.SourceDeviceID),
	}, true, nil
}

// SavePendingLink replaces the pending link code.
func (r *DeviceRecords) SavePendingLink(ctx context.Context, p domain.PendingLinkCode) error {
	return r.save(ctx, KeyPendingLink, pendingLinkRecord{
		LinkID:         p.LinkID,
		Code:           p.Code,
		Secret:         base64.StdEncoding.EncodeToString(p.Secret),
		ExpiresAt:      p.ExpiresAt,
		SourceDeviceID: p.SourceDeviceID.String(),
	})
}

// RemovePendingLink clears the pending link code.
func (r *DeviceRecords) RemovePendingLink(ctx context.Context) error {
	if err := r.kv.Remove(ctx, KeyPendingLink); err != nil {
		return domain.StorageError(err, "remove "+KeyPendingLink)
	}
	return nil
}

// Clear removes all three records. Every key is attempted; the first error
// is returned.
func (r *DeviceRecords) Clear(ctx context.Context) error {
	var first error
	for _, key := range AllKeys {
		if err := r.kv.Remove(ctx, key); err != nil && first == nil {
			first = domain.StorageError(err, "remove "+key)
		}
	}
	return first
}

func (r *DeviceRecords) load(ctx context.Context, key string, out any) (bool, error) {
	b, ok, err := r.kv.Get(ctx, key)
	if err != nil {
		return false, domain.StorageError(err, "get "+key)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, domain.StorageError(err, "decode "+key)
	}
	return true, nil
}

func (r *DeviceRecords) save(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	if err := r.kv.Set(ctx, key, b); err != nil {
		return domain.StorageError(err, "set "+key)
	}
	return nil
}

func decodeKey(s string) ([32]byte, error) {
	var out [32]byte
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != len(out) {
		return out, fmt.Errorf("want %d key bytes, got %d", len(out), len(b))
	}
	copy(out[:], b)
	return out, nil
}

// Compile-time assertion that DeviceRecords implements domain.DeviceDataStore.
var _ domain.DeviceDataStore = (*DeviceRecords)(nil)
