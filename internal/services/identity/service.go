package identity

import (
	"context"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/pkg/errors"

	"devlink/internal/crypto"
	"devlink/internal/domain"
)

const (
	// maxDeviceNameLength is the longest display name accepted, in runes.
	maxDeviceNameLength = 64
)

// WipeConfirmation must equal ConfirmWipe for ClearAllDeviceData to run.
type WipeConfirmation string

// ConfirmWipe is the explicit acknowledgement ClearAllDeviceData requires.
const ConfirmWipe WipeConfirmation = "I understand this permanently destroys this device's identity"

// Service owns the local device identity: the root of trust for this device.
//
// The identity contains:
//   - A 128-bit device id, fixed at creation.
//   - An X25519 identity key pair whose private half never leaves the store.
//   - A registration id and platform-derived display name.
type Service struct {
	store     domain.DeviceDataStore
	prims     domain.Primitives
	platforms domain.PlatformProvider
	clock     func() time.Time
	log       *slog.Logger

	mu    sync.RWMutex
	local *domain.LocalDeviceIdentity
}

// New returns an identity service. Nothing is loaded until Initialize.
func New(
	store domain.DeviceDataStore,
	prims domain.Primitives,
	platforms domain.PlatformProvider,
	clock func() time.Time,
	log *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		prims:     prims,
		platforms: platforms,
		clock:     clock,
		log:       log,
	}
}

// Initialize loads the persisted identity or, if none exists, generates and
// persists a new one. Repeated calls return the same identity.
func (s *Service) Initialize(ctx context.Context) (domain.LocalDeviceIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.local != nil {
		return *s.local, nil
	}

	local, ok, err := s.store.LoadLocalDevice(ctx)
	if err != nil {
		return domain.LocalDeviceIdentity{}, err
	}
	if ok {
		if err := checkIntegrity(local); err != nil {
			return domain.LocalDeviceIdentity{}, err
		}
		s.local = &local
		s.log.Debug("loaded device identity", slog.String("device_id", local.DeviceID.String()))
		return local, nil
	}

	local, err = s.generate()
	if err != nil {
		return domain.LocalDeviceIdentity{}, err
	}
	if err := s.store.SaveLocalDevice(ctx, local); err != nil {
		return domain.LocalDeviceIdentity{}, err
	}
	s.local = &local
	s.log.Info("created device identity",
		slog.String("device_id", local.DeviceID.String()),
		slog.String("platform", local.Platform.String()),
		slog.String("fingerprint", crypto.Fingerprint(local.IdentityKeyPair.Public).String()),
	)
	return local, nil
}

// LocalDevice returns the initialized identity.
func (s *Service) LocalDevice() (domain.LocalDeviceIdentity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.local == nil {
		return domain.LocalDeviceIdentity{}, domain.KeyNotFound("device identity not initialized")
	}
	return *s.local, nil
}

// DeviceID returns the local device id.
func (s *Service) DeviceID() (domain.DeviceID, error) {
	local, err := s.LocalDevice()
	if err != nil {
		return "", err
	}
	return local.DeviceID, nil
}

// IdentityKeyPair returns the local identity key pair. The private half is
// for in-process use only.
func (s *Service) IdentityKeyPair() (domain.KeyPair, error) {
	local, err := s.LocalDevice()
	if err != nil {
		return domain.KeyPair{}, err
	}
	return local.IdentityKeyPair, nil
}

// Fingerprint returns a short fingerprint of the identity public key.
func (s *Service) Fingerprint() (domain.Fingerprint, error) {
	local, err := s.LocalDevice()
	if err != nil {
		return "", err
	}
	return crypto.Fingerprint(local.IdentityKeyPair.Public), nil
}

// UpdateDeviceName changes only the display name and persists it.
func (s *Service) UpdateDeviceName(ctx context.Context, name string) (domain.LocalDeviceIdentity, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxDeviceNameLength {
		return domain.LocalDeviceIdentity{}, domain.InvalidMessage(
			"device name must be 1-%d characters", maxDeviceNameLength)
	}

	return s.mutate(ctx, func(d *domain.LocalDeviceIdentity) { d.DisplayName = name })
}

// Touch records a successful registry interaction in LastSyncedAt.
func (s *Service) Touch(ctx context.Context) error {
	now := s.clock().UTC()
	_, err := s.mutate(ctx, func(d *domain.LocalDeviceIdentity) {
		if now.After(d.LastSyncedAt) {
			d.LastSyncedAt = now
		}
	})
	return err
}

// ClearAllDeviceData irreversibly erases the local identity, the linked
// device registry and any pending link code. Messages addressed to this
// identity can no longer be decrypted afterwards. confirm must be ConfirmWipe.
func (s *Service) ClearAllDeviceData(ctx context.Context, confirm WipeConfirmation) error {
	if confirm != ConfirmWipe {
		return domain.InvalidMessage("device wipe requires explicit confirmation")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	if s.local != nil {
		crypto.WipeKeyPair(&s.local.IdentityKeyPair)
		s.log.Warn("device data wiped", slog.String("device_id", s.local.DeviceID.String()))
	}
	s.local = nil
	return nil
}

// mutate applies fn to a copy of the identity, persists it, then publishes it.
func (s *Service) mutate(
	ctx context.Context,
	fn func(*domain.LocalDeviceIdentity),
) (domain.LocalDeviceIdentity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.local == nil {
		return domain.LocalDeviceIdentity{}, domain.KeyNotFound("device identity not initialized")
	}
	next := *s.local
	fn(&next)
	if err := s.store.SaveLocalDevice(ctx, next); err != nil {
		return domain.LocalDeviceIdentity{}, err
	}
	s.local = &next
	return next, nil
}

func (s *Service) generate() (domain.LocalDeviceIdentity, error) {
	keyPair, err := s.prims.GenerateKeyPair()
	if err != nil {
		return domain.LocalDeviceIdentity{}, domain.CryptoError(err, "generate identity key pair")
	}
	registrationID, err := s.prims.GenerateRegistrationID()
	if err != nil {
		return domain.LocalDeviceIdentity{}, domain.CryptoError(err, "generate registration id")
	}
	deviceID, err := crypto.NewDeviceID(s.prims)
	if err != nil {
		return domain.LocalDeviceIdentity{}, domain.CryptoError(err, "generate device id")
	}

	platform := s.platforms.Platform()
	if !platform.Valid() {
		platform = domain.PlatformUnknown
	}
	now := s.clock().UTC()
	return domain.LocalDeviceIdentity{
		DeviceID:        deviceID,
		DisplayName:     platform.DefaultDeviceName(),
		Platform:        platform,
		IdentityKeyPair: keyPair,
		RegistrationID:  registrationID,
		CreatedAt:       now,
		LastSyncedAt:    now,
	}, nil
}

// checkIntegrity rejects a persisted identity whose id or keys are damaged.
func checkIntegrity(d domain.LocalDeviceIdentity) error {
	if b, err := hex.DecodeString(d.DeviceID.String()); err != nil || len(b) != 16 {
		return domain.StorageError(errCorruptIdentity, "device id "+d.DeviceID.String())
	}
	pub, err := crypto.PublicFromPrivate(d.IdentityKeyPair.Private)
	if err != nil {
		return domain.StorageError(err, "derive identity public key")
	}
	if pub != d.IdentityKeyPair.Public {
		return domain.StorageError(errCorruptIdentity, "identity key pair mismatch")
	}
	return nil
}

var errCorruptIdentity = errors.New("corrupt local device record")

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
