package registry

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"devlink/internal/domain"
	"devlink/internal/observability/metrics"
)

// Service is the linked device registry.
type Service struct {
	store    domain.LinkedDeviceStore
	identity domain.IdentityService
	clock    func() time.Time
	log      *slog.Logger
	metrics  *metrics.Metrics

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics counts unlinks on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New returns a registry backed by store. The identity service must be
// initialized before any registry call.
func New(
	store domain.LinkedDeviceStore,
	identity domain.IdentityService,
	clock func() time.Time,
	log *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		store:    store,
		identity: identity,
		clock:    clock,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted registry and makes sure the current device is
// mirrored in it.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	return s.touch(ctx)
}

// LinkedDevices returns every device, current device first, then by most
// recently seen.
func (s *Service) LinkedDevices(ctx context.Context) ([]domain.LinkedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, _, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return sorted(devices), nil
}

// Device returns the entry for id.
func (s *Service) Device(ctx context.Context, id domain.DeviceID) (domain.LinkedDevice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, _, err := s.load(ctx)
	if err != nil {
		return domain.LinkedDevice{}, false, err
	}
	d, ok := devices[id]
	return d, ok, nil
}

// AddDevice inserts a newly linked device. Re-adding a device with the same
// identity key refreshes its metadata; a different key under a known id is
// rejected.
func (s *Service) AddDevice(ctx context.Context, device domain.LinkedDevice) (domain.LinkedDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, current, err := s.load(ctx)
	if err != nil {
		return domain.LinkedDevice{}, err
	}
	if !device.DeviceID.Valid() {
		return domain.LinkedDevice{}, domain.InvalidMessage("malformed device id %q", device.DeviceID)
	}
	if device.DeviceID == current {
		return domain.LinkedDevice{}, domain.InvalidMessage("device %s is the current device", device.DeviceID)
	}
	if device.IdentityPublicKey.IsZero() {
		return domain.LinkedDevice{}, domain.InvalidMessage("device %s has no identity key", device.DeviceID)
	}
	if !device.Platform.Valid() {
		device.Platform = domain.PlatformUnknown
	}

	device.IsCurrentDevice = false
	if device.LastSeen.IsZero() {
		device.LastSeen = s.clock().UTC()
	}
	if existing, ok := devices[device.DeviceID]; ok {
		if existing.IdentityPublicKey != device.IdentityPublicKey {
			return domain.LinkedDevice{}, domain.InvalidMessage(
				"device %s is already linked with a different identity key", device.DeviceID)
		}
		if existing.LastSeen.After(device.LastSeen) {
			device.LastSeen = existing.LastSeen
		}
	}
	devices[device.DeviceID] = device

	if err := s.save(ctx, devices); err != nil {
		return domain.LinkedDevice{}, err
	}
	s.log.Info("device linked",
		slog.String("device_id", device.DeviceID.String()),
		slog.String("platform", device.Platform.String()),
	)
	return device, s.touch(ctx)
}

// UnlinkDevice removes a device from the registry. The current device cannot
// be unlinked.
func (s *Service) UnlinkDevice(ctx context.Context, id domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, current, err := s.load(ctx)
	if err != nil {
		return err
	}
	if id == current {
		return domain.InvalidMessage("cannot unlink the current device")
	}
	if _, ok := devices[id]; !ok {
		return domain.KeyNotFound("device %s is not linked", id)
	}
	delete(devices, id)

	if err := s.save(ctx, devices); err != nil {
		return err
	}
	s.metrics.DeviceUnlinked()
	s.log.Info("device unlinked", slog.String("device_id", id.String()))
	return s.touch(ctx)
}

// UpdateDeviceLastSeen moves the device's LastSeen forward to now. Unknown
// ids are ignored.
func (s *Service) UpdateDeviceLastSeen(ctx context.Context, id domain.DeviceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, _, err := s.load(ctx)
	if err != nil {
		return err
	}
	d, ok := devices[id]
	if !ok {
		return nil
	}
	now := s.clock().UTC()
	if !now.After(d.LastSeen) {
		return nil
	}
	d.LastSeen = now
	devices[id] = d

	if err := s.save(ctx, devices); err != nil {
		return err
	}
	return s.touch(ctx)
}

// RenameCurrent renames this device and refreshes its registry entry.
func (s *Service) RenameCurrent(ctx context.Context, name string) (domain.LinkedDevice, error) {
	if _, err := s.identity.UpdateDeviceName(ctx, name); err != nil {
		return domain.LinkedDevice{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	devices, current, err := s.load(ctx)
	if err != nil {
		return domain.LinkedDevice{}, err
	}
	return devices[current], s.touch(ctx)
}

// load returns the registry keyed by device id with the current device
// mirrored from the identity service. The mirror is persisted when it changed.
func (s *Service) load(ctx context.Context) (map[domain.DeviceID]domain.LinkedDevice, domain.DeviceID, error) {
	local, err := s.identity.LocalDevice()
	if err != nil {
		return nil, "", err
	}
	list, err := s.store.LoadLinkedDevices(ctx)
	if err != nil {
		return nil, "", err
	}

	devices := make(map[domain.DeviceID]domain.LinkedDevice, len(list)+1)
	for _, d := range list {
		d.IsCurrentDevice = false
		devices[d.DeviceID] = d
	}

	mirror := domain.LinkedDevice{
		DeviceID:          local.DeviceID,
		DisplayName:       local.DisplayName,
		Platform:          local.Platform,
		RegistrationID:    local.RegistrationID,
		IdentityPublicKey: local.IdentityKeyPair.Public,
		LastSeen:          local.LastSyncedAt,
	}
	stored, ok := devices[local.DeviceID]
	if ok && stored.LastSeen.After(mirror.LastSeen) {
		mirror.LastSeen = stored.LastSeen
	}
	devices[local.DeviceID] = mirror
	if !ok || !sameEntry(stored, mirror) {
		if err := s.save(ctx, devices); err != nil {
			return nil, "", err
		}
	}

	mirror.IsCurrentDevice = true
	devices[local.DeviceID] = mirror
	return devices, local.DeviceID, nil
}

func (s *Service) save(ctx context.Context, devices map[domain.DeviceID]domain.LinkedDevice) error {
	list := sorted(devices)
	for i := range list {
		list[i].IsCurrentDevice = false
	}
	return s.store.SaveLinkedDevices(ctx, list)
}

func (s *Service) touch(ctx context.Context) error {
	return errors.Wrap(s.identity.Touch(ctx), "record registry sync")
}

func sameEntry(a, b domain.LinkedDevice) bool {
	return a.DeviceID == b.DeviceID &&
		a.DisplayName == b.DisplayName &&
		a.Platform == b.Platform &&
		a.RegistrationID == b.RegistrationID &&
		a.IdentityPublicKey == b.IdentityPublicKey &&
		a.LastSeen.Equal(b.LastSeen)
}

func sorted(devices map[domain.DeviceID]domain.LinkedDevice) []domain.LinkedDevice {
	out := make([]domain.LinkedDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsCurrentDevice != out[j].IsCurrentDevice {
			return out[i].IsCurrentDevice
		}
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	return out
}

// Compile-time assertion that Service implements domain.RegistryService.
var _ domain.RegistryService = (*Service)(nil)
