package registry_test

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devlink/internal/crypto"
	"devlink/internal/domain"
	"devlink/internal/observability/metrics"
	"devlink/internal/platform"
	"devlink/internal/services/identity"
	"devlink/internal/services/registry"
	"devlink/internal/store"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time          { return c.now }
func (c *fixedClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type fixture struct {
	kv       *store.MemoryStore
	clock    *fixedClock
	identity *identity.Service
	registry *registry.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kv:    store.NewMemoryStore(),
		clock: &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)},
	}
	f.open(t)
	return f
}

// open builds the services over the fixture's storage, like a process start.
func (f *fixture) open(t *testing.T) {
	t.Helper()
	records := store.NewDeviceRecords(f.kv)
	log := slog.New(slog.DiscardHandler)
	f.identity = identity.New(records, crypto.NewPrimitives(), platform.Static(domain.PlatformDesktop), f.clock.Now, log)
	_, err := f.identity.Initialize(context.Background())
	require.NoError(t, err)
	f.registry = registry.New(records, f.identity, f.clock.Now, log)
	require.NoError(t, f.registry.Load(context.Background()))
}

func newPeer(t *testing.T, id string, name string) domain.LinkedDevice {
	t.Helper()
	_, pub, err := crypto.GenerateX25519()
	require.NoError(t, err)
	return domain.LinkedDevice{
		DeviceID:          domain.DeviceID(id),
		DisplayName:       name,
		Platform:          domain.PlatformIOS,
		RegistrationID:    42,
		IdentityPublicKey: pub,
	}
}

func TestRegistry_RequiresIdentity(t *testing.T) {
	records := store.NewDeviceRecords(store.NewMemoryStore())
	log := slog.New(slog.DiscardHandler)
	ids := identity.New(records, crypto.NewPrimitives(), platform.Static(domain.PlatformWeb), time.Now, log)
	reg := registry.New(records, ids, time.Now, log)

	_, err := reg.LinkedDevices(context.Background())
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)
}

func TestRegistry_ContainsCurrentDevice(t *testing.T) {
	f := newFixture(t)
	local, err := f.identity.LocalDevice()
	require.NoError(t, err)

	devices, err := f.registry.LinkedDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 1)

	current := devices[0]
	assert.True(t, current.IsCurrentDevice)
	assert.Equal(t, local.DeviceID, current.DeviceID)
	assert.Equal(t, local.DisplayName, current.DisplayName)
	assert.Equal(t, local.IdentityKeyPair.Public, current.IdentityPublicKey)
	assert.Equal(t, local.RegistrationID, current.RegistrationID)
}

func TestRegistry_CurrentDeviceFollowsRename(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.identity.UpdateDeviceName(ctx, "Studio Mac")
	require.NoError(t, err)

	devices, err := f.registry.LinkedDevices(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Studio Mac", devices[0].DisplayName)
}

func TestRegistry_AddAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	f.clock.Advance(time.Minute)
	added, err := f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)
	assert.False(t, added.IsCurrentDevice)
	assert.Equal(t, f.clock.now, added.LastSeen)

	tablet := newPeer(t, "fedcba9876543210fedcba9876543210", "Tablet")
	f.clock.Advance(time.Minute)
	_, err = f.registry.AddDevice(ctx, tablet)
	require.NoError(t, err)

	devices, err := f.registry.LinkedDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 3)
	assert.True(t, devices[0].IsCurrentDevice)
	assert.Equal(t, tablet.DeviceID, devices[1].DeviceID)
	assert.Equal(t, phone.DeviceID, devices[2].DeviceID)

	current := 0
	for _, d := range devices {
		if d.IsCurrentDevice {
			current++
		}
	}
	assert.Equal(t, 1, current)

	got, ok, err := f.registry.Device(ctx, phone.DeviceID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Phone", got.DisplayName)
	assert.Equal(t, phone.IdentityPublicKey, got.IdentityPublicKey)
}

func TestRegistry_AddRecordsSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.clock.Advance(time.Hour)
	_, err := f.registry.AddDevice(ctx, newPeer(t, "0123456789abcdef0123456789abcdef", "Phone"))
	require.NoError(t, err)

	local, err := f.identity.LocalDevice()
	require.NoError(t, err)
	assert.Equal(t, f.clock.now, local.LastSyncedAt)
}

func TestRegistry_AddRejectsCurrentDevice(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local, err := f.identity.LocalDevice()
	require.NoError(t, err)

	impostor := newPeer(t, local.DeviceID.String(), "Impostor")
	_, err = f.registry.AddDevice(ctx, impostor)
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestRegistry_AddRejectsMalformedID(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local, err := f.identity.LocalDevice()
	require.NoError(t, err)

	ids := map[string]string{
		"uppercase current": strings.ToUpper(local.DeviceID.String()),
		"0x prefix":         "0x" + local.DeviceID.String()[2:],
		"short":             "0123456789abcdef",
		"non hex":           "0123456789abcdef0123456789abcdeg",
	}
	for name, id := range ids {
		t.Run(name, func(t *testing.T) {
			_, err := f.registry.AddDevice(ctx, newPeer(t, id, "Impostor"))
			assert.ErrorIs(t, err, domain.ErrInvalidMessage)
		})
	}

	devices, err := f.registry.LinkedDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestRegistry_AddRejectsKeyChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	_, err := f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)

	swapped := newPeer(t, phone.DeviceID.String(), "Phone")
	_, err = f.registry.AddDevice(ctx, swapped)
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	got, _, err := f.registry.Device(ctx, phone.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, phone.IdentityPublicKey, got.IdentityPublicKey)
}

func TestRegistry_ReAddRefreshesMetadata(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	_, err := f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)

	phone.DisplayName = "Alice's phone"
	_, err = f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)

	devices, err := f.registry.LinkedDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Alice's phone", devices[1].DisplayName)
}

func TestRegistry_Unlink(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	local, err := f.identity.LocalDevice()
	require.NoError(t, err)

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	_, err = f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)

	err = f.registry.UnlinkDevice(ctx, local.DeviceID)
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	err = f.registry.UnlinkDevice(ctx, "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, domain.ErrKeyNotFound)

	require.NoError(t, f.registry.UnlinkDevice(ctx, phone.DeviceID))
	_, ok, err := f.registry.Device(ctx, phone.DeviceID)
	require.NoError(t, err)
	assert.False(t, ok)

	devices, err := f.registry.LinkedDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.True(t, devices[0].IsCurrentDevice)
}

func TestRegistry_UpdateDeviceLastSeen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	_, err := f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)
	start := f.clock.now

	f.clock.Advance(10 * time.Minute)
	require.NoError(t, f.registry.UpdateDeviceLastSeen(ctx, phone.DeviceID))
	got, _, err := f.registry.Device(ctx, phone.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(10*time.Minute), got.LastSeen)

	f.clock.Advance(-time.Hour)
	require.NoError(t, f.registry.UpdateDeviceLastSeen(ctx, phone.DeviceID))
	got, _, err = f.registry.Device(ctx, phone.DeviceID)
	require.NoError(t, err)
	assert.Equal(t, start.Add(10*time.Minute), got.LastSeen, "last seen never moves backwards")

	assert.NoError(t, f.registry.UpdateDeviceLastSeen(ctx, "ffffffffffffffffffffffffffffffff"))
}

func TestRegistry_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	_, err := f.registry.AddDevice(ctx, phone)
	require.NoError(t, err)

	f.open(t)
	devices, err := f.registry.LinkedDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, phone.DeviceID, devices[1].DeviceID)
	assert.Equal(t, phone.IdentityPublicKey, devices[1].IdentityPublicKey)
}

func TestRegistry_RenameCurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	entry, err := f.registry.RenameCurrent(ctx, "Kitchen iPad")
	require.NoError(t, err)
	assert.True(t, entry.IsCurrentDevice)
	assert.Equal(t, "Kitchen iPad", entry.DisplayName)

	local, err := f.identity.LocalDevice()
	require.NoError(t, err)
	assert.Equal(t, "Kitchen iPad", local.DisplayName)

	_, err = f.registry.RenameCurrent(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)
}

func TestRegistry_CountsUnlinks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := metrics.New(prometheus.NewRegistry())
	reg := registry.New(store.NewDeviceRecords(f.kv), f.identity, f.clock.Now, slog.New(slog.DiscardHandler),
		registry.WithMetrics(m))

	phone := newPeer(t, "0123456789abcdef0123456789abcdef", "Phone")
	_, err := reg.AddDevice(ctx, phone)
	require.NoError(t, err)
	require.NoError(t, reg.UnlinkDevice(ctx, phone.DeviceID))
	assert.Error(t, reg.UnlinkDevice(ctx, phone.DeviceID))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DevicesUnlinked))
}
