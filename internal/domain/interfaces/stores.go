package interfaces

import (
	"context"

	domaintypes "devlink/internal/domain/types"
)

// KeyValueStore is the persistent medium the device subsystem writes through.
// Values are opaque bytes keyed by stable names. Get reports ok=false for an
// absent key rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// LocalDeviceStore persists this installation's identity, private key included.
type LocalDeviceStore interface {
	LoadLocalDevice(ctx context.Context) (domaintypes.LocalDeviceIdentity, bool, error)
	SaveLocalDevice(ctx context.Context, device domaintypes.LocalDeviceIdentity) error
}

// LinkedDeviceStore persists the linked device list (public material only).
type LinkedDeviceStore interface {
	LoadLinkedDevices(ctx context.Context) ([]domaintypes.LinkedDevice, error)
	SaveLinkedDevices(ctx context.Context, devices []domaintypes.LinkedDevice) error
}

// PendingLinkStore persists the single pending link code.
type PendingLinkStore interface {
	LoadPendingLink(ctx context.Context) (domaintypes.PendingLinkCode, bool, error)
	SavePendingLink(ctx context.Context, pending domaintypes.PendingLinkCode) error
	RemovePendingLink(ctx context.Context) error
}

// DeviceDataStore is every device record plus a destructive Clear.
type DeviceDataStore interface {
	LocalDeviceStore
	LinkedDeviceStore
	PendingLinkStore
	Clear(ctx context.Context) error
}
