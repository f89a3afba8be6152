package interfaces

import (
	"context"

	domaintypes "devlink/internal/domain/types"
)

// IdentityService owns the local device identity.
type IdentityService interface {
	Initialize(ctx context.Context) (domaintypes.LocalDeviceIdentity, error)
	LocalDevice() (domaintypes.LocalDeviceIdentity, error)
	DeviceID() (domaintypes.DeviceID, error)
	IdentityKeyPair() (domaintypes.KeyPair, error)
	Fingerprint() (domaintypes.Fingerprint, error)
	UpdateDeviceName(ctx context.Context, name string) (domaintypes.LocalDeviceIdentity, error)
	Touch(ctx context.Context) error
}

// RegistryService is the authoritative list of devices trusted for the account.
type RegistryService interface {
	LinkedDevices(ctx context.Context) ([]domaintypes.LinkedDevice, error)
	Device(ctx context.Context, id domaintypes.DeviceID) (domaintypes.LinkedDevice, bool, error)
	AddDevice(ctx context.Context, device domaintypes.LinkedDevice) (domaintypes.LinkedDevice, error)
	UnlinkDevice(ctx context.Context, id domaintypes.DeviceID) error
	UpdateDeviceLastSeen(ctx context.Context, id domaintypes.DeviceID) error
}

// LinkingService runs the device linking state machine on both sides.
type LinkingService interface {
	GenerateLinkCode(ctx context.Context) (domaintypes.LinkPayload, error)
	VerifyLinkCode(ctx context.Context, code string) (bool, error)
	CompleteLinking(ctx context.Context, code string, payload string) (domaintypes.LinkRequest, error)
	AcceptDeviceLink(
		ctx context.Context,
		publicKey domaintypes.X25519Public,
		info domaintypes.DeviceInfo,
	) (domaintypes.LinkedDevice, error)
	AcceptLinkRequest(ctx context.Context, req domaintypes.LinkRequest) (domaintypes.LinkedDevice, error)
	CancelLink(ctx context.Context) error
	State(ctx context.Context) (domaintypes.LinkState, error)
}
