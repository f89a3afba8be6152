package domain

import (
	interfaces "devlink/internal/domain/interfaces"
	types "devlink/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	DeviceID            = types.DeviceID
	Fingerprint         = types.Fingerprint
	RegistrationID      = types.RegistrationID
	Platform            = types.Platform
	X25519Public        = types.X25519Public
	X25519Private       = types.X25519Private
	KeyPair             = types.KeyPair
	LocalDeviceIdentity = types.LocalDeviceIdentity
	LinkedDevice        = types.LinkedDevice
	DeviceInfo          = types.DeviceInfo
	LinkState           = types.LinkState
	PendingLinkCode     = types.PendingLinkCode
	LinkPayload         = types.LinkPayload
	LinkRequest         = types.LinkRequest
)

// Platform values.
const (
	PlatformIOS     = types.PlatformIOS
	PlatformAndroid = types.PlatformAndroid
	PlatformDesktop = types.PlatformDesktop
	PlatformWeb     = types.PlatformWeb
	PlatformUnknown = types.PlatformUnknown
)

// Link state machine values.
const (
	LinkStateIdle          = types.LinkStateIdle
	LinkStateCodeGenerated = types.LinkStateCodeGenerated
	LinkStateLinked        = types.LinkStateLinked
	LinkStateExpired       = types.LinkStateExpired
	LinkStateCancelled     = types.LinkStateCancelled
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	KeyValueStore     = interfaces.KeyValueStore
	LocalDeviceStore  = interfaces.LocalDeviceStore
	LinkedDeviceStore = interfaces.LinkedDeviceStore
	PendingLinkStore  = interfaces.PendingLinkStore
	DeviceDataStore   = interfaces.DeviceDataStore
	Primitives        = interfaces.Primitives
	PlatformProvider  = interfaces.PlatformProvider
	IdentityService   = interfaces.IdentityService
	RegistryService   = interfaces.RegistryService
	LinkingService    = interfaces.LinkingService
)
