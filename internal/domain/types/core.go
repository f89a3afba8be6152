package types

// DeviceID is the stable, globally unique identifier of a device: 16 random
// bytes rendered as 32 lowercase hex characters.
type DeviceID string

// String returns the string form of the device id.
func (id DeviceID) String() string { return string(id) }

// Valid reports whether id is exactly 32 lowercase hex characters.
func (id DeviceID) Valid() bool {
	if len(id) != 32 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// RegistrationID disambiguates one device's prekey bundles from another's
// under the same account.
type RegistrationID uint32

// Platform is the closed set of runtimes a device can report.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformDesktop Platform = "desktop"
	PlatformWeb     Platform = "web"
	PlatformUnknown Platform = "unknown"
)

// String returns the string form of the platform.
func (p Platform) String() string { return string(p) }

// Valid reports whether p is one of the known platforms.
func (p Platform) Valid() bool {
	switch p {
	case PlatformIOS, PlatformAndroid, PlatformDesktop, PlatformWeb, PlatformUnknown:
		return true
	}
	return false
}

// DefaultDeviceName is the label a freshly created identity starts with.
func (p Platform) DefaultDeviceName() string {
	switch p {
	case PlatformIOS:
		return "iOS device"
	case PlatformAndroid:
		return "Android device"
	case PlatformDesktop:
		return "Desktop device"
	case PlatformWeb:
		return "Web browser"
	default:
		return "Unknown device"
	}
}
