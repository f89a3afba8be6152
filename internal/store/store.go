package store

// Logical key names. Every backend stores exactly these three records.
const (
	KeyLocalDevice   = "device/local"
	KeyLinkedDevices = "device/linked"
	KeyPendingLink   = "device/pending-link"
)

// AllKeys lists every key the device subsystem writes.
var AllKeys = []string{KeyLocalDevice, KeyLinkedDevices, KeyPendingLink}
