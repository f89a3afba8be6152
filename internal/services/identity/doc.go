// Package identity manages creation, loading and destruction of the local
// device identity.
//
// It generates the device id, X25519 identity key pair and registration id on
// first use, persists them via the domain.DeviceDataStore, and gates the
// irreversible wipe behind an explicit confirmation value.
package identity
