package types

import "time"

// LocalDeviceIdentity is the identity owned by this installation. The private
// half of IdentityKeyPair never leaves local storage.
type LocalDeviceIdentity struct {
	DeviceID        DeviceID
	DisplayName     string
	Platform        Platform
	IdentityKeyPair KeyPair
	RegistrationID  RegistrationID
	CreatedAt       time.Time
	LastSyncedAt    time.Time
}

// Info returns the public metadata other devices learn about this one.
func (d LocalDeviceIdentity) Info() DeviceInfo {
	return DeviceInfo{
		DeviceID:       d.DeviceID,
		DisplayName:    d.DisplayName,
		Platform:       d.Platform,
		RegistrationID: d.RegistrationID,
	}
}

// LinkedDevice is a registry entry for a device trusted to receive messages
// for the account. It never carries private key material.
type LinkedDevice struct {
	DeviceID          DeviceID       `json:"deviceId"`
	DisplayName       string         `json:"displayName"`
	Platform          Platform       `json:"platform"`
	RegistrationID    RegistrationID `json:"registrationId"`
	IdentityPublicKey X25519Public   `json:"identityPublicKey"`
	LastSeen          time.Time      `json:"lastSeen"`
	IsCurrentDevice   bool           `json:"isCurrentDevice"`
}

// DeviceInfo is the metadata a device announces when it joins an account.
type DeviceInfo struct {
	DeviceID       DeviceID       `json:"deviceId" validate:"required,deviceid"`
	DisplayName    string         `json:"displayName" validate:"required,max=64"`
	Platform       Platform       `json:"platform" validate:"required,oneof=ios android desktop web unknown"`
	RegistrationID RegistrationID `json:"registrationId" validate:"required,min=1"`
}
