package types

import "time"

// LinkState is the position of the linking state machine.
type LinkState string

const (
	LinkStateIdle          LinkState = "IDLE"
	LinkStateCodeGenerated LinkState = "CODE_GENERATED"
	LinkStateLinked        LinkState = "LINKED"
	LinkStateExpired       LinkState = "EXPIRED"
	LinkStateCancelled     LinkState = "CANCELLED"
)

// String returns the string form of the state.
func (s LinkState) String() string { return string(s) }

// PendingLinkCode gates a single linking attempt. At most one exists at a time.
type PendingLinkCode struct {
	LinkID         string
	Code           string
	Secret         []byte
	ExpiresAt      time.Time
	SourceDeviceID DeviceID
}

// Expired reports whether the code can no longer be used at now.
func (p PendingLinkCode) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// LinkPayload is the transferable artifact the source device renders as a QR
// code or deep link. Version lets older devices reject payloads they do not
// understand.
type LinkPayload struct {
	Version          int       `json:"v" validate:"required,min=1"`
	LinkID           string    `json:"linkId" validate:"required,uuid4"`
	Code             string    `json:"code" validate:"required,numeric,len=6"`
	Secret           []byte    `json:"secret" validate:"required,len=32"`
	SourceDeviceID   DeviceID  `json:"sourceDeviceId" validate:"required,deviceid"`
	SourceDeviceName string    `json:"sourceDeviceName" validate:"max=64"`
	ExpiresAt        time.Time `json:"expiresAt" validate:"required"`

	// The source device's public identity, so the new device can register it
	// in turn.
	SourceIdentityPublicKey X25519Public   `json:"sourceIdentityPublicKey"`
	SourcePlatform          Platform       `json:"sourcePlatform" validate:"omitempty,oneof=ios android desktop web unknown"`
	SourceRegistrationID    RegistrationID `json:"sourceRegistrationId"`
}

// LinkRequest is what a new device sends back to the source device after
// consuming a payload: its public identity plus a proof that it saw the
// payload secret.
type LinkRequest struct {
	Version           int          `json:"v" validate:"required,min=1"`
	LinkID            string       `json:"linkId" validate:"required,uuid4"`
	Code              string       `json:"code" validate:"required,numeric,len=6"`
	Device            DeviceInfo   `json:"device"`
	IdentityPublicKey X25519Public `json:"identityPublicKey"`
	Proof             []byte       `json:"proof" validate:"required,len=32"`
}
