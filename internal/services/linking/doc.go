// Package linking runs the device linking protocol on both sides of a link.
//
// The source device generates a short-lived numeric code plus a random secret
// and hands both to the new device as a payload (deep link or QR code). The
// new device completes the link by creating its own identity and answering
// with a request that proves it saw the secret. The source device accepts
// that request exactly once, consuming the pending code.
//
// State machine, per source device:
//
//	IDLE -> CODE_GENERATED -> LINKED | EXPIRED | CANCELLED
//
// Generating a new code replaces any pending one. Expiry is evaluated lazily
// against the injected clock.
package linking
