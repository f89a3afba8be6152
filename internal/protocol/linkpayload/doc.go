// Package linkpayload encodes and decodes the artifacts exchanged while
// linking two devices.
//
// A source device renders a domain.LinkPayload as a deep link
// (devlink://link?v=1&p=...) or as a QR code of that link. The new device
// answers with a domain.LinkRequest using the same base64url JSON encoding.
// Both are versioned; payloads from a newer version are rejected.
package linkpayload
