// Package crypto exposes the minimal primitives used by devlink.
//
// Contents
//
//   - X25519 identity key generation and clamping (GenerateX25519,
//     PublicFromPrivate)
//   - Primitives, the domain.Primitives implementation: key pairs,
//     registration ids, random bytes and numeric link codes
//   - Device ids (NewDeviceID)
//   - Link proofs binding a new device to a link secret (LinkProof,
//     VerifyLinkProof)
//   - Best-effort memory wiping for sensitive byte slices and key pairs (Wipe,
//     WipeKeyPair)
//   - Short public-key fingerprints for display (Fingerprint)
//
// # Notes
//
// Key material uses the fixed-size array types defined in internal/domain.
// Callers should treat returned secrets as sensitive and rely on Wipe when
// practical to reduce lifetime in memory.
package crypto
