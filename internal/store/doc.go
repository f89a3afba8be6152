// Package store provides persistence for devlink's device records.
//
// It contains domain.KeyValueStore backends and the codec that maps the
// three device records onto them:
//   - FileStore: one JSON file per key under the configured home directory,
//     replaced atomically via temp file + rename
//   - MemoryStore: process-local, for tests and ephemeral sessions
//   - GormStore: a single device_kv table on sqlite or postgres
//   - RedisStore: prefixed redis keys
//   - SealedStore: wraps any backend and encrypts selected keys with a
//     passphrase (scrypt + ChaCha20-Poly1305)
//   - DeviceRecords: the local device, linked device list and pending link
//     code records, with keys base64 encoded
//
// Backends guard their own state but there is no cross-process locking: two
// processes writing the same store concurrently resolve as last write wins.
package store
