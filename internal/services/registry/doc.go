// Package registry maintains the linked device registry: every device,
// including this one, trusted to receive messages for the account.
//
// Entries are keyed by device id and persisted through a
// domain.LinkedDeviceStore. The entry for the local device is mirrored from
// the identity service and can never be unlinked.
package registry
