// Package commands defines the devlink CLI and wires dependencies for subcommands.
//
// Commands
//
//   - init            Create the local device identity, or show the existing one
//   - info            Print this device's id, name, platform and fingerprint
//   - fingerprint     Print the identity fingerprint
//   - rename          Change this device's display name
//   - devices         List linked devices
//   - unlink          Remove a linked device
//   - link generate   Create a link code and payload (optionally as a QR code)
//   - link verify     Check a code against the pending one
//   - link complete   Join an account from a scanned payload (new device)
//   - link accept     Accept a new device's link request (source device)
//   - link cancel     Discard the pending link code
//   - link state      Print the linking state
//   - wipe            Irreversibly erase all device data
//
// # Implementation
//
// The root command loads configuration (YAML file, DEVLINK_* environment,
// flags) and builds the dependency graph before any subcommand runs. The graph
// is closed after the subcommand returns, flushing metrics if configured.
package commands
