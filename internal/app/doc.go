// Package app wires application dependencies for the CLI.
//
// LoadConfig layers defaults, an optional YAML file and DEVLINK_* environment
// variables. NewWire turns the result into a key/value backend (file, sqlite,
// postgres or redis, optionally passphrase-sealed), the identity, registry and
// linking services, and their logger and metrics.
package app
