// Package domain defines the device identity data model, the error taxonomy
// and the contracts (storage, primitives, services) shared across the module.
// It contains plain types and interfaces only.
package domain
