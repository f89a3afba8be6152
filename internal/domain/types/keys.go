package types

import (
	"encoding/base64"
	"fmt"
)

// X25519Public is a Curve25519 public key.
type X25519Public [32]byte

// Slice returns the key as a []byte.
func (p X25519Public) Slice() []byte { return p[:] }

// IsZero reports whether the key is unset.
func (p X25519Public) IsZero() bool { return p == X25519Public{} }

// MarshalText encodes the key as standard base64.
func (p X25519Public) MarshalText() ([]byte, error) {
	return []byte(base64.StdEncoding.EncodeToString(p[:])), nil
}

// UnmarshalText decodes a standard base64 key of exactly 32 bytes.
func (p *X25519Public) UnmarshalText(text []byte) error {
	b, err := base64.StdEncoding.DecodeString(string(text))
	if err != nil {
		return err
	}
	if len(b) != len(p) {
		return fmt.Errorf("x25519 public key: want %d bytes, got %d", len(p), len(b))
	}
	copy(p[:], b)
	return nil
}

// X25519Private is a Curve25519 private key. It deliberately has no text
// marshaller so it cannot end up in a JSON document by accident.
type X25519Private [32]byte

// Slice returns the key as a []byte.
func (k X25519Private) Slice() []byte { return k[:] }

// KeyPair is a device's long-term identity key pair.
type KeyPair struct {
	Public  X25519Public
	Private X25519Private
}
