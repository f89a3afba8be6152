package crypto

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"

	"devlink/internal/domain"
)

// GenerateX25519 returns a fresh Curve25519 key pair read from crypto/rand.
// The private key is clamped per RFC 7748.
func GenerateX25519() (priv domain.X25519Private, pub domain.X25519Public, err error) {
	return generateX25519(rand.Reader)
}

func generateX25519(r io.Reader) (priv domain.X25519Private, pub domain.X25519Public, err error) {
	if _, err = io.ReadFull(r, priv[:]); err != nil {
		return
	}
	clamp(&priv)
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(pub[:], pb)
	return
}

// PublicFromPrivate recomputes the public half of an X25519 private key.
func PublicFromPrivate(priv domain.X25519Private) (domain.X25519Public, error) {
	var pub domain.X25519Public
	pb, err := curve25519.X25519(priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return pub, err
	}
	copy(pub[:], pb)
	return pub, nil
}

func clamp(k *domain.X25519Private) {
	kb := k[:]
	kb[0] &= 248
	kb[31] &= 127
	kb[31] |= 64
}
