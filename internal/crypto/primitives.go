package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"math/big"

	"devlink/internal/domain"
)

const (
	// maxRegistrationID bounds registration ids to 14 bits, matching what
	// prekey bundle consumers expect.
	maxRegistrationID = 16380

	deviceIDBytes = 16
)

// Primitives implements domain.Primitives on top of a randomness source.
type Primitives struct {
	rand io.Reader
}

// NewPrimitives returns primitives backed by crypto/rand.
func NewPrimitives() *Primitives { return &Primitives{rand: rand.Reader} }

// NewPrimitivesFromReader returns primitives that draw every random byte from
// r. Tests use it with a deterministic or failing reader.
func NewPrimitivesFromReader(r io.Reader) *Primitives { return &Primitives{rand: r} }

// GenerateKeyPair returns a fresh X25519 identity key pair.
func (p *Primitives) GenerateKeyPair() (domain.KeyPair, error) {
	priv, pub, err := generateX25519(p.rand)
	if err != nil {
		return domain.KeyPair{}, err
	}
	return domain.KeyPair{Public: pub, Private: priv}, nil
}

// GenerateRegistrationID returns a uniformly random id in [1, 16380].
func (p *Primitives) GenerateRegistrationID() (domain.RegistrationID, error) {
	n, err := rand.Int(p.rand, big.NewInt(maxRegistrationID))
	if err != nil {
		return 0, err
	}
	return domain.RegistrationID(n.Int64() + 1), nil
}

// RandomBytes returns n random bytes.
func (p *Primitives) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(p.rand, b); err != nil {
		return nil, err
	}
	return b, nil
}

// NumericCode returns a uniformly random decimal string of the given length,
// keeping leading zeros.
func (p *Primitives) NumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("numeric code: unsupported length %d", digits)
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(p.rand, limit)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", digits, n), nil
}

// NewDeviceID returns a 128-bit random device id, hex encoded.
func NewDeviceID(p domain.Primitives) (domain.DeviceID, error) {
	b, err := p.RandomBytes(deviceIDBytes)
	if err != nil {
		return "", err
	}
	return domain.DeviceID(hex.EncodeToString(b)), nil
}

// Compile-time assertion that Primitives implements domain.Primitives.
var _ domain.Primitives = (*Primitives)(nil)
