package store

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"

	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"
)

const envelopeVersion = 1

var errWrongPassphrase = errors.New("wrong passphrase or corrupted sealed value")

// scryptParams are the scrypt cost parameters recorded in every envelope.
type scryptParams struct {
	N int `json:"scrypt_N"`
	R int `json:"scrypt_r"`
	P int `json:"scrypt_p"`
}

func scryptParamsDefault() scryptParams { return scryptParams{N: 1 << 15, R: 8, P: 1} }

// envelope is the stored form of a sealed value.
type envelope struct {
	V    int    `json:"v"`
	Salt []byte `json:"salt"`
	scryptParams
	Cipher []byte `json:"cipher"`
}

// aead derives the envelope key for passphrase under salt.
func (p scryptParams) aead(passphrase string, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, errors.Wrap(err, "derive key")
	}
	return chacha20poly1305.New(key)
}

// seal encrypts raw under passphrase. The salt and storeKey are both bound as
// associated data, so an envelope only opens under the key it was written to.
// Every envelope gets a fresh salt and therefore a fresh key, so the zero
// nonce is never reused.
func seal(passphrase, storeKey string, raw []byte, params scryptParams) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "read salt")
	}
	aead, err := params.aead(passphrase, salt)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)

	return json.Marshal(envelope{
		V:            envelopeVersion,
		Salt:         salt,
		scryptParams: params,
		Cipher:       aead.Seal(nil, nonce, raw, associatedData(salt, storeKey)),
	})
}

// open reverses seal.
func open(passphrase, storeKey string, b []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	if env.V > envelopeVersion {
		return nil, errors.Errorf("unsupported sealed value version %d", env.V)
	}

	aead, err := env.scryptParams.aead(passphrase, env.Salt)
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, make([]byte, chacha20poly1305.NonceSize), env.Cipher, associatedData(env.Salt, storeKey))
	if err != nil {
		return nil, errWrongPassphrase
	}
	return pt, nil
}

func associatedData(salt []byte, storeKey string) []byte {
	return append(append(make([]byte, 0, len(salt)+len(storeKey)), salt...), storeKey...)
}
