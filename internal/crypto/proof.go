package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"devlink/internal/domain"
)

const linkProofInfo = "devlink/v1/link-proof"

// LinkProof binds a new device's identity to the secret carried by a link
// payload. The MAC key is HKDF-SHA256(secret, salt=linkID).
func LinkProof(
	secret []byte,
	linkID string,
	code string,
	deviceID domain.DeviceID,
	pub domain.X25519Public,
) ([]byte, error) {
	key := make([]byte, 32)
	defer Wipe(key)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, []byte(linkID), []byte(linkProofInfo)), key); err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(code))
	mac.Write([]byte{0})
	mac.Write([]byte(deviceID))
	mac.Write([]byte{0})
	mac.Write(pub[:])
	return mac.Sum(nil), nil
}

// VerifyLinkProof reports whether proof matches LinkProof for the same inputs.
func VerifyLinkProof(
	proof []byte,
	secret []byte,
	linkID string,
	code string,
	deviceID domain.DeviceID,
	pub domain.X25519Public,
) bool {
	want, err := LinkProof(secret, linkID, code, deviceID, pub)
	if err != nil {
		return false
	}
	return hmac.Equal(proof, want)
}
