package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"devlink/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with SHA-256 and truncates to 10 bytes, grouped in fours for
// reading aloud when comparing two devices.
func Fingerprint(pub domain.X25519Public) domain.Fingerprint {
	sum := sha256.Sum256(pub[:])
	h := hex.EncodeToString(sum[:10])

	var b strings.Builder
	for i := 0; i < len(h); i += 4 {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(h[i:min(i+4, len(h))])
	}
	return domain.Fingerprint(b.String())
}
