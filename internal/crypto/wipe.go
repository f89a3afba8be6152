package crypto

import (
	"runtime"

	"devlink/internal/domain"
)

// Wipe zeroes b. It is best-effort: copies made by the runtime or by callers
// are not reached.
//
//go:noinline
func Wipe(b []byte) {
	clear(b)
	runtime.KeepAlive(&b)
}

// WipeKeyPair zeroes the private half of kp in place.
func WipeKeyPair(kp *domain.KeyPair) {
	if kp == nil {
		return
	}
	Wipe(kp.Private[:])
}
