package interfaces

import domaintypes "devlink/internal/domain/types"

// Primitives is the cryptographic capability the identity and linking layers
// consume. Implementations must draw from a cryptographically secure source.
type Primitives interface {
	GenerateKeyPair() (domaintypes.KeyPair, error)
	GenerateRegistrationID() (domaintypes.RegistrationID, error)
	RandomBytes(n int) ([]byte, error)
	// NumericCode returns a uniformly random decimal string of the given length.
	NumericCode(digits int) (string, error)
}

// PlatformProvider reports the runtime platform of this installation.
type PlatformProvider interface {
	Platform() domaintypes.Platform
}
