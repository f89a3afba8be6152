// Package platform reports which kind of runtime this installation is.
package platform

import (
	"runtime"

	"devlink/internal/domain"
)

// Runtime derives the platform from the Go build target.
type Runtime struct {
	goos string
}

// NewRuntime returns a provider for the running binary's GOOS.
func NewRuntime() Runtime { return Runtime{goos: runtime.GOOS} }

// Platform maps GOOS onto the closed platform set.
func (r Runtime) Platform() domain.Platform {
	return FromGOOS(r.goos)
}

// FromGOOS maps a GOOS value onto the closed platform set.
func FromGOOS(goos string) domain.Platform {
	switch goos {
	case "ios":
		return domain.PlatformIOS
	case "android":
		return domain.PlatformAndroid
	case "darwin", "windows", "linux", "freebsd", "openbsd", "netbsd", "dragonfly", "solaris", "illumos":
		return domain.PlatformDesktop
	case "js", "wasip1":
		return domain.PlatformWeb
	default:
		return domain.PlatformUnknown
	}
}

// Static always reports the same platform. Unknown values collapse to
// PlatformUnknown.
type Static domain.Platform

// Platform returns the configured platform.
func (s Static) Platform() domain.Platform {
	p := domain.Platform(s)
	if !p.Valid() {
		return domain.PlatformUnknown
	}
	return p
}

// Compile-time assertions.
var (
	_ domain.PlatformProvider = Runtime{}
	_ domain.PlatformProvider = Static("")
)
