// Package version reports the build version of extver.
package version

import (
	"github.com/Masterminds/semver/v3"
)

// Version is injected at build time:
//
//	go build -ldflags "-X github.com/0xa1bed0/extver/internal/version.Version=v1.2.0"
//
// Local builds report "local".
var Version = "local"

// Get returns the raw build version.
func Get() string {
	return Version
}

// Semver parses the build version. ok is false for local and dev builds,
// whose versions are not semantic versions.
func Semver() (v *semver.Version, ok bool) {
	return parse(Version)
}

func parse(raw string) (*semver.Version, bool) {
	v, err := semver.StrictNewVersion(trimV(raw))
	if err != nil {
		return nil, false
	}
	return v, true
}

func trimV(s string) string {
	if len(s) > 1 && (s[0] == 'v' || s[0] == 'V') {
		return s[1:]
	}
	return s
}
