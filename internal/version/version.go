// Package version reports the crewcal release embedded at build time.
package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var versionContent string

// Override, when set with -ldflags "-X", replaces the embedded version.
var Override string

// Get returns the release version, e.g. "1.0.0", or "dev" when none is known.
func Get() string {
	if Override != "" {
		return Override
	}
	if v := strings.TrimSpace(versionContent); v != "" {
		return v
	}
	return "dev"
}
