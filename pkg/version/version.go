// Package version holds build-time version info injected via ldflags.
//
//	go build -ldflags "-X github.com/NicolasHaas/gowallet/pkg/version.tag=v1.0.0
//	  -X github.com/NicolasHaas/gowallet/pkg/version.commit=abc1234
//	  -X github.com/NicolasHaas/gowallet/pkg/version.date=2026-01-01"
package version

import "runtime"

var (
	tag    = ""        // git tag, empty if not on a tag
	commit = "unknown" // short git commit SHA
	date   = "unknown" // build date (ISO 8601)
)

// String returns the tag, the commit, or "dev" for local builds.
func String() string {
	if tag != "" {
		return tag
	}
	if commit != "unknown" {
		return commit
	}
	return "dev"
}

// Full returns "tag (commit) built date" or a sensible fallback.
func Full() string {
	switch {
	case tag != "":
		return tag + " (" + commit + ") built " + date
	case commit != "unknown":
		return commit + " built " + date
	default:
		return "dev"
	}
}

// UserAgent is sent with every API request, e.g. "gowallet/v1.0.0 (linux/amd64)".
func UserAgent() string {
	return "gowallet/" + String() + " (" + runtime.GOOS + "/" + runtime.GOARCH + ")"
}
