// Package buildinfo carries version metadata stamped at link time:
//
//	-X 'github.com/m3rciful/mediabot/core/buildinfo.Version=v1.2.3'
//	-X 'github.com/m3rciful/mediabot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/mediabot/core/buildinfo.Date=2025-08-30T12:00:00Z'
package buildinfo

import "strings"

var (
	// Version reports the semantic version or tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)

// String renders "version (commit, date)", omitting empty parts.
func String() string {
	var meta []string
	if Commit != "" {
		meta = append(meta, Commit)
	}
	if Date != "" {
		meta = append(meta, Date)
	}
	if len(meta) == 0 {
		return Version
	}
	return Version + " (" + strings.Join(meta, ", ") + ")"
}
