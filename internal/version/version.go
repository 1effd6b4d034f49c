// Package version reports the build version of rhsm-facts.
package version

import (
	"runtime"
	"runtime/debug"
)

// Version is set at build time:
//
//	go build -ldflags "-X github.com/nikicat/rhsm-facts/internal/version.Version=1.2.3"
var Version = "dev"

var readBuildInfo = debug.ReadBuildInfo

// String returns Version, or the module version recorded by `go install`
// when no version was stamped in.
func String() string {
	if Version != "dev" {
		return Version
	}
	if bi, ok := readBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return Version
}

// ClientVersions describes the running client for startup logs.
func ClientVersions() map[string]string {
	return map[string]string{
		"rhsm-facts": String(),
		"go":         runtime.Version(),
	}
}
