// Package version provides information about the build version of the service
package version

import (
	"runtime"
	"runtime/debug"
)

// BuildInfo holds version information about the service build
type BuildInfo struct {
	Service   string `json:"service"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
}

// Service is the name reported in logs, traces and the meta endpoints
const Service = "tokeisrv"

// Info returns the build information
// version, commit and date are set at build time:
//
//	-ldflags "-X tokeisrv/internal/core/version.version=v0.3.0 -X tokeisrv/internal/core/version.commit=abcd"
//
// when commit is unset the vcs stamp from the go toolchain is used instead
func Info() BuildInfo {
	bi := BuildInfo{
		Service:   Service,
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
	}
	if bi.Commit == "none" {
		if rev, at := vcsStamp(); rev != "" {
			bi.Commit = rev
			if bi.Date == "unknown" && at != "" {
				bi.Date = at
			}
		}
	}
	return bi
}

// UserAgent is sent on outbound git requests
func UserAgent() string { return Service + "/" + version }

func vcsStamp() (rev, at string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "", ""
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.time":
			at = s.Value
		}
	}
	return rev, at
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
