// Package buildinfo exposes version information injected at build time.
//
// Release builds set the variables via ldflags:
//
//	go build -ldflags "-X github.com/petrelmq/petrelmq/internal/infra/buildinfo.Version=v1.0.0"
package buildinfo

import "runtime"

// Set via ldflags; defaults apply to development builds.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git commit hash the binary was built from.
	Commit = "unknown"

	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// Info holds the build identity of the running binary.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Get returns the build identity of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
	}
}

// String formats the build identity as "version (commit) built at time".
func String() string {
	return Version + " (" + Commit + ") built at " + BuildTime
}
