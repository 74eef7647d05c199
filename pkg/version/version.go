// Package version provides build-time version information.
package version

import (
	"fmt"
	"runtime"
	"strings"
)

// These variables are set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info describes the nssmctl build and, when known, the NSSM binary it
// drives.
type Info struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`

	// NSSM is the version line reported by the wrapper binary.
	NSSM string `json:"nssm,omitempty"`
}

// Get returns the build information.
func Get() Info {
	return Info{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// WithNSSM returns a copy of i carrying the wrapper's version line, with
// the leading "Version" label dropped.
func (i Info) WithNSSM(line string) Info {
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimPrefix(line, "Version"))
	i.NSSM = line
	return i
}

// String returns a human-readable version string.
func (i Info) String() string {
	s := fmt.Sprintf("nssmctl %s (commit: %s, built: %s, %s, %s/%s)",
		i.Version, i.Commit, i.Date, i.GoVersion, i.OS, i.Arch)
	if i.NSSM != "" {
		s += "\nnssm " + i.NSSM
	}
	return s
}

// UserAgent is sent with outgoing HTTP requests.
func (i Info) UserAgent() string {
	return fmt.Sprintf("nssmctl/%s (%s/%s)", i.Version, i.OS, i.Arch)
}
