// Package version describes the running skysheet binary.
package version

import (
	"fmt"
	"regexp"
	"runtime/debug"
	"strconv"
)

// Version represents a semantic version
type Version struct {
	Major       int
	Minor       int
	Maintenance string
	Commit      string
	GitDescribe string
	IsDirty     bool
}

// String returns the version as a string
func (v *Version) String() string {
	s := fmt.Sprintf("%d.%d.%s", v.Major, v.Minor, v.Maintenance)
	if v.IsDirty {
		s += "-dirty"
	}
	return s
}

// Format: v0.1.0, v0.1.0-5-g1a2b3c4 or either with -dirty
var describeRe = regexp.MustCompile(`^v?(\d+)\.(\d+)\.(\d+)(?:-(\d+)-g([0-9a-f]+))?(-dirty)?$`)

// Parse reads the output of git describe --tags --dirty. Commits after the
// tag are appended to the maintenance number.
func Parse(describe string) (*Version, bool) {
	matches := describeRe.FindStringSubmatch(describe)
	if matches == nil {
		return nil, false
	}

	major, _ := strconv.Atoi(matches[1])
	minor, _ := strconv.Atoi(matches[2])
	maintenance := matches[3]
	if matches[4] != "" {
		maintenance = fmt.Sprintf("%s-%s", maintenance, matches[4])
	}

	return &Version{
		Major:       major,
		Minor:       minor,
		Maintenance: maintenance,
		Commit:      matches[5],
		GitDescribe: describe,
		IsDirty:     matches[6] != "",
	}, true
}

// Resolve returns the version to display. A value set with ldflags wins;
// otherwise the module version or VCS revision recorded by the Go
// toolchain is used.
func Resolve(ldflags string) string {
	if ldflags != "" && ldflags != "dev" {
		if v, ok := Parse(ldflags); ok {
			return v.String()
		}
		return ldflags
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	return fromBuildInfo(info)
}

func fromBuildInfo(info *debug.BuildInfo) string {
	if v, ok := Parse(info.Main.Version); ok {
		return v.String()
	}

	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision == "" {
		return "dev"
	}
	if len(revision) > 7 {
		revision = revision[:7]
	}
	if modified {
		return fmt.Sprintf("dev-%s-dirty", revision)
	}
	return "dev-" + revision
}
