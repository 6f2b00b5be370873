package version

import "fmt"

// Build is the build identifier, overridden at link time with
// -ldflags "-X github.com/nojima/apicall-go/version.Build=...".
var Build = "dev"

// Version represents a version of apicall-go
type Version struct {
	major int
	minor int
	patch int
}

func (v *Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.major, v.minor, v.patch)
}

// Current returns current version of apicall-go
func Current() *Version {
	return &Version{major: 0, minor: 3, patch: 0}
}
