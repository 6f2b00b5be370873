package request

import (
	"runtime"

	"github.com/nojima/apicall-go/version"
)

// Identity describes the calling application. Every request carries it as
// X-App-* headers.
type Identity struct {
	Platform        string
	PlatformVersion string
	AppVersion      string
	AppBuild        string
}

// DefaultIdentity identifies the running binary by OS, Go runtime version
// and the apicall release.
func DefaultIdentity() Identity {
	return Identity{
		Platform:        runtime.GOOS,
		PlatformVersion: runtime.Version(),
		AppVersion:      version.Current().String(),
		AppBuild:        version.Build,
	}
}

func (id Identity) Headers() []Header {
	return []Header{
		{Name: "X-App-Platform", Value: id.Platform},
		{Name: "X-App-Platform-Version", Value: id.PlatformVersion},
		{Name: "X-App-Version", Value: id.AppVersion},
		{Name: "X-App-Build", Value: id.AppBuild},
	}
}
