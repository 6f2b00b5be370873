package exchange

import (
	"net/http"
	"time"
)

// Options configures the HTTP transports.
type Options struct {
	Timeout         time.Duration
	FollowRedirects bool
	SkipVerify      bool
	ForceHTTP1      bool

	// Transport replaces the default round tripper when set.
	Transport http.RoundTripper
}
