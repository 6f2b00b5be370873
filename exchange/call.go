package exchange

import (
	"net/url"
	"strings"

	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
)

type AuthScheme int

const (
	AuthNone AuthScheme = iota
	// AuthBearer sends "Authorization: Bearer <token>".
	AuthBearer
	// AuthAccessToken sends "x-access-token: <token>".
	AuthAccessToken
)

// Call declares one API call.
type Call struct {
	// Name labels the call in metrics and logs.
	Name string
	// Code is appended to the generic error message, e.g. "#002".
	Code int

	Method  request.Method
	Path    string // relative to Settings.BaseURL, or an absolute URL
	Headers []request.Header
	Params  []request.Param
	Files   []request.File
	Auth    AuthScheme

	// Acceptable defaults to {200}.
	Acceptable []int
	// Raw accepts any body without JSON parsing, e.g. for downloads.
	Raw bool
}

func (call Call) classifyOptions() []response.Option {
	var opts []response.Option
	if len(call.Acceptable) > 0 {
		opts = append(opts, response.AcceptStatus(call.Acceptable...))
	}
	if call.Raw {
		opts = append(opts, response.RawPayload())
	}
	return opts
}

func (c *Client) resolve(path string) string {
	if c.settings.BaseURL == "" {
		return path
	}
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	return strings.TrimSuffix(c.settings.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func (c *Client) buildRequest(call Call, token string) (*request.Built, error) {
	b, err := request.New(c.resolve(call.Path), c.settings.Identity)
	if err != nil {
		return nil, err
	}

	method := call.Method
	if method == "" {
		method = request.GET
	}
	b.Method(method).Headers(call.Headers...)

	switch call.Auth {
	case AuthBearer:
		b.BearerToken(token)
	case AuthAccessToken:
		b.AccessToken(token)
	}

	return b.Params(call.Params...).Files(call.Files...).Build()
}
