package exchange

import (
	"context"
	"crypto/tls"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
	"github.com/pkg/errors"
)

// RestyTransport performs requests through a resty client with retries
// disabled; every call is sent exactly once.
type RestyTransport struct {
	client *resty.Client
}

func NewRestyTransport(options *Options) *RestyTransport {
	client := resty.New().
		SetTimeout(options.Timeout).
		SetRetryCount(0)
	if options.Transport != nil {
		client.SetTransport(options.Transport)
	}
	if options.SkipVerify {
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	if !options.FollowRedirects {
		client.SetRedirectPolicy(resty.RedirectPolicyFunc(func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}))
	}
	return &RestyTransport{client: client}
}

func (t *RestyTransport) Do(ctx context.Context, built *request.Built) response.Exchange {
	ex := response.Exchange{URL: built.URL.String()}

	req := t.client.R().SetContext(ctx)
	for _, h := range built.Header {
		req.Header.Add(h.Name, h.Value)
	}
	if built.Body != nil {
		req.SetBody(built.Body)
	}

	resp, err := req.Execute(string(built.Method), built.URL.String())
	if err != nil {
		ex.Err = errors.Wrap(err, "sending HTTP request")
		return ex
	}
	ex.Proto = resp.Proto()
	ex.StatusCode = resp.StatusCode()
	ex.Header = resp.Header()
	ex.Body = resp.Body()
	return ex
}
