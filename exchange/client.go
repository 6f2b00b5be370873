package exchange

import (
	"context"
	"crypto/tls"
	"io/ioutil"
	"net/http"

	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
	"github.com/pkg/errors"
)

func BuildHTTPClient(options *Options) (*http.Client, error) {
	checkRedirect := func(req *http.Request, via []*http.Request) error {
		// Do not follow redirects
		return http.ErrUseLastResponse
	}
	if options.FollowRedirects {
		checkRedirect = nil
	}

	client := http.Client{
		CheckRedirect: checkRedirect,
		Timeout:       options.Timeout,
	}

	var transp http.RoundTripper
	if options.Transport == nil {
		transp = http.DefaultTransport.(*http.Transport).Clone()
	} else {
		transp = options.Transport
	}
	if httpTransport, ok := transp.(*http.Transport); ok {
		if httpTransport.TLSClientConfig == nil {
			httpTransport.TLSClientConfig = &tls.Config{}
		}
		httpTransport.TLSClientConfig.InsecureSkipVerify = options.SkipVerify
		if options.ForceHTTP1 {
			httpTransport.TLSClientConfig.NextProtos = []string{"http/1.1", "http/1.0"}
			httpTransport.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
		}
	}
	client.Transport = transp

	return &client, nil
}

// HTTPTransport performs requests with net/http and reads each response
// body completely.
type HTTPTransport struct {
	client *http.Client
}

func NewHTTPTransport(options *Options) (*HTTPTransport, error) {
	client, err := BuildHTTPClient(options)
	if err != nil {
		return nil, err
	}
	return &HTTPTransport{client: client}, nil
}

func (t *HTTPTransport) Do(ctx context.Context, built *request.Built) response.Exchange {
	ex := response.Exchange{URL: built.URL.String()}

	r, err := built.HTTPRequest(ctx)
	if err != nil {
		ex.Err = err
		return ex
	}

	resp, err := t.client.Do(r)
	if err != nil {
		ex.Err = errors.Wrap(err, "sending HTTP request")
		return ex
	}
	defer resp.Body.Close()

	ex.Proto = resp.Proto
	ex.StatusCode = resp.StatusCode
	ex.Header = resp.Header
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		ex.Err = errors.Wrap(err, "reading response body")
		return ex
	}
	ex.Body = body
	return ex
}
