package exchange

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	last receivedRequest
}

func (r *recorder) get() receivedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

type receivedRequest struct {
	method      string
	path        string
	query       string
	contentType string
	token       string
	body        string
}

func newEchoServer(t *testing.T) (*httptest.Server, *recorder) {
	received := &recorder{}
	mux := http.NewServeMux()
	mux.HandleFunc("/items", func(w http.ResponseWriter, r *http.Request) {
		body, _ := ioutil.ReadAll(r.Body)
		received.mu.Lock()
		received.last = receivedRequest{
			method:      r.Method,
			path:        r.URL.Path,
			query:       r.URL.RawQuery,
			contentType: r.Header.Get("Content-Type"),
			token:       r.Header.Get("x-access-token"),
			body:        string(body),
		}
		received.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"success": true}`))
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/items", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, received
}

func buildFor(t *testing.T, url string, method request.Method) *request.Built {
	built, err := request.New(url, request.Identity{Platform: "linux"})
	require.NoError(t, err)
	built.Method(method).AccessToken("tkn").Param("name", "a&b+c")
	b, err := built.Build()
	require.NoError(t, err)
	return b
}

func transportsUnderTest(t *testing.T, options *Options) map[string]Transport {
	httpTransport, err := NewHTTPTransport(options)
	require.NoError(t, err)
	return map[string]Transport{
		"net/http": httpTransport,
		"resty":    NewRestyTransport(options),
	}
}

func TestTransports_POST(t *testing.T) {
	server, received := newEchoServer(t)
	for name, transport := range transportsUnderTest(t, &Options{Timeout: 5 * time.Second}) {
		t.Run(name, func(t *testing.T) {
			ex := transport.Do(context.Background(), buildFor(t, server.URL+"/items", request.POST))

			require.NoError(t, ex.Err)
			assert.Equal(t, http.StatusCreated, ex.StatusCode)
			assert.Equal(t, `{"success": true}`, string(ex.Body))
			assert.Equal(t, "application/json", ex.Header.Get("Content-Type"))
			assert.Equal(t, server.URL+"/items", ex.URL)

			got := received.get()
			assert.Equal(t, "POST", got.method)
			assert.Equal(t, "application/x-www-form-urlencoded", got.contentType)
			assert.Equal(t, "name=a%26b%2Bc", got.body)
			assert.Equal(t, "tkn", got.token)
		})
	}
}

func TestTransports_GET(t *testing.T) {
	server, received := newEchoServer(t)
	for name, transport := range transportsUnderTest(t, &Options{Timeout: 5 * time.Second}) {
		t.Run(name, func(t *testing.T) {
			ex := transport.Do(context.Background(), buildFor(t, server.URL+"/items", request.GET))

			require.NoError(t, ex.Err)
			got := received.get()
			assert.Equal(t, "GET", got.method)
			assert.Equal(t, "name=a%26b%2Bc", got.query)
			assert.Equal(t, "", got.body)
		})
	}
}

func TestTransports_DoNotFollowRedirects(t *testing.T) {
	server, _ := newEchoServer(t)
	for name, transport := range transportsUnderTest(t, &Options{Timeout: 5 * time.Second}) {
		t.Run(name, func(t *testing.T) {
			ex := transport.Do(context.Background(), buildFor(t, server.URL+"/moved", request.GET))

			assert.Equal(t, http.StatusFound, ex.StatusCode)
			result := response.Classify(ex)
			assert.Equal(t, response.ServerRejected, result.Kind)
		})
	}
}

func TestTransports_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	for name, transport := range transportsUnderTest(t, &Options{Timeout: time.Second}) {
		t.Run(name, func(t *testing.T) {
			ex := transport.Do(context.Background(), buildFor(t, url+"/items", request.GET))

			assert.Error(t, ex.Err)
			assert.Equal(t, response.TransportFailure, response.Classify(ex).Kind)
		})
	}
}

func TestBuildHTTPClient(t *testing.T) {
	client, err := BuildHTTPClient(&Options{Timeout: 3 * time.Second, SkipVerify: true, ForceHTTP1: true})
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, client.Timeout)
	assert.NotNil(t, client.CheckRedirect)
	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.Equal(t, []string{"http/1.1", "http/1.0"}, transport.TLSClientConfig.NextProtos)

	following, err := BuildHTTPClient(&Options{FollowRedirects: true})
	require.NoError(t, err)
	assert.Nil(t, following.CheckRedirect)
}
