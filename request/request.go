package request

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

type Method string

const (
	GET  Method = "GET"
	POST Method = "POST"
)

// ParseMethod accepts GET and POST in any letter case.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToUpper(s)); m {
	case GET, POST:
		return m, nil
	default:
		return "", errors.Errorf("unsupported method: %s", s)
	}
}

type Header struct {
	Name  string
	Value string
}

type Param struct {
	Name  string
	Value string
}

// File is a file part of a multipart body. An empty MimeType omits the
// part's Content-Type line.
type File struct {
	Field    string
	Filename string
	Data     []byte
	MimeType string
}

// Built is a finished request. It shares no memory with the Builder that
// produced it.
type Built struct {
	Method Method
	URL    *url.URL
	Header []Header
	Body   []byte
}

// HeaderValue returns the last value of the named header, or "".
func (b *Built) HeaderValue(name string) string {
	value := ""
	for _, h := range b.Header {
		if strings.EqualFold(h.Name, name) {
			value = h.Value
		}
	}
	return value
}

func (b *Built) ContentType() string {
	return b.HeaderValue("Content-Type")
}

// HTTPRequest converts b into a net/http request carrying every header
// in order.
func (b *Built) HTTPRequest(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if b.Body != nil {
		body = bytes.NewReader(b.Body)
	}
	r, err := http.NewRequestWithContext(ctx, string(b.Method), b.URL.String(), body)
	if err != nil {
		return nil, errors.Wrap(err, "creating HTTP request")
	}
	for _, h := range b.Header {
		r.Header.Add(h.Name, h.Value)
	}
	if host := r.Header.Get("Host"); host != "" {
		r.Host = host
	}
	return r, nil
}

// Clone returns a deep copy of b.
func (b *Built) Clone() *Built {
	c := &Built{Method: b.Method}
	if b.URL != nil {
		u := *b.URL
		if b.URL.User != nil {
			u.User = cloneUserinfo(b.URL.User)
		}
		c.URL = &u
	}
	c.Header = append([]Header(nil), b.Header...)
	if b.Body != nil {
		c.Body = append([]byte{}, b.Body...)
	}
	return c
}

func cloneUserinfo(u *url.Userinfo) *url.Userinfo {
	if p, ok := u.Password(); ok {
		return url.UserPassword(u.Username(), p)
	}
	return url.User(u.Username())
}
