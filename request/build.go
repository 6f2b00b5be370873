package request

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

var ErrInvalidAddress = errors.New("invalid address")

const (
	formContentType   = "application/x-www-form-urlencoded"
	boundaryPrefix    = "Boundary-"
	contentTypeHeader = "Content-Type"
)

// Builder accumulates the parts of a request. Every configuration method
// appends and returns the builder so calls can be chained.
type Builder struct {
	url     *url.URL
	method  Method
	headers []Header
	params  []Param
	files   []File

	newBoundary func() (string, error)
}

// New starts a GET request to address. The address must be an absolute
// URL; the identity headers are added first.
func New(address string, id Identity) (*Builder, error) {
	u, err := url.Parse(address)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidAddress, "%q", address)
	}
	b := &Builder{
		url:         u,
		method:      GET,
		newBoundary: randomBoundary,
	}
	return b.Headers(id.Headers()...), nil
}

func (b *Builder) Method(m Method) *Builder {
	b.method = m
	return b
}

func (b *Builder) Header(name, value string) *Builder {
	b.headers = append(b.headers, Header{Name: name, Value: value})
	return b
}

func (b *Builder) Headers(headers ...Header) *Builder {
	b.headers = append(b.headers, headers...)
	return b
}

func (b *Builder) BearerToken(token string) *Builder {
	return b.Header("Authorization", "Bearer "+token)
}

func (b *Builder) AccessToken(token string) *Builder {
	return b.Header("x-access-token", token)
}

func (b *Builder) Param(name, value string) *Builder {
	b.params = append(b.params, Param{Name: name, Value: value})
	return b
}

func (b *Builder) Params(params ...Param) *Builder {
	b.params = append(b.params, params...)
	return b
}

// File adds a multipart file part. Files are only sent with POST.
func (b *Builder) File(field, filename string, data []byte, mimeType string) *Builder {
	return b.Files(File{Field: field, Filename: filename, Data: data, MimeType: mimeType})
}

func (b *Builder) Files(files ...File) *Builder {
	b.files = append(b.files, files...)
	return b
}

// Build snapshots the accumulated state into a Built request. GET puts
// the parameters into the query string and never carries a body. POST
// sends a multipart body when at least one file was added and a
// url-encoded body otherwise.
func (b *Builder) Build() (*Built, error) {
	built := &Built{
		Method: b.method,
		URL:    b.buildURL(),
		Header: append([]Header(nil), b.headers...),
	}
	if b.method != POST {
		return built, nil
	}

	bodyTuple, err := b.buildBody()
	if err != nil {
		return nil, err
	}
	if bodyTuple.replaceContentType {
		built.Header = withoutHeader(built.Header, contentTypeHeader)
	}
	built.Header = append(built.Header, Header{Name: contentTypeHeader, Value: bodyTuple.contentType})
	built.Body = bodyTuple.body
	return built, nil
}

func (b *Builder) buildURL() *url.URL {
	u := *b.url
	if b.url.User != nil {
		u.User = cloneUserinfo(b.url.User)
	}
	if b.method != GET || len(b.params) == 0 {
		return &u
	}

	query := EncodeParams(b.params)
	if u.RawQuery == "" {
		u.RawQuery = query
	} else {
		u.RawQuery += "&" + query
	}
	u.ForceQuery = false
	return &u
}

type bodyTuple struct {
	body               []byte
	contentType        string
	replaceContentType bool
}

func (b *Builder) buildBody() (bodyTuple, error) {
	if len(b.files) == 0 {
		return buildFormBody(b.params), nil
	}
	boundary, err := b.newBoundary()
	if err != nil {
		return bodyTuple{}, errors.Wrap(err, "generating multipart boundary")
	}
	return buildMultipartBody(b.params, b.files, boundary)
}

func buildFormBody(params []Param) bodyTuple {
	return bodyTuple{
		body:               []byte(EncodeParams(params)),
		contentType:        formContentType,
		replaceContentType: true,
	}
}

func buildMultipartBody(params []Param, files []File, boundary string) (bodyTuple, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary(boundary); err != nil {
		return bodyTuple{}, errors.Wrapf(err, "setting multipart boundary %q", boundary)
	}

	for _, p := range params {
		if err := w.WriteField(p.Name, p.Value); err != nil {
			return bodyTuple{}, errors.Wrapf(err, "writing multipart field '%s'", p.Name)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		if f.MimeType != "" {
			h.Set(contentTypeHeader, f.MimeType)
		}
		part, err := w.CreatePart(h)
		if err != nil {
			return bodyTuple{}, errors.Wrapf(err, "creating multipart file '%s'", f.Field)
		}
		if _, err := part.Write(f.Data); err != nil {
			return bodyTuple{}, errors.Wrapf(err, "writing multipart file '%s'", f.Field)
		}
	}
	if err := w.Close(); err != nil {
		return bodyTuple{}, errors.Wrap(err, "closing multipart body")
	}

	return bodyTuple{
		body:               buf.Bytes(),
		contentType:        w.FormDataContentType(),
		replaceContentType: true,
	}, nil
}

func randomBoundary() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return boundaryPrefix + strings.ToUpper(id.String()), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

func withoutHeader(headers []Header, name string) []Header {
	kept := headers[:0]
	for _, h := range headers {
		if !strings.EqualFold(h.Name, name) {
			kept = append(kept, h)
		}
	}
	return kept
}
