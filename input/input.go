package input

import (
	"net/url"

	"github.com/nojima/apicall-go/request"
)

type Input struct {
	Method     request.Method
	URL        *url.URL
	Parameters []Field
	Header     Header
	Files      []FileField
}

type Header struct {
	Fields []Field
}

type Field struct {
	Name   string
	Value  string
	IsFile bool
}

// FileField is a multipart file item. An empty MimeType is detected from
// the file content.
type FileField struct {
	Name     string
	Path     string
	MimeType string
}

type Options struct {
	// BaseURL resolves URLs given as a bare path, e.g. /profile.
	BaseURL string
}
