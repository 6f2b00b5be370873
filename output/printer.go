package output

import (
	"io"
	"net/http"

	"github.com/nojima/apicall-go/request"
)

type Printer interface {
	PrintRequestLine(req *request.Built) error
	PrintStatusLine(proto string, status string, statusCode int) error
	PrintHeader(header http.Header) error
	PrintBody(body io.Reader, contentType string) error
}

// NewPrinter picks the printer matching options.
func NewPrinter(writer io.Writer, options *Options) Printer {
	if !options.EnableFormat && !options.EnableColor {
		return NewPlainPrinter(writer)
	}
	return NewPrettyPrinter(PrettyPrinterConfig{
		Writer:       writer,
		EnableColor:  options.EnableColor,
		EnableFormat: options.EnableFormat,
	})
}

// RequestHeader collects the headers of req in the order they are sent.
func RequestHeader(req *request.Built) http.Header {
	header := make(http.Header)
	for _, h := range req.Header {
		header.Add(h.Name, h.Value)
	}
	return header
}
