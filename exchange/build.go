package exchange

import (
	"io/ioutil"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nojima/apicall-go/input"
	"github.com/nojima/apicall-go/request"
	"github.com/pkg/errors"
)

// BuildCall turns command line input into a Call. Field values given as
// @path and file items are read here. Auth, Acceptable and Raw are left
// for the caller to set.
func BuildCall(in *input.Input) (Call, error) {
	call := Call{
		Name:   "cli",
		Method: in.Method,
		Path:   in.URL.String(),
	}

	for _, field := range in.Header.Fields {
		value, err := resolveFieldValue(field)
		if err != nil {
			return Call{}, err
		}
		call.Headers = append(call.Headers, request.Header{Name: field.Name, Value: value})
	}

	for _, field := range in.Parameters {
		value, err := resolveFieldValue(field)
		if err != nil {
			return Call{}, err
		}
		call.Params = append(call.Params, request.Param{Name: field.Name, Value: value})
	}

	for _, field := range in.Files {
		file, err := readFile(field)
		if err != nil {
			return Call{}, err
		}
		call.Files = append(call.Files, file)
	}

	return call, nil
}

func readFile(field input.FileField) (request.File, error) {
	data, err := ioutil.ReadFile(field.Path)
	if err != nil {
		return request.File{}, errors.Wrapf(err, "reading file of '%s'", field.Name)
	}
	mimeType := field.MimeType
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}
	return request.File{
		Field:    field.Name,
		Filename: filepath.Base(field.Path),
		Data:     data,
		MimeType: mimeType,
	}, nil
}

func resolveFieldValue(field input.Field) (string, error) {
	if !field.IsFile {
		return field.Value, nil
	}
	data, err := ioutil.ReadFile(field.Value)
	if err != nil {
		return "", errors.Wrapf(err, "reading field value of '%s'", field.Name)
	}
	return string(data), nil
}
