package input

import (
	"io"
	"io/ioutil"
	"net/url"
	"regexp"
	"strings"

	"github.com/nojima/apicall-go/request"
	"github.com/pkg/errors"
)

var (
	reMethod          = regexp.MustCompile(`^[a-zA-Z]+$`)
	reHeaderFieldName = regexp.MustCompile("^[-!#$%&'*+.^_|~a-zA-Z0-9]+$")
	reScheme          = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+-.]*://`)
)

type itemType int

const (
	unknownItem itemType = iota
	httpHeaderItem
	parameterItem
	rawJSONFieldItem
	formFileFieldItem
)

type UsageError string

func (e *UsageError) Error() string {
	return string(*e)
}

func newUsageError(message string) error {
	u := UsageError(message)
	return errors.WithStack(&u)
}

type state struct {
	stdinConsumed bool
}

func ParseArgs(args []string, stdin io.Reader, options *Options) (*Input, error) {
	var argMethod string
	var argURL string
	var argItems []string
	switch len(args) {
	case 0:
		return nil, newUsageError("URL is required")
	case 1:
		argURL = args[0]
	default:
		if reMethod.MatchString(args[0]) {
			argMethod = args[0]
			argURL = args[1]
			argItems = args[2:]
		} else {
			argURL = args[0]
			argItems = args[1:]
		}
	}

	in := Input{}
	state := state{}

	u, err := parseURL(argURL, options)
	if err != nil {
		return nil, err
	}
	in.URL = u

	for _, arg := range argItems {
		if err := parseItem(arg, stdin, &state, &in); err != nil {
			return nil, err
		}
	}

	if argMethod != "" {
		method, err := request.ParseMethod(argMethod)
		if err != nil {
			return nil, newUsageError(err.Error())
		}
		in.Method = method
	} else {
		in.Method = guessMethod(&in)
	}

	return &in, nil
}

func guessMethod(in *Input) request.Method {
	if len(in.Files) > 0 {
		return request.POST
	}
	return request.GET
}

func parseURL(s string, options *Options) (*url.URL, error) {
	defaultScheme := "http"
	defaultHost := "localhost"

	// ex) /profile with a configured base URL
	if strings.HasPrefix(s, "/") && options.BaseURL != "" {
		s = strings.TrimSuffix(options.BaseURL, "/") + s
	}

	// ex) :8080/hello or /hello
	if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "/") {
		s = defaultHost + s
	}

	// ex) example.com/hello
	if !reScheme.MatchString(s) {
		s = defaultScheme + "://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, newUsageError("Invalid URL: " + s)
	}
	u.Host = strings.TrimSuffix(u.Host, ":")
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

func parseItem(s string, stdin io.Reader, state *state, in *Input) error {
	itemType, name, value := splitItem(s)
	switch itemType {
	case parameterItem:
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Parameters = append(in.Parameters, field)
	case httpHeaderItem:
		if !isValidHeaderFieldName(name) {
			return errors.Errorf("invalid header field name: %s", name)
		}
		field, err := parseField(name, value, stdin, state)
		if err != nil {
			return err
		}
		in.Header.Fields = append(in.Header.Fields, field)
	case formFileFieldItem:
		in.Files = append(in.Files, parseFileField(name, value))
	case rawJSONFieldItem:
		return errors.Errorf("raw JSON field items are not supported: %s (bodies are form encoded)", s)
	default:
		return errors.Errorf("unknown request item: %s", s)
	}
	return nil
}

func splitItem(s string) (itemType, string, string) {
	for i, c := range s {
		switch c {
		case ':':
			if i+1 < len(s) && s[i+1] == '=' {
				return rawJSONFieldItem, s[:i], s[i+2:]
			} else {
				return httpHeaderItem, s[:i], s[i+1:]
			}
		case '=':
			// "name==value" is accepted as an alias of "name=value"
			if i+1 < len(s) && s[i+1] == '=' {
				return parameterItem, s[:i], s[i+2:]
			} else {
				return parameterItem, s[:i], s[i+1:]
			}
		case '@':
			return formFileFieldItem, s[:i], s[i+1:]
		}
	}
	return unknownItem, "", ""
}

func isValidHeaderFieldName(s string) bool {
	return reHeaderFieldName.MatchString(s)
}

func parseField(name, value string, stdin io.Reader, state *state) (Field, error) {
	// TODO: handle escaped "@"
	if strings.HasPrefix(value, "@") {
		if value[1:] == "-" {
			if state.stdinConsumed {
				return Field{}, errors.Errorf("stdin was already consumed before '%s'", name)
			}
			b, err := ioutil.ReadAll(stdin)
			if err != nil {
				return Field{}, errors.Wrapf(err, "reading stdin for '%s'", name)
			}
			state.stdinConsumed = true
			return Field{Name: name, Value: string(b), IsFile: false}, nil
		} else {
			return Field{Name: name, Value: value[1:], IsFile: true}, nil
		}
	} else {
		return Field{Name: name, Value: value, IsFile: false}, nil
	}
}

// parseFileField splits "path;type=mime/type".
func parseFileField(name, value string) FileField {
	path := value
	mimeType := ""
	if i := strings.LastIndex(value, ";type="); i >= 0 {
		path = value[:i]
		mimeType = value[i+len(";type="):]
	}
	return FileField{Name: name, Path: path, MimeType: mimeType}
}
