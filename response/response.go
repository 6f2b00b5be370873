// Package response classifies completed HTTP exchanges into the outcomes
// callers act upon.
package response

import (
	"net/http"
)

// Kind is the classification of a completed exchange.
type Kind int

const (
	Accepted Kind = iota
	AuthenticationFailed
	PermissionDenied
	ConflictingSession
	MalformedPayload
	ServerRejected
	TransportFailure
)

func (k Kind) String() string {
	switch k {
	case Accepted:
		return "Accepted"
	case AuthenticationFailed:
		return "AuthenticationFailed"
	case PermissionDenied:
		return "PermissionDenied"
	case ConflictingSession:
		return "ConflictingSession"
	case MalformedPayload:
		return "MalformedPayload"
	case ServerRejected:
		return "ServerRejected"
	case TransportFailure:
		return "TransportFailure"
	default:
		return "Unknown"
	}
}

// Exchange is what a transport hands back for one request. StatusCode is
// zero when no HTTP response was received.
type Exchange struct {
	Proto      string
	StatusCode int
	Header     http.Header
	Body       []byte
	Err        error
	URL        string
}

// Result is the outcome of classifying an Exchange. Payload is set only
// for accepted JSON responses. Message holds the server's "message" field
// when one could be extracted.
type Result struct {
	Kind       Kind
	Proto      string
	StatusCode int
	Header     http.Header
	Body       []byte
	Payload    map[string]interface{}
	Message    string
	Err        error
	URL        string
}

func (r *Result) OK() bool {
	return r.Kind == Accepted
}

// BoolField returns the named boolean field of the payload and whether it was
// present with that type.
func (r *Result) BoolField(name string) (bool, bool) {
	v, ok := r.Payload[name].(bool)
	return v, ok
}

// StringField returns the named string field of the payload.
func (r *Result) StringField(name string) (string, bool) {
	v, ok := r.Payload[name].(string)
	return v, ok
}

// IsTokenExpired reports whether an accepted payload carries the
// server's token-expired sentinel as its message.
func IsTokenExpired(r *Result, sentinel string) bool {
	return sentinel != "" && r.Kind == Accepted && r.Message == sentinel
}
