package exchange

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/nojima/apicall-go/response"
)

const (
	NetworkUnavailableMessage = "Network connection is not available right now. Please try again later"
	GenericErrorMessage       = "Internal communication error"
	InvalidCredentialsMessage = "Invalid credentials"
	NotAuthenticatedMessage   = "Please log in to continue"
	PermissionDeniedMessage   = "Your account does not have sufficient permissions"
	OneDeviceMessage          = "You can only be logged in on one device at a time. " +
		"Please log in again to use this device and log out any others"
)

type ErrorKind int

const (
	NetworkUnavailable ErrorKind = iota
	NotAuthenticated
	TransportFailure
	AuthenticationFailed
	PermissionDenied
	ConflictingSession
	MalformedPayload
	ServerRejected
	TokenExpired
)

func (k ErrorKind) String() string {
	switch k {
	case NetworkUnavailable:
		return "NetworkUnavailable"
	case NotAuthenticated:
		return "NotAuthenticated"
	case TransportFailure:
		return "TransportFailure"
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
	case TokenExpired:
		return "TokenExpired"
	default:
		return "Unknown"
	}
}

var kindOf = map[response.Kind]ErrorKind{
	response.AuthenticationFailed: AuthenticationFailed,
	response.PermissionDenied:     PermissionDenied,
	response.ConflictingSession:   ConflictingSession,
	response.MalformedPayload:     MalformedPayload,
	response.ServerRejected:       ServerRejected,
	response.TransportFailure:     TransportFailure,
}

// Error is delivered to the error continuation. Message is meant for the
// user; Result is nil when no request was sent.
type Error struct {
	Kind       ErrorKind
	Message    string
	Code       int
	StatusCode int
	Result     *response.Result
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the transport or parse error behind the result, if any.
func (e *Error) Unwrap() error {
	if e.Result == nil {
		return nil
	}
	return e.Result.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: k})
// works as a kind test.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func genericMessage(code int) string {
	return fmt.Sprintf("%s#%03d", GenericErrorMessage, code)
}

var messagePolicy = bluemonday.StrictPolicy()

// sanitizeMessage strips markup from a server-supplied message before it
// is shown to the user.
func sanitizeMessage(s string) string {
	return strings.TrimSpace(html.UnescapeString(messagePolicy.Sanitize(s)))
}
