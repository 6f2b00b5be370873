package exchange

import (
	"context"
	"time"

	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
)

// Transport sends one built request and waits for the complete response.
type Transport interface {
	Do(ctx context.Context, built *request.Built) response.Exchange
}

// Reachability reports whether any network path is available.
type Reachability interface {
	Reachable() bool
}

// CredentialStore holds the API token and the last known user identifier.
type CredentialStore interface {
	Token() string
	SetToken(token string)
	LastUserID() string
	Save() error
}

// Navigator sends the user back to the login flow. The message may be
// empty.
type Navigator interface {
	ShowLogin(message string)
}

type NavigatorFunc func(message string)

func (f NavigatorFunc) ShowLogin(message string) {
	f(message)
}

// Logger receives diagnostic records. It never affects control flow.
type Logger interface {
	LogError(message string, code, statusCode int, body []byte)
	Tracef(format string, args ...interface{})
}

// Observer is told about every classified result.
type Observer interface {
	Observe(call string, result *response.Result, elapsed time.Duration)
}

type nopLogger struct{}

func (nopLogger) LogError(string, int, int, []byte) {}
func (nopLogger) Tracef(string, ...interface{})     {}

type nopNavigator struct{}

func (nopNavigator) ShowLogin(string) {}

type nopObserver struct{}

func (nopObserver) Observe(string, *response.Result, time.Duration) {}
