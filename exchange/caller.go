package exchange

import (
	"context"
	"time"

	"github.com/nojima/apicall-go/credentials"
	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
	"github.com/pkg/errors"
)

// Settings describe the remote API and its conventions.
type Settings struct {
	// BaseURL is prepended to relative call paths.
	BaseURL  string
	Identity request.Identity
	// TokenExpiredMessage is the server message meaning the stored token
	// is no longer valid.
	TokenExpiredMessage string
	// RequireSuccessFlag rejects accepted JSON payloads whose "success"
	// field is not true.
	RequireSuccessFlag bool
}

// Deps are the collaborators of a Client. Nil members get defaults.
type Deps struct {
	Transport    Transport
	Reachability Reachability
	Credentials  CredentialStore
	Navigator    Navigator
	Logger       Logger
	Dispatcher   Dispatcher
	Observer     Observer
}

// Client runs calls against one API: reachability check, request
// construction, transport, classification and recovery policy.
type Client struct {
	settings Settings
	deps     Deps
}

func NewClient(settings Settings, deps Deps) (*Client, error) {
	if deps.Transport == nil {
		t, err := NewHTTPTransport(&Options{Timeout: 30 * time.Second})
		if err != nil {
			return nil, err
		}
		deps.Transport = t
	}
	if deps.Reachability == nil {
		deps.Reachability = InterfaceReachability{}
	}
	if deps.Credentials == nil {
		deps.Credentials = credentials.NewMemory("", "")
	}
	if deps.Navigator == nil {
		deps.Navigator = nopNavigator{}
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	if deps.Dispatcher == nil {
		deps.Dispatcher = Inline
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	return &Client{settings: settings, deps: deps}, nil
}

// Go runs call asynchronously. Construction errors such as
// request.ErrInvalidAddress are returned and no continuation fires.
// Otherwise exactly one of onSuccess and onError is invoked through the
// dispatcher.
func (c *Client) Go(ctx context.Context, call Call, onSuccess func(*response.Result), onError func(error)) error {
	built, err := c.prepare(call)
	if err != nil {
		var callErr *Error
		if !errors.As(err, &callErr) {
			return err
		}
		c.deps.Dispatcher.Dispatch(func() { onError(err) })
		return nil
	}

	go func() {
		result, err := c.send(ctx, call, built)
		c.deps.Dispatcher.Dispatch(func() {
			if err != nil {
				onError(err)
				return
			}
			onSuccess(result)
		})
	}()
	return nil
}

// Do runs call and waits for its outcome.
func (c *Client) Do(ctx context.Context, call Call) (*response.Result, error) {
	built, err := c.prepare(call)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, call, built)
}

func (c *Client) prepare(call Call) (*request.Built, error) {
	if !c.deps.Reachability.Reachable() {
		return nil, &Error{Kind: NetworkUnavailable, Message: NetworkUnavailableMessage, Code: call.Code}
	}

	token := ""
	if call.Auth != AuthNone {
		token = c.deps.Credentials.Token()
		if token == "" {
			c.deps.Navigator.ShowLogin("")
			return nil, &Error{Kind: NotAuthenticated, Message: NotAuthenticatedMessage, Code: call.Code}
		}
	}
	return c.buildRequest(call, token)
}

func (c *Client) send(ctx context.Context, call Call, built *request.Built) (*response.Result, error) {
	start := time.Now()
	ex := c.deps.Transport.Do(ctx, built)
	result := response.Classify(ex, call.classifyOptions()...)
	c.deps.Observer.Observe(call.Name, result, time.Since(start))
	c.deps.Logger.Tracef("%s %s: status=%d kind=%s", built.Method, result.URL, result.StatusCode, result.Kind)

	if err := c.apply(call, result); err != nil {
		return nil, err
	}
	return result, nil
}

// apply turns a classification into the caller-side policy: login
// navigation for auth failures, diagnostics for local errors and token
// invalidation when the server reports it expired.
func (c *Client) apply(call Call, result *response.Result) error {
	fail := func(kind ErrorKind, message string) error {
		return &Error{
			Kind:       kind,
			Message:    message,
			Code:       call.Code,
			StatusCode: result.StatusCode,
			Result:     result,
		}
	}

	switch result.Kind {
	case response.Accepted:
		return c.applyAccepted(call, result, fail)

	case response.AuthenticationFailed:
		c.deps.Navigator.ShowLogin("")
		return fail(AuthenticationFailed, InvalidCredentialsMessage)

	case response.PermissionDenied:
		c.deps.Navigator.ShowLogin(PermissionDeniedMessage)
		return fail(PermissionDenied, PermissionDeniedMessage)

	case response.ConflictingSession:
		c.deps.Navigator.ShowLogin(OneDeviceMessage)
		return fail(ConflictingSession, OneDeviceMessage)

	case response.TransportFailure:
		message := genericMessage(call.Code)
		detail := message
		if result.Err != nil {
			detail += ": " + result.Err.Error()
		}
		c.deps.Logger.LogError(detail, call.Code, result.StatusCode, result.Body)
		return fail(TransportFailure, message)

	default:
		message := genericMessage(call.Code)
		if result.Message != "" {
			c.deps.Logger.Tracef("received JSON error message: %s", result.Message)
		}
		c.deps.Logger.LogError(message, call.Code, result.StatusCode, result.Body)
		return fail(kindOf[result.Kind], message)
	}
}

func (c *Client) applyAccepted(call Call, result *response.Result, fail func(ErrorKind, string) error) error {
	if call.Raw {
		return nil
	}

	message := sanitizeMessage(result.Message)
	if message == "" {
		message = genericMessage(call.Code)
	}

	if response.IsTokenExpired(result, c.settings.TokenExpiredMessage) {
		c.deps.Credentials.SetToken("")
		if err := c.deps.Credentials.Save(); err != nil {
			c.deps.Logger.LogError(errors.Wrap(err, "persisting cleared token").Error(), call.Code, result.StatusCode, nil)
		}
		return fail(TokenExpired, message)
	}

	if c.settings.RequireSuccessFlag {
		if ok, _ := result.BoolField("success"); !ok {
			return fail(ServerRejected, message)
		}
	}
	return nil
}
