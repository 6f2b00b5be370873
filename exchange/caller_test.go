package exchange

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/nojima/apicall-go/credentials"
	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	mu    sync.Mutex
	sent  []*request.Built
	reply response.Exchange
}

func (f *fakeTransport) Do(ctx context.Context, built *request.Built) response.Exchange {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, built)
	ex := f.reply
	ex.URL = built.URL.String()
	return ex
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type recordingNavigator struct {
	messages []string
}

func (n *recordingNavigator) ShowLogin(message string) {
	n.messages = append(n.messages, message)
}

type loggedError struct {
	message    string
	code       int
	statusCode int
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []loggedError
}

func (l *recordingLogger) LogError(message string, code, statusCode int, body []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, loggedError{message: message, code: code, statusCode: statusCode})
}

func (l *recordingLogger) Tracef(string, ...interface{}) {}

type failingStore struct {
	*credentials.Memory
}

func (failingStore) Save() error {
	return errors.New("disk full")
}

type fixture struct {
	transport *fakeTransport
	navigator *recordingNavigator
	logger    *recordingLogger
	store     *credentials.Memory
	client    *Client
}

func newFixture(t *testing.T, reply response.Exchange, reachable bool) *fixture {
	f := &fixture{
		transport: &fakeTransport{reply: reply},
		navigator: &recordingNavigator{},
		logger:    &recordingLogger{},
		store:     credentials.NewMemory("secret", "user-1"),
	}
	client, err := NewClient(Settings{
		BaseURL:             "https://api.example.com/api/v1/",
		Identity:            request.Identity{Platform: "linux", PlatformVersion: "go1", AppVersion: "1.0.0", AppBuild: "7"},
		TokenExpiredMessage: "Token expired",
		RequireSuccessFlag:  true,
	}, Deps{
		Transport:    f.transport,
		Reachability: StaticReachability(reachable),
		Credentials:  f.store,
		Navigator:    f.navigator,
		Logger:       f.logger,
	})
	require.NoError(t, err)
	f.client = client
	return f
}

func jsonReply(status int, body string) response.Exchange {
	return response.Exchange{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       []byte(body),
	}
}

func kindOfError(t *testing.T, err error) ErrorKind {
	var callErr *Error
	require.True(t, errors.As(err, &callErr), "expected *Error, got %T: %v", err, err)
	return callErr.Kind
}

func TestClient_Do_Success(t *testing.T) {
	// Setup
	f := newFixture(t, jsonReply(200, `{"success": true, "message": "ok", "count": 3}`), true)
	call := Call{Name: "profile", Code: 2, Path: "profile", Auth: AuthBearer, Params: []request.Param{{Name: "q", Value: "a b"}}}

	// Exercise
	result, err := f.client.Do(context.Background(), call)

	// Verify
	require.NoError(t, err)
	assert.Equal(t, response.Accepted, result.Kind)
	assert.Equal(t, float64(3), result.Payload["count"])
	require.Equal(t, 1, f.transport.count())
	sent := f.transport.sent[0]
	assert.Equal(t, "https://api.example.com/api/v1/profile?q=a%20b", sent.URL.String())
	assert.Equal(t, "Bearer secret", sent.HeaderValue("Authorization"))
	assert.Equal(t, "linux", sent.HeaderValue("X-App-Platform"))
	assert.Empty(t, f.navigator.messages)
	assert.Empty(t, f.logger.errors)
}

func TestClient_Do_AccessTokenHeader(t *testing.T) {
	f := newFixture(t, jsonReply(200, `{"success": true}`), true)

	_, err := f.client.Do(context.Background(), Call{Path: "items", Auth: AuthAccessToken})

	require.NoError(t, err)
	sent := f.transport.sent[0]
	assert.Equal(t, "secret", sent.HeaderValue("x-access-token"))
	assert.Equal(t, "", sent.HeaderValue("Authorization"))
}

func TestClient_Do_Unreachable(t *testing.T) {
	f := newFixture(t, jsonReply(200, `{"success": true}`), false)

	_, err := f.client.Do(context.Background(), Call{Path: "profile"})

	require.Error(t, err)
	assert.Equal(t, NetworkUnavailable, kindOfError(t, err))
	assert.Equal(t, NetworkUnavailableMessage, err.Error())
	assert.Equal(t, 0, f.transport.count())
}

func TestClient_Do_NotAuthenticated(t *testing.T) {
	f := newFixture(t, jsonReply(200, `{"success": true}`), true)
	f.store.SetToken("")

	_, err := f.client.Do(context.Background(), Call{Path: "profile", Auth: AuthBearer})

	require.Error(t, err)
	assert.Equal(t, NotAuthenticated, kindOfError(t, err))
	assert.Equal(t, []string{""}, f.navigator.messages)
	assert.Equal(t, 0, f.transport.count())
}

func TestClient_Do_InvalidAddress(t *testing.T) {
	f := newFixture(t, jsonReply(200, `{}`), true)

	_, err := f.client.Do(context.Background(), Call{Path: "http://"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, request.ErrInvalidAddress))
	assert.Equal(t, 0, f.transport.count())
}

func TestClient_Do_Failures(t *testing.T) {
	testCases := []struct {
		title              string
		reply              response.Exchange
		raw                bool
		expectedKind       ErrorKind
		expectedMessage    string
		expectedNavigation []string
		expectLog          bool
	}{
		{
			title:              "Unauthorized",
			reply:              jsonReply(401, `{"message": "nope"}`),
			expectedKind:       AuthenticationFailed,
			expectedMessage:    InvalidCredentialsMessage,
			expectedNavigation: []string{""},
		},
		{
			title:              "Forbidden",
			reply:              jsonReply(403, ``),
			expectedKind:       PermissionDenied,
			expectedMessage:    PermissionDeniedMessage,
			expectedNavigation: []string{PermissionDeniedMessage},
		},
		{
			title:              "Conflict",
			reply:              jsonReply(409, `{"message": "other device"}`),
			expectedKind:       ConflictingSession,
			expectedMessage:    OneDeviceMessage,
			expectedNavigation: []string{OneDeviceMessage},
		},
		{
			title:           "Transport error",
			reply:           response.Exchange{Err: errors.New("connection refused")},
			expectedKind:    TransportFailure,
			expectedMessage: "Internal communication error#005",
			expectLog:       true,
		},
		{
			title:           "Server error",
			reply:           jsonReply(500, `{"message": "boom"}`),
			expectedKind:    ServerRejected,
			expectedMessage: "Internal communication error#005",
			expectLog:       true,
		},
		{
			title:           "Malformed payload",
			reply:           jsonReply(200, `<html>`),
			expectedKind:    MalformedPayload,
			expectedMessage: "Internal communication error#005",
			expectLog:       true,
		},
		{
			title:           "Success flag missing",
			reply:           jsonReply(200, `{"message": "<b>Quota</b> exceeded"}`),
			expectedKind:    ServerRejected,
			expectedMessage: "Quota exceeded",
		},
		{
			title:           "Success flag false without message",
			reply:           jsonReply(200, `{"success": false}`),
			expectedKind:    ServerRejected,
			expectedMessage: "Internal communication error#005",
		},
		{
			title:              "Raw call still honors 403",
			reply:              response.Exchange{StatusCode: 403, Body: []byte("denied")},
			raw:                true,
			expectedKind:       PermissionDenied,
			expectedMessage:    PermissionDeniedMessage,
			expectedNavigation: []string{PermissionDeniedMessage},
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			f := newFixture(t, tt.reply, true)

			result, err := f.client.Do(context.Background(), Call{Code: 5, Path: "items", Raw: tt.raw})

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.expectedKind, kindOfError(t, err))
			assert.Equal(t, tt.expectedMessage, err.Error())
			assert.Equal(t, tt.expectedNavigation, f.navigator.messages)
			if tt.expectLog {
				require.Len(t, f.logger.errors, 1)
				assert.Equal(t, 5, f.logger.errors[0].code)
			} else {
				assert.Empty(t, f.logger.errors)
			}
		})
	}
}

func TestClient_Do_TransportErrorIsUnwrappable(t *testing.T) {
	cause := errors.New("connection refused")
	f := newFixture(t, response.Exchange{Err: cause}, true)

	_, err := f.client.Do(context.Background(), Call{Path: "items"})

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &Error{Kind: TransportFailure}))
	assert.False(t, errors.Is(err, &Error{Kind: ServerRejected}))
}

func TestClient_Do_TokenExpired(t *testing.T) {
	f := newFixture(t, jsonReply(200, `{"success": false, "message": "Token expired"}`), true)

	_, err := f.client.Do(context.Background(), Call{Path: "items", Auth: AuthBearer})

	require.Error(t, err)
	assert.Equal(t, TokenExpired, kindOfError(t, err))
	assert.Equal(t, "Token expired", err.Error())
	assert.Equal(t, "", f.store.Token())
	assert.Equal(t, "user-1", f.store.LastUserID())
}

func TestClient_Do_TokenExpiredSaveFailure(t *testing.T) {
	transport := &fakeTransport{reply: jsonReply(200, `{"message": "Token expired"}`)}
	logger := &recordingLogger{}
	store := failingStore{credentials.NewMemory("secret", "")}
	client, err := NewClient(Settings{TokenExpiredMessage: "Token expired"}, Deps{
		Transport:    transport,
		Reachability: StaticReachability(true),
		Credentials:  store,
		Logger:       logger,
	})
	require.NoError(t, err)

	_, err = client.Do(context.Background(), Call{Path: "https://api.example.com/items", Auth: AuthBearer})

	assert.Equal(t, TokenExpired, kindOfError(t, err))
	assert.Equal(t, "", store.Token())
	require.Len(t, logger.errors, 1)
	assert.Contains(t, logger.errors[0].message, "disk full")
}

func TestClient_Do_RawDownload(t *testing.T) {
	f := newFixture(t, response.Exchange{StatusCode: 200, Body: []byte{0xff, 0x00, 0x01}}, true)

	result, err := f.client.Do(context.Background(), Call{Path: "files/1", Auth: AuthBearer, Raw: true})

	require.NoError(t, err)
	assert.Equal(t, response.Accepted, result.Kind)
	assert.Equal(t, []byte{0xff, 0x00, 0x01}, result.Body)
	assert.Nil(t, result.Payload)
}

func TestClient_Do_AcceptableStatus(t *testing.T) {
	f := newFixture(t, jsonReply(201, `{"success": true}`), true)

	result, err := f.client.Do(context.Background(), Call{Path: "items", Method: request.POST, Acceptable: []int{200, 201}})

	require.NoError(t, err)
	assert.Equal(t, 201, result.StatusCode)
	assert.Equal(t, request.POST, f.transport.sent[0].Method)
}

func TestClient_Go_ExactlyOneContinuation(t *testing.T) {
	testCases := []struct {
		title         string
		reply         response.Exchange
		reachable     bool
		expectSuccess bool
	}{
		{title: "Success", reply: jsonReply(200, `{"success": true}`), reachable: true, expectSuccess: true},
		{title: "Server error", reply: jsonReply(500, `{}`), reachable: true},
		{title: "Unreachable", reply: jsonReply(200, `{"success": true}`), reachable: false},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			// Setup
			queue := NewMainQueue()
			f := newFixture(t, tt.reply, tt.reachable)
			f.client.deps.Dispatcher = queue
			successes, failures := 0, 0
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Exercise
			err := f.client.Go(ctx, Call{Path: "items"},
				func(*response.Result) { successes++ },
				func(error) { failures++ })
			require.NoError(t, err)
			require.NoError(t, queue.RunOnce(ctx))

			// Verify
			if tt.expectSuccess {
				assert.Equal(t, 1, successes)
				assert.Equal(t, 0, failures)
			} else {
				assert.Equal(t, 0, successes)
				assert.Equal(t, 1, failures)
			}

			short, cancelShort := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancelShort()
			assert.Equal(t, context.DeadlineExceeded, queue.RunOnce(short))
		})
	}
}

func TestClient_Go_InvalidAddress(t *testing.T) {
	f := newFixture(t, jsonReply(200, `{}`), true)
	called := false

	err := f.client.Go(context.Background(), Call{Path: "ftp:no-host"},
		func(*response.Result) { called = true },
		func(error) { called = true })

	assert.True(t, errors.Is(err, request.ErrInvalidAddress))
	assert.False(t, called)
}

func TestClient_Resolve(t *testing.T) {
	testCases := []struct {
		title    string
		baseURL  string
		path     string
		expected string
	}{
		{title: "Relative path", baseURL: "https://h/api/v1/", path: "users", expected: "https://h/api/v1/users"},
		{title: "Leading slash", baseURL: "https://h/api/v1", path: "/users", expected: "https://h/api/v1/users"},
		{title: "Absolute URL", baseURL: "https://h/api/v1/", path: "https://other/x", expected: "https://other/x"},
		{title: "No base URL", baseURL: "", path: "https://other/x", expected: "https://other/x"},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			c := &Client{settings: Settings{BaseURL: tt.baseURL}}
			assert.Equal(t, tt.expected, c.resolve(tt.path))
		})
	}
}
