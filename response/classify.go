package response

import (
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"
)

type options struct {
	acceptable []int
	expectJSON bool
}

type Option func(*options)

// AcceptStatus replaces the default acceptable status set {200}.
func AcceptStatus(codes ...int) Option {
	return func(o *options) {
		o.acceptable = append([]int(nil), codes...)
	}
}

// RawPayload accepts the body as-is without requiring a JSON object.
func RawPayload() Option {
	return func(o *options) {
		o.expectJSON = false
	}
}

func (o *options) isAcceptable(status int) bool {
	for _, code := range o.acceptable {
		if code == status {
			return true
		}
	}
	return false
}

// Classify decides the outcome of one exchange. Transport errors win,
// then the 401/403/409 rules, which apply even when the status is in
// the acceptable set; acceptability only gates payload parsing.
func Classify(ex Exchange, opts ...Option) *Result {
	o := options{
		acceptable: []int{http.StatusOK},
		expectJSON: true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Result{
		Proto:      ex.Proto,
		StatusCode: ex.StatusCode,
		Header:     ex.Header,
		Body:       ex.Body,
		URL:        ex.URL,
	}

	switch {
	case ex.Err != nil:
		r.Kind = TransportFailure
		r.Err = ex.Err
	case ex.StatusCode == 0:
		r.Kind = TransportFailure
		r.Err = errors.New("no HTTP response received")
	case ex.StatusCode == http.StatusUnauthorized:
		r.Kind = AuthenticationFailed
	case ex.StatusCode == http.StatusForbidden:
		r.Kind = PermissionDenied
	case ex.StatusCode == http.StatusConflict:
		r.Kind = ConflictingSession
		r.Message = extractMessage(ex.Body)
	case o.isAcceptable(ex.StatusCode):
		classifyAccepted(r, ex.Body, o.expectJSON)
	default:
		r.Kind = ServerRejected
		r.Message = extractMessage(ex.Body)
	}
	return r
}

func classifyAccepted(r *Result, body []byte, expectJSON bool) {
	if !expectJSON {
		r.Kind = Accepted
		return
	}
	payload, err := parseObject(body)
	if err != nil {
		r.Kind = MalformedPayload
		r.Err = err
		return
	}
	r.Kind = Accepted
	r.Payload = payload
	r.Message, _ = payload["message"].(string)
}

func parseObject(body []byte) (map[string]interface{}, error) {
	var obj map[string]interface{}
	if err := sonic.Unmarshal(body, &obj); err != nil {
		return nil, errors.Wrap(err, "parsing response body as JSON object")
	}
	if obj == nil {
		return nil, errors.New("response body is not a JSON object")
	}
	return obj, nil
}

func extractMessage(body []byte) string {
	obj, err := parseObject(body)
	if err != nil {
		return ""
	}
	msg, _ := obj["message"].(string)
	return msg
}
