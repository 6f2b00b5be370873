package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/nojima/apicall-go/response"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.Observe("profile", &response.Result{Kind: response.Accepted}, 120*time.Millisecond)
	c.Observe("profile", &response.Result{Kind: response.Accepted}, 80*time.Millisecond)
	c.Observe("profile", &response.Result{Kind: response.AuthenticationFailed}, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.results.WithLabelValues("profile", "Accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.results.WithLabelValues("profile", "AuthenticationFailed")))

	expected := `
# HELP apicall_results_total Classified API call results.
# TYPE apicall_results_total counter
apicall_results_total{call="profile",kind="Accepted"} 2
apicall_results_total{call="profile",kind="AuthenticationFailed"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "apicall_results_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(c.duration))
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}
