package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveMutation(t *testing.T) {
	Init()
	before := testutil.ToFloat64(mutations.WithLabelValues("add", ResultOK))

	ObserveMutation("add", ResultOK)
	ObserveMutation("add", ResultOK)

	assert.Equal(t, before+2, testutil.ToFloat64(mutations.WithLabelValues("add", ResultOK)))
}

func TestHandlerExposesCounters(t *testing.T) {
	ObserveFire("sent")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "chatcmd_custom_command_fires_total")
}
