package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestMiddleware(t *testing.T) {
	m := New()
	h := RequestMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad" {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))

	for _, p := range []string{"/ok", "/bad", "/ok"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requestsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errorsTotal))
}

func TestHandler_refreshesGauges(t *testing.T) {
	m := New()
	m.IncFixtureLoads("flow.json")
	m.IncFixtureFailures("claims.json", "parse")

	rec := httptest.NewRecorder()
	m.Handler(func() { m.SetActiveViews(3) }).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "topology_active_views 3"), body)
	assert.Contains(t, body, `topology_fixture_loads_total{file="flow.json"} 1`)
	assert.Contains(t, body, `topology_fixture_load_failures_total{file="claims.json",kind="parse"} 1`)
}
