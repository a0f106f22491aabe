package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorCounts(t *testing.T) {
	c := New()
	c.Record(http.MethodGet, http.StatusOK, 10*time.Millisecond)
	c.Record(http.MethodGet, http.StatusTooManyRequests, time.Millisecond)
	c.Operation("payroll", "process", nil)
	c.Operation("payroll", "process", errors.New("boom"))
	c.PayrollAmounts(2000000, 1800000)
	c.PayrollAmounts(-5, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues(http.MethodGet, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rateLimited))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("payroll", "process", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.operations.WithLabelValues("payroll", "process", "failure")))
	assert.Equal(t, 2000000.0, testutil.ToFloat64(c.payrollAmount.WithLabelValues("gross")))
	assert.Equal(t, 1800000.0, testutil.ToFloat64(c.payrollAmount.WithLabelValues("net")))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Record(http.MethodPost, http.StatusCreated, time.Second)
		c.Operation("subscription", "approve", nil)
		c.PayrollAmounts(1, 1)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.Operation("subscription", "expire", nil)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `domain_operations_total{area="subscription",operation="expire",outcome="success"} 1`)
}
