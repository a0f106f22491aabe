package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so tests can create as many as they like.
// A nil *Collector is valid and records nothing.
type Collector struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	rateLimited   prometheus.Counter
	operations    *prometheus.CounterVec
	payrollAmount *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "domain_operations_total",
			Help: "Domain operations by area, operation and outcome.",
		}, []string{"area", "operation", "outcome"}),
		payrollAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payroll_processed_amount_total",
			Help: "Gross and net amounts of processed payroll records.",
		}, []string{"kind"}),
	}
	c.registry.MustRegister(
		c.requests, c.duration, c.rateLimited, c.operations, c.payrollAmount,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Record(method string, status int, duration time.Duration) {
	if c == nil {
		return
	}
	c.requests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(method).Observe(duration.Seconds())
	if status == http.StatusTooManyRequests {
		c.rateLimited.Inc()
	}
}

// Operation counts one domain operation; err decides the outcome label.
func (c *Collector) Operation(area, operation string, err error) {
	if c == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.operations.WithLabelValues(area, operation, outcome).Inc()
}

func (c *Collector) PayrollAmounts(gross, net float64) {
	if c == nil {
		return
	}
	if gross > 0 {
		c.payrollAmount.WithLabelValues("gross").Add(gross)
	}
	if net > 0 {
		c.payrollAmount.WithLabelValues("net").Add(net)
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
