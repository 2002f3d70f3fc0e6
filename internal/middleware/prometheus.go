package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/instaflan/web/internal/apiclient"
	"github.com/instaflan/web/validators"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status", "service"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "service"},
	)

	chatOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_operations_total",
			Help: "Total number of chat operations processed",
		},
		[]string{"operation", "status", "service"},
	)

	chatOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chat_operation_duration_seconds",
			Help:    "Duration of chat operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"operation", "service"},
	)

	chatErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_errors_total",
			Help: "Total number of chat operation errors",
		},
		[]string{"operation", "error_type", "service"},
	)
)

func PrometheusMiddleware(serviceName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				// let echo write the error response so the recorded status is the real one
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = c.Request().URL.Path
			}
			status := strconv.Itoa(c.Response().Status)

			httpRequestsTotal.WithLabelValues(c.Request().Method, path, status, serviceName).Inc()
			httpRequestDuration.WithLabelValues(c.Request().Method, path, serviceName).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// RegisterWorkspaceGauge exports the number of live session workspaces.
func RegisterWorkspaceGauge(serviceName string, count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name:        "active_workspaces",
		Help:        "Number of signed-in sessions holding UI state",
		ConstLabels: prometheus.Labels{"service": serviceName},
	}, func() float64 { return float64(count()) })
}

// RecordChatOperation counts a send or edit and classifies its failure.
func RecordChatOperation(operation, serviceName string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	chatOperationsTotal.WithLabelValues(operation, status, serviceName).Inc()
	chatOperationDuration.WithLabelValues(operation, serviceName).Observe(duration.Seconds())

	if err != nil {
		chatErrors.WithLabelValues(operation, errorType(err), serviceName).Inc()
	}
}

func errorType(err error) string {
	var apiErr *apiclient.APIError
	var statusErr *apiclient.StatusError
	switch {
	case validators.IsValidationError(err):
		return "validation"
	case apiclient.IsSessionError(err):
		return "session"
	case errors.As(err, &apiErr):
		return "api"
	case errors.As(err, &statusErr):
		return "status"
	}
	return "unknown"
}
