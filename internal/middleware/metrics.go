package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RedisErrors counts Redis command failures by operation type.
var RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "inkwell_redis_errors_total",
	Help: "Total number of Redis errors by operation type",
}, []string{"operation"})

// AuthoringFailures counts post-authoring saves that were caught and
// converted to a generic form error.
var AuthoringFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "inkwell_post_authoring_failures_total",
	Help: "Total number of post authoring saves that failed and were surfaced as a form error",
})

var (
	promOnce       sync.Once
	promMiddleware *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service
// name. The underlying collectors register with the default registry, so
// only the first call's service name takes effect.
func InitMetrics(service string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		promMiddleware = fiberprometheus.New(service)
	})
	return promMiddleware
}

// MetricsMiddleware wraps the fiberprometheus handler as a Fiber middleware.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
