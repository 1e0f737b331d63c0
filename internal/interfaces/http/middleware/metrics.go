package middleware

import (
	"time"

	"github.com/erp/procurement/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// HTTPMetricsConfig holds configuration for HTTP metrics middleware.
type HTTPMetricsConfig struct {
	// Metrics is the registry the request collectors live on.
	Metrics *telemetry.Metrics
	// Enabled controls whether metrics collection is active.
	Enabled bool
	// SkipPaths are not recorded, e.g. the scrape endpoint itself.
	SkipPaths []string
}

// DefaultHTTPMetricsConfig returns default HTTP metrics configuration.
func DefaultHTTPMetricsConfig(metrics *telemetry.Metrics) HTTPMetricsConfig {
	return HTTPMetricsConfig{
		Metrics:   metrics,
		Enabled:   true,
		SkipPaths: []string{"/metrics"},
	}
}

// HTTPMetrics records request count, latency and in-flight requests. The
// route label is the matched route pattern so that IDs in the path do not
// create new series.
func HTTPMetrics(cfg HTTPMetricsConfig) gin.HandlerFunc {
	if !cfg.Enabled || cfg.Metrics == nil {
		return func(c *gin.Context) { c.Next() }
	}

	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()
		cfg.Metrics.RequestStarted()

		c.Next()

		cfg.Metrics.ObserveHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
