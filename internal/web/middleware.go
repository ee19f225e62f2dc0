package web

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/blogicum/blogicum/internal/auth"
	"github.com/blogicum/blogicum/pkg/logging"
	"github.com/blogicum/blogicum/pkg/telemetry"
)

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		reqLogger := logger
		if user := auth.CurrentUser(c); user != nil {
			reqLogger = logging.WithUser(logger, user.ID)
		}
		reqLogger.Info("Request", fields...)
	}
}

// instrument wraps each request in a span and counts it
func instrument() gin.HandlerFunc {
	requests, err := telemetry.Meter().Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests served"),
	)
	if err != nil {
		requests = nil
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := telemetry.StartSpan(c.Request.Context(), fmt.Sprintf("%s %s", c.Request.Method, route),
			trace.WithSpanKind(trace.SpanKindServer),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		attrs := []attribute.KeyValue{
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		}
		span.SetAttributes(attrs...)
		if requests != nil {
			requests.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
	}
}

// secureHeaders sets the response headers every page carries
func secureHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Next()
	}
}
