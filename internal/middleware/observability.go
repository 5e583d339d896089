package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/community-portal-api/internal/moderation"
	"github.com/noah-isme/community-portal-api/internal/observability"
)

const adminPathPrefix = "/api/admin/"

var adminResources = map[string]struct{}{
	"moderation": {},
	"activities": {},
	"ads":        {},
}

// Observability records Prometheus metrics and a structured access log for
// admin endpoints. Moderation routes are additionally labelled with the kind.
func Observability(logger zerolog.Logger) fiber.Handler {
	observability.RegisterMetrics()

	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Path(), adminPathPrefix) {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		route := routeTemplate(c)
		method := c.Method()
		status := responseStatus(c, err)
		statusLabel := strconv.Itoa(status)
		resource := adminResource(c.Path())
		kind := moderationKindLabel(c, resource)

		observability.AdminRequests().WithLabelValues(method, route, statusLabel, resource, kind).Inc()
		observability.AdminLatency().WithLabelValues(method, route, resource).Observe(duration.Seconds())
		if status >= fiber.StatusBadRequest {
			observability.AdminErrors().WithLabelValues(method, route, statusLabel).Inc()
		}

		event := logger.With().
			Str("correlation_id", GetCorrelationID(c)).
			Str("route", route).
			Str("method", method).
			Str("resource", resource).
			Int("status", status).
			Float64("latency_ms", float64(duration)/float64(time.Millisecond)).
			Str("latency_bucket", latencyBucket(duration))
		if kind != "" {
			event = event.Str("moderation_kind", kind)
		}
		if actorID, ok := c.Locals(LocalUserID).(uint); ok && actorID != 0 {
			event = event.Uint("actor_id", actorID)
		}
		requestLogger := event.Logger()

		switch {
		case status >= fiber.StatusInternalServerError:
			requestLogger.Error().Msg("admin request failed")
		case status >= fiber.StatusBadRequest:
			requestLogger.Warn().Msg("admin request completed with client error")
		default:
			requestLogger.Info().Msg("admin request completed")
		}

		return err
	}
}

// responseStatus reports the status the error handler will write when the
// chain returned an error, since the response is not written yet.
func responseStatus(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}

func adminResource(path string) string {
	rest := strings.TrimPrefix(path, adminPathPrefix)
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		rest = rest[:idx]
	}
	if _, ok := adminResources[rest]; ok {
		return rest
	}
	return "other"
}

func moderationKindLabel(c *fiber.Ctx, resource string) string {
	if resource != "moderation" {
		return ""
	}
	raw := c.Params("kind")
	if raw == "" {
		return ""
	}
	kind, err := moderation.ParseKind(raw)
	if err != nil {
		return "unknown"
	}
	return string(kind)
}

func routeTemplate(c *fiber.Ctx) string {
	if c.Route() != nil && c.Route().Path != "" {
		return c.Route().Path
	}
	return c.Path()
}

func latencyBucket(duration time.Duration) string {
	switch {
	case duration <= 25*time.Millisecond:
		return "<=25ms"
	case duration <= 50*time.Millisecond:
		return "<=50ms"
	case duration <= 100*time.Millisecond:
		return "<=100ms"
	case duration <= 250*time.Millisecond:
		return "<=250ms"
	case duration <= 500*time.Millisecond:
		return "<=500ms"
	default:
		return ">500ms"
	}
}
