package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
)

// internalPrefix marks probe and metrics routes, which are not logged.
const internalPrefix = "/-/"

// Logging logs each completed request at a level chosen by its status.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, internalPrefix) {
			c.Next()
			return
		}

		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		latency := time.Since(start)
		status := c.Writer.Status()

		logging.FromContext(ctx).Log(ctx, levelFor(status), "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.String("route", c.FullPath()),
			slog.String("client_ip", c.ClientIP()),
			slog.Int("status", status),
			slog.Duration("latency", latency),
			slog.Int("bytes", c.Writer.Size()),
		)
	}
}

func levelFor(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
