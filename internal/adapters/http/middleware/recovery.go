package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-ingest/internal/adapters/http/dto"
	"github.com/jsamuelsen/quote-ingest/internal/platform/logging"
)

// Recovery turns a panic into a logged 500 with the standard error envelope.
// It must be the first middleware in the chain.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			ctx := c.Request.Context()

			logging.FromContext(ctx).ErrorContext(ctx, "panic recovered",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
				slog.String("method", c.Request.Method),
				slog.String("path", c.Request.URL.Path),
				slog.String("trace_id", dto.GetTraceID(c)),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}

			c.AbortWithStatusJSON(http.StatusInternalServerError,
				dto.NewErrorResponse(dto.ErrorCodeInternal, "an internal error occurred").WithTraceID(dto.GetTraceID(c)))
		}()

		c.Next()
	}
}
