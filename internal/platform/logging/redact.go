package logging

import (
	"context"
	"log/slog"
	"regexp"
	"slices"

	"github.com/m-mizutani/masq"
)

var (
	jwtPattern       = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
	bearerPattern    = regexp.MustCompile(`(?i)^bearer\s+.+$`)
	basicAuthPattern = regexp.MustCompile(`(?i)^basic\s+.+$`)
)

// sensitiveFields are attribute names whose values never reach a log line.
var sensitiveFields = []string{
	"password", "secret", "token",
	"apiKey", "apikey", "api_key",
	"accessToken", "access_token", "refreshToken", "refresh_token",
	"credential", "credentials", "authorization", "auth", "bearer",
	"cookie", "session",
	"privateKey", "private_key", "secretKey", "secret_key",
}

// DefaultRedactOptions returns the masq options applied to every handler.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(sensitiveFields)+5)

	for _, name := range sensitiveFields {
		opts = append(opts, masq.WithFieldName(name))
	}

	return append(opts,
		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),
		masq.WithRegex(jwtPattern),
		masq.WithRegex(bearerPattern),
		masq.WithRegex(basicAuthPattern),
	)
}

// NewReplaceAttr creates a slog ReplaceAttr func that redacts secrets.
// Extra options extend the defaults.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(slices.Concat(DefaultRedactOptions(), opts)...)
}

// RedactHandler applies a ReplaceAttr func to handlers that lack the hook.
type RedactHandler struct {
	next    slog.Handler
	replace func(groups []string, a slog.Attr) slog.Attr
	groups  []string
}

// NewRedactHandler wraps next so every attribute passes through replace first.
func NewRedactHandler(next slog.Handler, replace func(groups []string, a slog.Attr) slog.Attr) *RedactHandler {
	return &RedactHandler{next: next, replace: replace}
}

// Enabled implements slog.Handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)

	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.replace(h.groups, a))
		return true
	})

	return h.next.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = h.replace(h.groups, a)
	}

	return &RedactHandler{next: h.next.WithAttrs(redacted), replace: h.replace, groups: h.groups}
}

// WithGroup implements slog.Handler.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{
		next:    h.next.WithGroup(name),
		replace: h.replace,
		groups:  append(slices.Clip(h.groups), name),
	}
}
