package middleware

import (
	"context"
	"net/http"
)

type contextKey string

const ctxTerminalID contextKey = "terminal_id"

func TerminalIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxTerminalID).(string); ok {
		return v
	}
	return ""
}

// WithTerminalID injects the terminal identifier into the context.
func WithTerminalID(ctx context.Context, terminalID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxTerminalID, terminalID)
}

// Terminal tags every request with the terminal the agent runs on. The
// logger already stamps terminal_id on every entry, so only the context is
// touched here.
func Terminal(terminalID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithTerminalID(r.Context(), terminalID)))
		})
	}
}
