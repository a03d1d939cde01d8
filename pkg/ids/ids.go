package ids

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 9

// Suffix returns nine random lowercase hex characters.
func Suffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
}

// Timestamped builds "<unix-ms>-<suffix>", optionally prefixed with
// "<prefix>-". Ids built at the same instant differ only by suffix.
func Timestamped(prefix string, now time.Time) string {
	stamp := strconv.FormatInt(now.UnixMilli(), 10) + "-" + Suffix()
	if prefix == "" {
		return stamp
	}
	return prefix + "-" + stamp
}

type requestIDKey struct{}

// WithRequestID stores the inbound request id so error envelopes can echo it.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
