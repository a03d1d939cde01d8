package ids

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestampedShape(t *testing.T) {
	now := time.UnixMilli(1700000000123)

	require.Regexp(t, regexp.MustCompile(`^1700000000123-[0-9a-f]{9}$`), Timestamped("", now))
	require.Regexp(t, regexp.MustCompile(`^offline-1700000000123-[0-9a-f]{9}$`), Timestamped("offline", now))
}

func TestTimestampedUniqueWithinSameMillisecond(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	seen := make(map[string]struct{}, 500)
	for i := 0; i < 500; i++ {
		id := Timestamped("offline", now)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
