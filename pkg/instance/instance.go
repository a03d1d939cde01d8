package instance

import (
	"os"

	"github.com/angelmondragon/fluxo-pos/pkg/env"
)

// GetID identifies this agent process in lock values and logs. It falls back
// to the host name.
func GetID() string {
	if id := env.First("FLUXO_INSTANCE_ID", "HOSTNAME"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "pos-agent-0"
}
