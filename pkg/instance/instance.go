package instance

import (
	"os"

	"github.com/angelmondragon/estatedesk-backend/pkg/env"
)

// GetID names this process in lock metadata. It prefers the configured
// instance id, then the platform dyno name, then the hostname.
func GetID() string {
	if id := env.First("ESTATEDESK_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
