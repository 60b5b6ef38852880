package instance

import "os"

// GetID identifies this process in logs. Platform-provided identifiers win
// over the hostname.
func GetID() string {
	for _, key := range []string{"MINIBIZ_INSTANCE_ID", "DYNO", "K_REVISION"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "api-0"
}
