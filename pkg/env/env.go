package env

import (
	"os"
	"strings"
)

// Prefix matches the envconfig prefix used by pkg/config.
const Prefix = "MINIBIZ_"

// Get returns MINIBIZ_<key>, then the bare key, then fallback. Blank values
// count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
