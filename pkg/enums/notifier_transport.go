package enums

import (
	"fmt"
	"strings"
)

// NotifierTransport selects the concrete merchant notification channel.
type NotifierTransport string

const (
	NotifierTransportTelegram NotifierTransport = "telegram"
	NotifierTransportWhatsApp NotifierTransport = "whatsapp"
	NotifierTransportLog      NotifierTransport = "log"
)

var validNotifierTransports = []NotifierTransport{
	NotifierTransportTelegram,
	NotifierTransportWhatsApp,
	NotifierTransportLog,
}

func (n NotifierTransport) String() string {
	return string(n)
}

func (n NotifierTransport) IsValid() bool {
	for _, candidate := range validNotifierTransports {
		if candidate == n {
			return true
		}
	}
	return false
}

func ParseNotifierTransport(value string) (NotifierTransport, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validNotifierTransports {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notifier transport %q", value)
}
