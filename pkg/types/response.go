package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope is the body of every non-2xx response. Error holds the
// human readable message so clients can render it directly.
type ErrorEnvelope struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}
