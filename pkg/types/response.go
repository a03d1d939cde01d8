package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of every failed request. Retryable tells the register
// UI whether resubmitting the same request can succeed.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
