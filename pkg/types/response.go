// Package types holds the JSON envelope shapes shared by every HTTP
// response. Handlers never emit bare payloads; data rides under "data"
// and failures under "error".
package types

// SuccessEnvelope wraps a successful response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the wire form of a coded application error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a failed response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
