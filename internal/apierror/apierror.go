// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
// Reintentable tells the client the operation was rolled back by a transient
// failure and may be sent again.
type APIError struct {
	Detail       string `json:"detail"`
	Reintentable bool   `json:"reintentable,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

func NewReintentable(msg string) *APIError {
	return &APIError{Detail: msg, Reintentable: true}
}

// Validation wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
