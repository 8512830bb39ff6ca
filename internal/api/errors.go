package api

import "fmt"

// TransportError wraps connectivity failures (DNS, TLS, refused connections).
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string { return "transport: " + e.Cause.Error() }
func (e *TransportError) Unwrap() error { return e.Cause }

// EmptyResponseError is returned when the server answered with no body at all.
type EmptyResponseError struct {
	Endpoint string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("empty response from %s", e.Endpoint)
}

// DecodeError carries the raw body for diagnostics. The PHP backend's
// envelope shape is inconsistent across endpoints, so the raw text is the
// only reliable way to see what actually came back.
type DecodeError struct {
	Endpoint string
	Raw      string
	Cause    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v (body: %q)", e.Endpoint, e.Cause, e.Raw)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ValidationError reports a client-side precondition failure. No network
// call has been made when one of these is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// AuthError is a server-rejected login.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return "auth: " + e.Message }

// DomainError is any other server-reported failure (status=false with a
// message, e.g. "no drivers available").
type DomainError struct {
	Endpoint string
	Message  string
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("%s: %s", e.Endpoint, e.Message)
}
