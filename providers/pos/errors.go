package pos

import "fmt"

// AuthError is returned on HTTP 401: the configured API key was rejected.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// UnavailableError is returned on HTTP 5xx. Transient; the caller may retry
// on its next natural trigger.
type UnavailableError struct {
	Status int
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("POS service temporarily unavailable (status %d)", e.Status)
}

// RequestError covers every other non-2xx answer, carrying a truncated body
// for diagnostics.
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("POS API error %d: %s", e.Status, e.Body)
}
