package linkedin

import (
	"errors"
	"fmt"
)

var (
	// ErrNilParameter is a nil parameter error
	ErrNilParameter = errors.New("nil parameter")

	// ErrInvalidParameter is an invalid parameter error
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidConfiguration is returned when a client is constructed from a
	// configuration with missing or malformed fields
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrInvalidCACert is an invalid CA certificate error
	ErrInvalidCACert = errors.New("invalid CA certificate")

	// ErrIDGeneratorFailed is returned when a unique id cannot be generated
	ErrIDGeneratorFailed = errors.New("id generation failed")

	// ErrTransport is returned when a request never produced a usable
	// response: connection failures, timeouts, TLS problems
	ErrTransport = errors.New("transport failure")

	// ErrTokenExchange is returned when the token endpoint rejects an
	// authorization code or answers with a body the exchange cannot use
	ErrTokenExchange = errors.New("token exchange failed")

	// ErrUnexpectedResponse is returned when the API answers with a body that
	// cannot be decoded, or with an error status
	ErrUnexpectedResponse = errors.New("unexpected API response")
)

// ResponseError reports an application-level error returned by the API: a
// response body carrying a status outside of [200, 300) along with the
// provider's message.  The raw payload is retained for diagnosis.
type ResponseError struct {
	// Status is the status the provider reported in the response body
	Status int

	// Message is the provider's error message, when one was included
	Message string

	// Body is the raw response payload
	Body []byte
}

func (e *ResponseError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unwrap supports matching a ResponseError with
// errors.Is(err, ErrUnexpectedResponse).
func (e *ResponseError) Unwrap() error { return ErrUnexpectedResponse }
