package plisio

import "errors"

var (
	// ErrGatewayUnavailable marks transient network or server failures.
	// Callers may retry with backoff.
	ErrGatewayUnavailable = errors.New("plisio: gateway unavailable")
	// ErrGatewayRejected marks a provider-side validation failure on the
	// invoice parameters. Not retryable without changing the request.
	ErrGatewayRejected = errors.New("plisio: gateway rejected request")
	// ErrOperationNotFound is returned when the gateway has no record for the
	// requested transaction id.
	ErrOperationNotFound = errors.New("plisio: operation not found")
)
